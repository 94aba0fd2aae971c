package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	StockUnits       *prometheus.GaugeVec
	ApprovalsTotal   *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
	AdmissionsTotal  prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics. Call once per process;
// services treat a nil *Metrics as "metrics disabled".
func New() *Metrics {
	return &Metrics{
		StockUnits: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bloodbank_stock_units",
			Help: "Current stock balance per blood group",
		}, []string{"bloodgroup"}),
		ApprovalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbank_approvals_total",
			Help: "Approval decisions by entity kind and outcome",
		}, []string{"kind", "outcome"}),
		RateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_rate_limited_total",
			Help: "Total approval attempts refused by the rate limiter",
		}),
		AdmissionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_admissions_total",
			Help: "Total approval attempts admitted past the rate limiter",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodbank_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// SetStockUnits records the balance of one blood group. Updated synchronously
// with every debit and credit so the gauge never lags the ledger.
func (m *Metrics) SetStockUnits(bloodgroup string, units int) {
	if m == nil {
		return
	}
	m.StockUnits.WithLabelValues(bloodgroup).Set(float64(units))
}

// RecordApproval counts one finalization attempt outcome.
func (m *Metrics) RecordApproval(kind, outcome string) {
	if m == nil {
		return
	}
	m.ApprovalsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRateLimited counts one refused admission.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// RecordAdmission counts one successful admission.
func (m *Metrics) RecordAdmission() {
	if m == nil {
		return
	}
	m.AdmissionsTotal.Inc()
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
