package approval

import (
	"context"
	"errors"
	"log/slog"

	"bloodbank/internal/clock"
	"bloodbank/internal/domain"
	"bloodbank/internal/ledger"
	"bloodbank/internal/notify"
	"bloodbank/internal/platform/metrics"
)

// Service drives blood requests and donations through their state machines.
// It is the only component that mutates entity status, and it pairs every
// Approved transition with its ledger effect: debit for requests, credit for
// donations. If the ledger refuses, status does not move.
type Service struct {
	requests  RequestStore
	donations DonationStore
	ledger    ledger.Ledger
	locks     *keyedMutex
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
	notifier  notify.Publisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n notify.Publisher) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// New creates the approval service.
func New(requests RequestStore, donations DonationStore, stock ledger.Ledger, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, errors.New("request store is required")
	}
	if donations == nil {
		return nil, errors.New("donation store is required")
	}
	if stock == nil {
		return nil, errors.New("ledger is required")
	}

	s := &Service{
		requests:  requests,
		donations: donations,
		ledger:    stock,
		locks:     newKeyedMutex(),
		clock:     clock.NewSystem(),
		logger:    slog.Default(),
		notifier:  notify.NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateRequestInput carries the fields a caller supplies for a new request.
type CreateRequestInput struct {
	BloodGroup  string
	Units       int
	RequestedBy string
	PatientName string
	PatientAge  int
	Reason      string
}

// CreateRequest validates and stores a new Pending request.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (domain.BloodRequest, error) {
	group, err := domain.ParseBloodGroup(in.BloodGroup)
	if err != nil {
		return domain.BloodRequest{}, err
	}
	req, err := domain.NewBloodRequest(group, in.Units, in.RequestedBy, in.PatientName, in.PatientAge, in.Reason, s.clock.Now())
	if err != nil {
		return domain.BloodRequest{}, err
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return domain.BloodRequest{}, err
	}
	return req, nil
}

// CreateDonationInput carries the fields a caller supplies for a new donation.
type CreateDonationInput struct {
	BloodGroup string
	Units      int
	DonorID    string
	Disease    string
}

// CreateDonation validates and stores a new Pending donation.
func (s *Service) CreateDonation(ctx context.Context, in CreateDonationInput) (domain.BloodDonation, error) {
	group, err := domain.ParseBloodGroup(in.BloodGroup)
	if err != nil {
		return domain.BloodDonation{}, err
	}
	don, err := domain.NewBloodDonation(group, in.Units, in.DonorID, in.Disease, s.clock.Now())
	if err != nil {
		return domain.BloodDonation{}, err
	}
	if err := s.donations.Create(ctx, don); err != nil {
		return domain.BloodDonation{}, err
	}
	return don, nil
}

// ApproveRequest debits stock and finalizes the request. On insufficient
// stock the request stays Pending and the typed error propagates, so the
// caller may restock and retry.
func (s *Service) ApproveRequest(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return s.translateNotFound(err, domain.KindRequest, id)
	}
	if req.Status != domain.StatusPending {
		s.metrics.RecordApproval(string(domain.KindRequest), "already_finalized")
		return &domain.AlreadyFinalizedError{Kind: domain.KindRequest, ID: id, Status: req.Status}
	}

	if err := s.ledger.Debit(ctx, req.BloodGroup, req.Units); err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.metrics.RecordApproval(string(domain.KindRequest), "insufficient_stock")
			s.logger.Info("request approval refused, insufficient stock",
				"request_id", id,
				"bloodgroup", req.BloodGroup,
				"requested", insufficient.Requested,
				"available", insufficient.Available,
			)
		}
		return err
	}

	if err := s.requests.SetStatus(ctx, id, domain.StatusApproved, s.clock.Now()); err != nil {
		return err
	}

	s.metrics.RecordApproval(string(domain.KindRequest), "approved")
	s.emit(domain.KindRequest, req.ID, req.BloodGroup, req.Units, notify.OutcomeApproved)
	return nil
}

// RejectRequest finalizes the request with no ledger effect.
func (s *Service) RejectRequest(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return s.translateNotFound(err, domain.KindRequest, id)
	}
	if req.Status != domain.StatusPending {
		return &domain.AlreadyFinalizedError{Kind: domain.KindRequest, ID: id, Status: req.Status}
	}

	if err := s.requests.SetStatus(ctx, id, domain.StatusRejected, s.clock.Now()); err != nil {
		return err
	}

	s.metrics.RecordApproval(string(domain.KindRequest), "rejected")
	s.emit(domain.KindRequest, req.ID, req.BloodGroup, req.Units, notify.OutcomeRejected)
	return nil
}

// ApproveDonation credits stock and finalizes the donation. Credit cannot
// fail for a valid group, so approval always succeeds from Pending.
func (s *Service) ApproveDonation(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	don, err := s.donations.Get(ctx, id)
	if err != nil {
		return s.translateNotFound(err, domain.KindDonation, id)
	}
	if don.Status != domain.StatusPending {
		s.metrics.RecordApproval(string(domain.KindDonation), "already_finalized")
		return &domain.AlreadyFinalizedError{Kind: domain.KindDonation, ID: id, Status: don.Status}
	}

	if err := s.ledger.Credit(ctx, don.BloodGroup, don.Units); err != nil {
		return err
	}

	if err := s.donations.SetStatus(ctx, id, domain.StatusApproved, s.clock.Now()); err != nil {
		return err
	}

	s.metrics.RecordApproval(string(domain.KindDonation), "approved")
	s.emit(domain.KindDonation, don.ID, don.BloodGroup, don.Units, notify.OutcomeApproved)
	return nil
}

// RejectDonation finalizes the donation with no ledger effect.
func (s *Service) RejectDonation(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	don, err := s.donations.Get(ctx, id)
	if err != nil {
		return s.translateNotFound(err, domain.KindDonation, id)
	}
	if don.Status != domain.StatusPending {
		return &domain.AlreadyFinalizedError{Kind: domain.KindDonation, ID: id, Status: don.Status}
	}

	if err := s.donations.SetStatus(ctx, id, domain.StatusRejected, s.clock.Now()); err != nil {
		return err
	}

	s.metrics.RecordApproval(string(domain.KindDonation), "rejected")
	s.emit(domain.KindDonation, don.ID, don.BloodGroup, don.Units, notify.OutcomeRejected)
	return nil
}

// GetRequest returns one request by id.
func (s *Service) GetRequest(ctx context.Context, id string) (domain.BloodRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return domain.BloodRequest{}, s.translateNotFound(err, domain.KindRequest, id)
	}
	return req, nil
}

// GetDonation returns one donation by id.
func (s *Service) GetDonation(ctx context.Context, id string) (domain.BloodDonation, error) {
	don, err := s.donations.Get(ctx, id)
	if err != nil {
		return domain.BloodDonation{}, s.translateNotFound(err, domain.KindDonation, id)
	}
	return don, nil
}

// ListRequests returns requests, optionally filtered by status ("" for all).
func (s *Service) ListRequests(ctx context.Context, statusFilter string) ([]domain.BloodRequest, error) {
	status, err := parseFilter(statusFilter)
	if err != nil {
		return nil, err
	}
	return s.requests.List(ctx, status)
}

// ListDonations returns donations, optionally filtered by status ("" for all).
func (s *Service) ListDonations(ctx context.Context, statusFilter string) ([]domain.BloodDonation, error) {
	status, err := parseFilter(statusFilter)
	if err != nil {
		return nil, err
	}
	return s.donations.List(ctx, status)
}

// StatusCounts breaks a set of entities down by lifecycle state.
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Stats aggregates request and donation counts for dashboards.
type Stats struct {
	Requests  StatusCounts `json:"requests"`
	Donations StatusCounts `json:"donations"`
}

// Stats counts requests and donations by status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	requests, err := s.requests.List(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	donations, err := s.donations.List(ctx, "")
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, req := range requests {
		tally(&stats.Requests, req.Status)
	}
	for _, don := range donations {
		tally(&stats.Donations, don.Status)
	}
	return stats, nil
}

func tally(c *StatusCounts, status domain.Status) {
	c.Total++
	switch status {
	case domain.StatusPending:
		c.Pending++
	case domain.StatusApproved:
		c.Approved++
	case domain.StatusRejected:
		c.Rejected++
	}
}

func parseFilter(raw string) (domain.Status, error) {
	if raw == "" {
		return "", nil
	}
	return domain.ParseStatus(raw)
}

func (s *Service) translateNotFound(err error, kind domain.EntityKind, id string) error {
	if errors.Is(err, ErrNotFound) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func (s *Service) emit(kind domain.EntityKind, id string, group domain.BloodGroup, units int, outcome notify.Outcome) {
	s.notifier.Emit(notify.Event{
		Kind:       kind,
		EntityID:   id,
		BloodGroup: group,
		Units:      units,
		Outcome:    outcome,
		At:         s.clock.Now(),
	})
}
