package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodbank/internal/approval"
	"bloodbank/internal/domain"
)

// WorkflowService is the slice of the approval service the handlers need
// beyond approve/reject, which go through the Approver.
type WorkflowService interface {
	CreateRequest(ctx context.Context, in approval.CreateRequestInput) (domain.BloodRequest, error)
	CreateDonation(ctx context.Context, in approval.CreateDonationInput) (domain.BloodDonation, error)
	ListRequests(ctx context.Context, statusFilter string) ([]domain.BloodRequest, error)
	ListDonations(ctx context.Context, statusFilter string) ([]domain.BloodDonation, error)
	GetRequest(ctx context.Context, id string) (domain.BloodRequest, error)
	GetDonation(ctx context.Context, id string) (domain.BloodDonation, error)
	Stats(ctx context.Context) (approval.Stats, error)
}

// Approver is the orchestrator contract: rate-limited approvals, free
// rejections.
type Approver interface {
	HandleApproval(ctx context.Context, clientID string, kind domain.EntityKind, id string) error
	HandleRejection(ctx context.Context, kind domain.EntityKind, id string) error
}

// StockReader serves the stock read and restock endpoints.
type StockReader interface {
	Available(ctx context.Context, group domain.BloodGroup) (int, error)
	Snapshot(ctx context.Context) (map[domain.BloodGroup]int, error)
	TotalUnits(ctx context.Context) (int, error)
	SetUnits(ctx context.Context, group domain.BloodGroup, units int) error
}

// Handler is the thin HTTP layer. It delegates to the orchestrator and the
// approval service so transport concerns remain isolated.
type Handler struct {
	workflow WorkflowService
	approver Approver
	stock    StockReader
	logger   *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(workflow WorkflowService, approver Approver, stock StockReader, logger *slog.Logger) *Handler {
	return &Handler{
		workflow: workflow,
		approver: approver,
		stock:    stock,
		logger:   logger,
	}
}

type createRequestBody struct {
	BloodGroup  string `json:"bloodgroup"`
	Units       int    `json:"units"`
	RequestedBy string `json:"requested_by"`
	PatientName string `json:"patient_name"`
	PatientAge  int    `json:"patient_age"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	req, err := h.workflow.CreateRequest(r.Context(), approval.CreateRequestInput{
		BloodGroup:  body.BloodGroup,
		Units:       body.Units,
		RequestedBy: body.RequestedBy,
		PatientName: body.PatientName,
		PatientAge:  body.PatientAge,
		Reason:      body.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

type createDonationBody struct {
	BloodGroup string `json:"bloodgroup"`
	Units      int    `json:"units"`
	DonorID    string `json:"donor_id"`
	Disease    string `json:"disease"`
}

func (h *Handler) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var body createDonationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	don, err := h.workflow.CreateDonation(r.Context(), approval.CreateDonationInput{
		BloodGroup: body.BloodGroup,
		Units:      body.Units,
		DonorID:    body.DonorID,
		Disease:    body.Disease,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, don)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.workflow.ListRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.workflow.ListDonations(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	don, err := h.workflow.GetDonation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, don)
}

func (h *Handler) approve(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.approver.HandleApproval(r.Context(), clientID(r), kind, id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: domain.StatusApproved})
	}
}

func (h *Handler) reject(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.approver.HandleRejection(r.Context(), kind, id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: domain.StatusRejected})
	}
}

type statusResponse struct {
	ID     string        `json:"id"`
	Status domain.Status `json:"status"`
}

type stockEntry struct {
	BloodGroup domain.BloodGroup `json:"bloodgroup"`
	Units      int               `json:"units"`
}

func (h *Handler) handleStockSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stock.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	total, err := h.stock.TotalUnits(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries := make([]stockEntry, 0, len(domain.AllBloodGroups))
	for _, g := range domain.AllBloodGroups {
		entries = append(entries, stockEntry{BloodGroup: g, Units: snapshot[g]})
	}
	writeJSON(w, http.StatusOK, struct {
		Stock      []stockEntry `json:"stock"`
		TotalUnits int          `json:"total_units"`
	}{Stock: entries, TotalUnits: total})
}

func (h *Handler) handleStockGroup(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	units, err := h.stock.Available(r.Context(), group)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockEntry{BloodGroup: group, Units: units})
}

type restockBody struct {
	Units int `json:"units"`
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body restockBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if err := h.stock.SetUnits(r.Context(), group, body.Units); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockEntry{BloodGroup: group, Units: body.Units})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.workflow.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
