package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/treasury"
	"custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// Service defines the treasury operations reachable over HTTP. The privileged
// mutators (withdraw, freeze, signer and threshold changes) are deliberately
// absent: they are only reachable through the proposal and emergency engines.
type Service interface {
	Create(ctx context.Context, signers []domain.Address, threshold int) (*treasury.Treasury, error)
	Get(ctx context.Context, id domain.TreasuryID) (*treasury.Treasury, error)
	Deposit(ctx context.Context, id domain.TreasuryID, amount int64) (*treasury.Treasury, error)
}

// Handler wires treasury endpoints to the treasury service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts treasury endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/treasuries", h.HandleCreate)
	r.Get("/treasuries/{treasuryID}", h.HandleGet)
	r.Post("/treasuries/{treasuryID}/deposit", h.HandleDeposit)
}

type CreateRequest struct {
	Signers   []string `json:"signers"`
	Threshold int      `json:"threshold"`
}

type DepositRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[CreateRequest](w, r)
	if !ok {
		return
	}

	signers := make([]domain.Address, 0, len(req.Signers))
	for _, raw := range req.Signers {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		signers = append(signers, addr)
	}

	t, err := h.service.Create(ctx, signers, req.Threshold)
	if err != nil {
		h.logger.ErrorContext(ctx, "treasury creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "treasury created",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", t.ID,
		"signers", len(t.Signers),
		"threshold", t.Threshold,
	)
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[DepositRequest](w, r)
	if !ok {
		return
	}

	t, err := h.service.Deposit(ctx, id, req.Amount)
	if err != nil {
		h.logger.ErrorContext(ctx, "deposit failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "deposit recorded",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", id,
		"amount", req.Amount,
		"balance", t.Balance,
	)
	httputil.WriteJSON(w, http.StatusOK, t)
}
