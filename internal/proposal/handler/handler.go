package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/proposal"
	"custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// Service defines the proposal operations reachable over HTTP.
type Service interface {
	Create(ctx context.Context, treasuryID domain.TreasuryID, creator domain.Address, category domain.Category, title, description string, payload proposal.Payload, timeLock time.Duration) (*proposal.Proposal, error)
	Get(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error)
	ListByTreasury(ctx context.Context, treasuryID domain.TreasuryID) ([]*proposal.Proposal, error)
	Sign(ctx context.Context, id domain.ProposalID, signer domain.Address) (*proposal.Proposal, error)
	Execute(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error)
	Cancel(ctx context.Context, id domain.ProposalID, caller domain.Address) (*proposal.Proposal, error)
}

// Handler wires proposal endpoints to the proposal service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts proposal endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/treasuries/{treasuryID}/proposals", h.HandleCreate)
	r.Get("/treasuries/{treasuryID}/proposals", h.HandleList)
	r.Get("/proposals/{proposalID}", h.HandleGet)
	r.Post("/proposals/{proposalID}/sign", h.HandleSign)
	r.Post("/proposals/{proposalID}/execute", h.HandleExecute)
	r.Post("/proposals/{proposalID}/cancel", h.HandleCancel)
}

type TransactionRequest struct {
	Recipient   string `json:"recipient"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// CreateRequest carries the category tag plus the matching payload field.
type CreateRequest struct {
	Category        string               `json:"category"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Transactions    []TransactionRequest `json:"transactions,omitempty"`
	Signer          string               `json:"signer,omitempty"`
	Threshold       int                  `json:"threshold,omitempty"`
	TimeLockSeconds int64                `json:"time_lock_seconds"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	treasuryID, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	creator := requestcontext.Actor(ctx)
	if creator.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[CreateRequest](w, r)
	if !ok {
		return
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.TimeLockSeconds < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "time lock cannot be negative"))
		return
	}

	payload, err := req.toPayload(category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Create(ctx, treasuryID, creator, category, req.Title, req.Description, payload, time.Duration(req.TimeLockSeconds)*time.Second)
	if err != nil {
		h.logger.ErrorContext(ctx, "proposal creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", treasuryID,
			"category", category,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "proposal created",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", treasuryID,
		"proposal_id", p.ID,
		"category", category,
	)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	treasuryID, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proposals, err := h.service.ListByTreasury(ctx, treasuryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if proposals == nil {
		proposals = []*proposal.Proposal{}
	}
	httputil.WriteJSON(w, http.StatusOK, proposals)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	signer := requestcontext.Actor(ctx)
	if signer.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	p, err := h.service.Sign(ctx, id, signer)
	if err != nil {
		h.logger.ErrorContext(ctx, "proposal signing failed",
			"request_id", requestcontext.RequestID(ctx),
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "proposal signed",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", id,
		"signatures", len(p.Signatures),
	)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	p, err := h.service.Execute(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "proposal execution failed",
			"request_id", requestcontext.RequestID(ctx),
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "proposal executed",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", id,
		"treasury_id", p.TreasuryID,
		"category", p.Category,
	)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Actor(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	p, err := h.service.Cancel(ctx, id, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "proposal cancellation failed",
			"request_id", requestcontext.RequestID(ctx),
			"proposal_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "proposal cancelled",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", id,
	)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (r CreateRequest) toPayload(category domain.Category) (proposal.Payload, error) {
	switch category {
	case domain.CategoryWithdrawal:
		transactions := make([]proposal.Transaction, 0, len(r.Transactions))
		for _, raw := range r.Transactions {
			recipient, err := domain.ParseAddress(raw.Recipient)
			if err != nil {
				return proposal.Payload{}, err
			}
			transactions = append(transactions, proposal.Transaction{Recipient: recipient, Amount: raw.Amount, Description: raw.Description})
		}
		return proposal.WithdrawalPayload(transactions), nil
	case domain.CategoryAddSigner, domain.CategoryRemoveSigner:
		signer, err := domain.ParseAddress(r.Signer)
		if err != nil {
			return proposal.Payload{}, err
		}
		return proposal.SignerPayload(signer), nil
	case domain.CategoryUpdateThreshold:
		return proposal.ThresholdPayload(r.Threshold), nil
	default:
		return proposal.RecordOnlyPayload(), nil
	}
}
