package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/emergency"
	"custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// Service defines the emergency operations reachable over HTTP.
type Service interface {
	Create(ctx context.Context, treasuryID domain.TreasuryID, signers []domain.Address, threshold int) (*emergency.Config, error)
	Get(ctx context.Context, treasuryID domain.TreasuryID) (*emergency.Config, error)
	Freeze(ctx context.Context, treasuryID domain.TreasuryID, reason string, signatures []domain.Address) (*emergency.Config, error)
	TriggerEmergency(ctx context.Context, treasuryID domain.TreasuryID, reason string, signatures []domain.Address) (*emergency.Config, error)
	Unfreeze(ctx context.Context, treasuryID domain.TreasuryID, signatures []domain.Address) (*emergency.Config, error)
	AddSigner(ctx context.Context, treasuryID domain.TreasuryID, addr domain.Address) (*emergency.Config, error)
	RemoveSigner(ctx context.Context, treasuryID domain.TreasuryID, addr domain.Address) (*emergency.Config, error)
	UpdateThreshold(ctx context.Context, treasuryID domain.TreasuryID, newThreshold int) (*emergency.Config, error)
}

// Handler wires emergency endpoints to the emergency service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts emergency endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/treasuries/{treasuryID}/emergency", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleGet)
		r.Post("/freeze", h.HandleFreeze)
		r.Post("/trigger", h.HandleTrigger)
		r.Post("/unfreeze", h.HandleUnfreeze)
		r.Post("/signers", h.HandleAddSigner)
		r.Post("/signers/remove", h.HandleRemoveSigner)
		r.Put("/threshold", h.HandleUpdateThreshold)
	})
}

type CreateRequest struct {
	Signers   []string `json:"signers"`
	Threshold int      `json:"threshold"`
}

type FreezeRequest struct {
	Reason     string   `json:"reason"`
	Signatures []string `json:"signatures"`
}

type UnfreezeRequest struct {
	Signatures []string `json:"signatures"`
}

type SignerRequest struct {
	Address string `json:"address"`
}

type ThresholdRequest struct {
	Threshold int `json:"threshold"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CreateRequest](w, r)
	if !ok {
		return
	}

	signers, err := parseAddresses(req.Signers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.Create(ctx, id, signers, req.Threshold)
	if err != nil {
		h.logger.ErrorContext(ctx, "emergency config creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "emergency config created",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", id,
		"signers", len(cfg.Signers),
		"threshold", cfg.Threshold,
	)
	httputil.WriteJSON(w, http.StatusCreated, cfg)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleFreeze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[FreezeRequest](w, r)
	if !ok {
		return
	}

	signatures, err := parseAddresses(req.Signatures)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.Freeze(ctx, id, req.Reason, signatures)
	if err != nil {
		h.logger.ErrorContext(ctx, "emergency freeze failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "treasury frozen under emergency authority",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", id,
		"reason", req.Reason,
	)
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[FreezeRequest](w, r)
	if !ok {
		return
	}

	signatures, err := parseAddresses(req.Signatures)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.TriggerEmergency(ctx, id, req.Reason, signatures)
	if err != nil {
		h.logger.ErrorContext(ctx, "emergency trigger failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "emergency mode triggered",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", id,
		"reason", req.Reason,
	)
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleUnfreeze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UnfreezeRequest](w, r)
	if !ok {
		return
	}

	signatures, err := parseAddresses(req.Signatures)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.Unfreeze(ctx, id, signatures)
	if err != nil {
		h.logger.ErrorContext(ctx, "emergency unfreeze failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "treasury unfrozen",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", id,
	)
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleAddSigner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[SignerRequest](w, r)
	if !ok {
		return
	}

	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.AddSigner(ctx, id, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleRemoveSigner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[SignerRequest](w, r)
	if !ok {
		return
	}

	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.RemoveSigner(ctx, id, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) HandleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[ThresholdRequest](w, r)
	if !ok {
		return
	}

	cfg, err := h.service.UpdateThreshold(ctx, id, req.Threshold)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// authorize parses the treasury id and requires an authenticated actor.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (domain.TreasuryID, bool) {
	id, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.TreasuryID{}, false
	}
	if requestcontext.Actor(r.Context()).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.TreasuryID{}, false
	}
	return id, true
}

func parseAddresses(raw []string) ([]domain.Address, error) {
	out := make([]domain.Address, 0, len(raw))
	for _, s := range raw {
		addr, err := domain.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
