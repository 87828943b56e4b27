package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/audit"
	"custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
)

// Service defines the audit trail reads reachable over HTTP.
type Service interface {
	List(ctx context.Context, treasuryID domain.TreasuryID) ([]audit.Event, error)
}

// Handler exposes a treasury's audit trail.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/treasuries/{treasuryID}/events", h.HandleList)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTreasuryID(chi.URLParam(r, "treasuryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.List(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
