package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/policy"
	"custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// Service defines the policy operations reachable over HTTP.
type Service interface {
	Configure(ctx context.Context, treasuryID domain.TreasuryID, cfg policy.Config) (*policy.Config, error)
	Get(ctx context.Context, treasuryID domain.TreasuryID) (*policy.Config, error)
}

// Handler wires policy endpoints to the policy service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts policy endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/treasuries/{treasuryID}/policy", h.HandlePut)
	r.Get("/treasuries/{treasuryID}/policy", h.HandleGet)
}

type SpendingLimitRequest struct {
	Period string `json:"period"`
	Limit  int64  `json:"limit"`
}

type WhitelistEntryRequest struct {
	Address     string    `json:"address"`
	ExpiresAt   time.Time `json:"expires_at"`
	Description string    `json:"description"`
}

type TierRequest struct {
	MinAmount          int64 `json:"min_amount"`
	RequiredSignatures int   `json:"required_signatures"`
}

type TimeLockRequest struct {
	BaseSeconds int64 `json:"base_seconds"`
	Divisor     int64 `json:"divisor"`
}

// PutRequest replaces the treasury's policy config. Omitted sub-policies are
// disabled.
type PutRequest struct {
	Spending          *SpendingLimitRequest   `json:"spending,omitempty"`
	Whitelist         []WhitelistEntryRequest `json:"whitelist,omitempty"`
	AllowedCategories []string                `json:"allowed_categories,omitempty"`
	Tiers             []TierRequest           `json:"tiers,omitempty"`
	TimeLock          *TimeLockRequest        `json:"time_lock,omitempty"`
}

func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.Decode[PutRequest](w, r)
	if !ok {
		return
	}

	cfg, err := req.toConfig()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stored, err := h.service.Configure(ctx, id, cfg)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy update failed",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy updated",
		"request_id", requestcontext.RequestID(ctx),
		"treasury_id", id,
	)
	httputil.WriteJSON(w, http.StatusOK, stored)
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

func (r PutRequest) toConfig() (policy.Config, error) {
	var cfg policy.Config

	if r.Spending != nil {
		cfg.Spending = &policy.SpendingLimit{
			Period: policy.Period(r.Spending.Period),
			Limit:  r.Spending.Limit,
		}
	}
	if len(r.Whitelist) > 0 {
		entries := make([]policy.WhitelistEntry, 0, len(r.Whitelist))
		for _, raw := range r.Whitelist {
			addr, err := domain.ParseAddress(raw.Address)
			if err != nil {
				return policy.Config{}, err
			}
			entries = append(entries, policy.WhitelistEntry{
				Address:     addr,
				ExpiresAt:   raw.ExpiresAt,
				Description: raw.Description,
			})
		}
		cfg.Whitelist = &policy.Whitelist{Entries: entries}
	}
	if len(r.AllowedCategories) > 0 {
		allowed := make([]domain.Category, 0, len(r.AllowedCategories))
		for _, raw := range r.AllowedCategories {
			category, err := domain.ParseCategory(raw)
			if err != nil {
				return policy.Config{}, err
			}
			allowed = append(allowed, category)
		}
		cfg.CategoryGate = &policy.CategoryGate{Allowed: allowed}
	}
	if len(r.Tiers) > 0 {
		tiers := make([]policy.Tier, 0, len(r.Tiers))
		for _, raw := range r.Tiers {
			tiers = append(tiers, policy.Tier{
				MinAmount:          raw.MinAmount,
				RequiredSignatures: raw.RequiredSignatures,
			})
		}
		cfg.Tiers = &policy.TieredThreshold{Tiers: tiers}
	}
	if r.TimeLock != nil {
		cfg.TimeLock = &policy.TimeLockFormula{
			Base:    time.Duration(r.TimeLock.BaseSeconds) * time.Second,
			Divisor: r.TimeLock.Divisor,
		}
	}
	return cfg, nil
}
