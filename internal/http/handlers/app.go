package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"goldminer/internal/domain"
	"goldminer/internal/infra"
	"goldminer/internal/middleware"
	"goldminer/internal/miner"
)

// GoogleVerifier abstracts the identity provider for testability.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (map[string]any, error)
}

// App is the handler container: every route is a method on it.
type App struct {
	Cfg       *infra.Config
	Logger    zerolog.Logger
	Miner     *miner.Service
	Accounts  domain.AccountRepository
	Verifier  GoogleVerifier
	JWTSecret string
}

type errorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Upgrade  bool   `json:"upgrade,omitempty"`
	Guidance bool   `json:"guidance,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

// domainError translates the error taxonomy into transport responses. Quota
// denials are expected outcomes: they carry an upgrade prompt flag instead of
// being treated as failures.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "sign in required")
	case errors.Is(err, domain.ErrInvalidSeed):
		a.error(w, http.StatusBadRequest, "validation", "keyword is required")
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.json(w, http.StatusPaymentRequired, errorResponse{
			Error:   "quota_exceeded",
			Message: "free plan daily limit reached",
			Upgrade: true,
		})
	case errors.Is(err, domain.ErrPlanRequired):
		a.json(w, http.StatusForbidden, errorResponse{
			Error:   "plan_required",
			Message: "long-tail expansion requires the pro plan",
			Upgrade: true,
		})
	case errors.Is(err, domain.ErrBusy):
		a.error(w, http.StatusConflict, "busy", "a request is already in flight")
	case errors.Is(err, domain.ErrNotConfigured):
		a.error(w, http.StatusServiceUnavailable, "not_configured", "generative AI integration is not configured")
	case errors.Is(err, domain.ErrInvalidUpgradeCode):
		a.error(w, http.StatusBadRequest, "invalid_code", "upgrade code is not valid")
	case errors.Is(err, domain.ErrCodeConsumed):
		a.error(w, http.StatusConflict, "code_used", "upgrade code was already used")
	case errors.Is(err, domain.ErrUpstreamQuery):
		a.error(w, http.StatusBadGateway, "upstream", "keyword engine failed")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		a.Logger.Error().Err(err).Msg("unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
