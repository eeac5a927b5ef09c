package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"goldminer/internal/domain"
	"goldminer/internal/infra"
	"goldminer/internal/infra/google"
	"goldminer/internal/middleware"
)

type accountResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	Plan          string `json:"plan"`
	UsageCount    int    `json:"usageCount"`
	LastUsageDate string `json:"lastUsageDate,omitempty"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		Plan:          string(a.Plan),
		UsageCount:    a.UsageCount,
		LastUsageDate: a.LastUsageDate,
	}
}

// AuthGoogleVerify exchanges a Google ID token for a session token. The
// account row is created on first sign-in.
func (a *App) AuthGoogleVerify(w http.ResponseWriter, r *http.Request) {
	if a.Cfg.GoogleState() != infra.IntegrationReady {
		a.error(w, http.StatusServiceUnavailable, "not_configured", "Google sign-in is not configured")
		return
	}

	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		a.error(w, http.StatusBadRequest, "validation", "idToken is required")
		return
	}

	claims, err := a.Verifier.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("google token rejected")
		switch {
		case errors.Is(err, google.ErrAudienceMismatch), errors.Is(err, google.ErrIssuerMismatch):
			// The client-side analogue is the unauthorized-domain popup
			// failure: the fix is a console configuration change, so the
			// response carries setup guidance.
			a.json(w, http.StatusUnauthorized, errorResponse{
				Error:    "unauthorized_client",
				Message:  "this origin is not authorized for the configured Google client",
				Guidance: true,
			})
		case errors.Is(err, google.ErrKeySetUnavailable):
			a.error(w, http.StatusServiceUnavailable, "not_configured", "Google key set unavailable")
		default:
			a.error(w, http.StatusUnauthorized, "invalid_token", "Google token could not be verified")
		}
		return
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		a.error(w, http.StatusUnauthorized, "invalid_token", "token is missing subject")
		return
	}

	account, err := a.Miner.EnsureAccount(r.Context(), sub, email, name)
	if err != nil {
		a.domainError(w, err)
		return
	}

	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      account.ID,
		Email:    account.Email,
		Plan:     string(account.Plan),
		Exp:      time.Now().Add(24 * time.Hour).Unix(),
		Issuer:   "goldminer",
		Audience: "goldminer-web",
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"token":   token,
		"account": toAccountResponse(account),
	})
}

// AuthReport accepts sign-in failures observed on the client so that the
// server log tells the whole story. Popup dismissals are noise; domain
// authorization failures are actionable.
func (a *App) AuthReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid report payload")
		return
	}

	resp := map[string]any{"acknowledged": true}
	switch req.Code {
	case "popup_closed":
		a.Logger.Info().Str("detail", req.Detail).Msg("sign-in popup dismissed")
	case "unauthorized_domain":
		a.Logger.Warn().Str("detail", req.Detail).Msg("origin not authorized for Google client")
		resp["guidance"] = "add this origin to the OAuth client's authorized JavaScript origins"
	default:
		a.Logger.Warn().Str("code", req.Code).Str("detail", req.Detail).Msg("client auth failure")
	}
	a.json(w, http.StatusOK, resp)
}

// SignOut drops the server-side session state for the caller.
func (a *App) SignOut(w http.ResponseWriter, r *http.Request) {
	a.Miner.SignOut(a.currentUserID(r))
	a.json(w, http.StatusOK, map[string]any{"signedOut": true})
}

// Me returns the caller's account, including live usage counters.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	account, err := a.Accounts.Get(r.Context(), a.currentUserID(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.domainError(w, domain.ErrUnauthorized)
			return
		}
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toAccountResponse(account))
}
