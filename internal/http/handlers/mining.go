package handlers

import (
	"encoding/json"
	"net/http"

	"goldminer/internal/middleware"
)

// Mine runs one mining request for the authenticated user and returns the
// plan-limited keyword list.
func (a *App) Mine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed string `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	market := middleware.MarketFromContext(r.Context())
	records, err := a.Miner.SubmitSeed(r.Context(), a.currentUserID(r), req.Seed, market)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"keywords": records,
		"market":   market,
	})
}

// LongTail expands one mined keyword into intent-classified phrases. Plan
// gating happens in the controller, not here.
func (a *App) LongTail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	phrases, err := a.Miner.ExpandLongTail(r.Context(), a.currentUserID(r), req.Keyword)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"phrases": phrases})
}

// Insights returns a search-grounded market summary for a keyword.
func (a *App) Insights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	insight, err := a.Miner.SearchInsights(r.Context(), a.currentUserID(r), req.Keyword, middleware.MarketFromContext(r.Context()))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, insight)
}

// Activity returns the caller's retained activity log, oldest first.
func (a *App) Activity(w http.ResponseWriter, r *http.Request) {
	entries := a.Miner.Activity(a.currentUserID(r))
	a.json(w, http.StatusOK, map[string]any{"entries": entries})
}

// Results returns the caller's current result and long-tail lists, so a
// reloaded client can restore its view without re-mining.
func (a *App) Results(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	a.json(w, http.StatusOK, map[string]any{
		"keywords":  a.Miner.Results(userID),
		"longTails": a.Miner.LongTails(userID),
	})
}
