package handlers

import (
	"encoding/json"
	"net/http"
)

// Upgrade redeems a single-use upgrade code and flips the account to pro.
func (a *App) Upgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	account, err := a.Miner.RedeemUpgradeCode(r.Context(), a.currentUserID(r), req.Code)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"account": toAccountResponse(account)})
}
