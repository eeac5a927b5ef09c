package handlers

import "net/http"

// Healthz is the liveness probe.
func (a *App) Healthz(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports the state of each external integration so the client can
// distinguish "not configured" from "broken" before the first request.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"env": a.Cfg.AppEnv,
		"integrations": map[string]string{
			"gemini": a.Cfg.GeminiState().String(),
			"google": a.Cfg.GoogleState().String(),
			"geoip":  a.Cfg.GeoIPState().String(),
		},
	})
}
