// Package httpapi assembles the route table and middleware chain.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"goldminer/internal/http/handlers"
	"goldminer/internal/middleware"
)

func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Cfg.AllowedOrigins),
		middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute),
		middleware.Market(app.Cfg.DefaultMarket, lookup),
	)

	r.Get("/v1/healthz", app.Healthz)
	r.Get("/v1/status", app.Status)
	r.Post("/v1/auth/google", app.AuthGoogleVerify)
	r.Post("/v1/auth/report", app.AuthReport)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))

		r.Get("/v1/me", app.Me)
		r.Post("/v1/auth/signout", app.SignOut)
		r.Post("/v1/mine", app.Mine)
		r.Post("/v1/longtail", app.LongTail)
		r.Post("/v1/insights", app.Insights)
		r.Get("/v1/activity", app.Activity)
		r.Get("/v1/results", app.Results)
		r.Post("/v1/upgrade", app.Upgrade)
	})

	return r
}
