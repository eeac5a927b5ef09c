package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"goldminer/internal/adapter/repo"
	"goldminer/internal/http/handlers"
	"goldminer/internal/http/httpapi"
	"goldminer/internal/infra"
	"goldminer/internal/infra/credentials"
	"goldminer/internal/infra/geoip"
	"goldminer/internal/infra/google"
	"goldminer/internal/middleware"
	"goldminer/internal/miner"
	"goldminer/internal/providers/gemini"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	accounts := repo.NewAccountRepository(sqlRunner)
	codes := repo.NewUpgradeCodeRepository(sqlRunner)
	creds := credentials.NewStore(sqlRunner)

	provider := gemini.NewClient(gemini.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Keys:    creds,
	})
	logger.Info().Str("state", cfg.GeminiState().String()).Msg("gemini integration")

	verifier := google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID)
	logger.Info().Str("state", cfg.GoogleState().String()).Msg("google sign-in integration")

	var lookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, market detection degrades to headers")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	service := miner.NewService(accounts, codes, provider, logger)

	app := &handlers.App{
		Cfg:       cfg,
		Logger:    logger,
		Miner:     service,
		Accounts:  accounts,
		Verifier:  verifier,
		JWTSecret: cfg.JWTSecret,
	}
	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
