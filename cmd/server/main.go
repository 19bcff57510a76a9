// Package main is the entry point for the SiteBook API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (internal/config)
//  2. Create dependencies (logger, store, token verifier, provider client)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/service, internal/handler, ...).
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/sakif/sitebook/internal/auth"
	"github.com/sakif/sitebook/internal/config"
	"github.com/sakif/sitebook/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// A bootstrap logger reports config errors before LOG_LEVEL is known.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Human-readable text locally, JSON in production for log shippers.
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDevelopment() {
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(logHandler).With(slog.String("env", cfg.AppEnv))
	slog.SetDefault(logger)

	// === 3. OPEN THE STORE ===
	store, err := server.OpenStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. TOKEN VERIFICATION ===
	verifier, err := newVerifier(cfg, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to configure token verification", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 5. IDENTITY PROVIDER CLIENT ===
	// Optional. Without it every user gets placeholder email and name.
	var profiles auth.ProfileFetcher
	if cfg.IdentitySecretKey != "" {
		client, err := auth.NewProviderClient(cfg.IdentityAPIURL, cfg.IdentitySecretKey, &http.Client{Timeout: 5 * time.Second})
		if err != nil {
			store.Close()
			logger.Error("failed to create identity provider client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		profiles = client
	} else {
		logger.Warn("IDENTITY_SECRET_KEY not set, user profiles will use placeholder values")
	}

	// === 6. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		ExposeErrors:       cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, server.Deps{
		Store:    store,
		Verifier: verifier,
		Profiles: profiles,
	}, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newVerifier prefers the provider's JWKS. The HMAC verifier is for local
// development, where tokens are minted with the same secret.
func newVerifier(cfg *config.Config, logger *slog.Logger) (auth.Verifier, error) {
	if cfg.JWKSURL != "" {
		logger.Info("verifying session tokens against JWKS", slog.String("url", cfg.JWKSURL))
		return auth.NewJWKSVerifier(auth.JWKSConfig{
			URL:               cfg.JWKSURL,
			Issuer:            cfg.Issuer,
			AuthorizedParties: cfg.AuthorizedParties,
			Logger:            logger,
		})
	}

	if !cfg.IsDevelopment() {
		logger.Warn("using shared-secret session tokens outside development")
	}
	return auth.NewHMACVerifier(cfg.JWTSecret, cfg.Issuer)
}
