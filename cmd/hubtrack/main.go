package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"hubtrack/internal/auth"
	"hubtrack/internal/cli"
	"hubtrack/internal/config"
	"hubtrack/internal/core"
	apphttp "hubtrack/internal/http"
	"hubtrack/internal/log"
	"hubtrack/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "hubtrack token:", err)
			os.Exit(1)
		}
		return
	}
	serve()
}

func serve() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp, (*config.Config).ValidateServer)

	authn, err := auth.New(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("Failed to initialize authenticator", "error", err)
		os.Exit(1)
	}

	be := cli.InitBackend(context.Background(), logger, cfg)

	srv, err := apphttp.NewServer(":"+cfg.Port, be.Service, authn, apphttp.Options{
		Logger:         logger,
		RateLimit:      ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to configure server", "error", err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting hubtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// issueToken prints a bearer token signed with JWT_SECRET. It is how the
// first administrator obtains credentials.
func issueToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	role := fs.String("role", string(core.RoleAdmin), "token role: admin or entrepreneur")
	entrepreneurID := fs.Int64("entrepreneur", 0, "entrepreneur id for entrepreneur tokens")
	ttl := fs.Duration("ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	if *ttl == 0 {
		*ttl = cfg.TokenTTL
	}
	authn, err := auth.New(cfg.JWTSecret, *ttl)
	if err != nil {
		return err
	}

	var id core.Identity
	switch core.Role(*role) {
	case core.RoleAdmin:
		id = core.Admin()
	case core.RoleEntrepreneur:
		if *entrepreneurID <= 0 {
			return errors.New("-entrepreneur is required for entrepreneur tokens")
		}
		id = core.EntrepreneurIdentity(*entrepreneurID)
	default:
		return fmt.Errorf("unknown role %q", *role)
	}

	token, err := authn.Issue(id)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
