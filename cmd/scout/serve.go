package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/scout/api"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/llm"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default $SCOUT_HOST or 0.0.0.0)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default $SCOUT_PORT or 8080)")
	return cmd
}

func serve(cfg *config.Config) error {
	// ── 1. Structured logging ───────────────────────────────────────
	closeLog := initLogger(cfg.Log)
	defer closeLog()
	slog.Info("scout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser", cfg.Browser.Enabled,
		"callsLimit", cfg.Explore.CallsLimit,
	)

	// ── 2. Services (launches the browser when enabled) ─────────────
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	jobs := handler.NewJobStore(time.Hour)
	defer jobs.Close()

	// ── 3. Router ───────────────────────────────────────────────────
	deps := api.Deps{
		Explorer: svc.explorer,
		Ranker:   svc.runner,
		Topics:   svc.topics,
		Writer:   llm.NewClient(&http.Client{Timeout: cfg.LLM.Timeout}),
		Jobs:     jobs,
	}
	if svc.browser != nil {
		deps.Pool = svc.browser
	}
	if svc.cache != nil {
		deps.Cache = svc.cache
	}
	router := api.NewRouter(deps, cfg, time.Now())

	// ── 4. HTTP server ──────────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── 5. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	// Give in-flight requests 10 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scout stopped")
	return nil
}
