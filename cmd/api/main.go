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

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/config"
	oficinaHttp "github.com/MrJamesThe3rd/oficina/internal/http"
	ledgerHandler "github.com/MrJamesThe3rd/oficina/internal/http/ledger"
	orderHandler "github.com/MrJamesThe3rd/oficina/internal/http/order"
	registryHandler "github.com/MrJamesThe3rd/oficina/internal/http/registry"
	remoteHandler "github.com/MrJamesThe3rd/oficina/internal/http/remote"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	var (
		orderH    = orderHandler.NewHandler(rt.App)
		ledgerH   = ledgerHandler.NewHandler(rt.App, rt.Import)
		registryH = registryHandler.NewHandler(rt.App)
		remoteH   = remoteHandler.NewHandler(rt.App, rt.Saver, rt.Mirror, rt.Export)
	)

	router := oficinaHttp.New(orderH, ledgerH, registryH, remoteH, oficinaHttp.Options{
		AuthSecret: cfg.Auth.Secret,
		Timeout:    cfg.Server.Timeout,
	})

	port := fmt.Sprintf(":%d", cfg.App.Port)
	srv := &http.Server{Addr: port, Handler: router}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", port, "storage", cfg.Storage.Driver, "remote", cfg.Remote.Backend)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
	defer cancel()

	if err := rt.Close(closeCtx); err != nil {
		slog.Error("failed to save on shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
