package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anonchat/internal/alias"
	"anonchat/internal/cli"
	"anonchat/internal/config"
	"anonchat/internal/handler"
	"anonchat/internal/observability"
	"anonchat/internal/repository"
	"anonchat/internal/service"

	"github.com/gookit/color"
)

func main() {
	cfg := config.Load()

	log := observability.InitLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
	store, closeStore, err := config.OpenStore(openCtx, cfg)
	openCancel()
	if err != nil {
		log.Error("failed to open store", slog.String("backend", cfg.StoreBackend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()
	log.Info("store opened",
		slog.String("backend", cfg.StoreBackend),
		slog.String("consistency", cfg.Consistency.String()))

	repoOpts := cfg.RepositoryOptions()
	repoOpts.Logger = log
	userRepo := repository.NewUserRepository(store, repoOpts)
	chatroomRepo := repository.NewChatroomRepository(store, repoOpts)

	services := cli.Services{
		Auth:      service.NewAuthService(userRepo, cfg.HashPasswords),
		Directory: service.NewDirectoryService(userRepo),
		Chat: service.NewChatService(chatroomRepo, userRepo,
			alias.NewAllocator(alias.WithLogger(log)),
			service.WithChatLogger(log)),
	}

	var srv *http.Server
	if cfg.OpsAddr != "" {
		srv = &http.Server{
			Addr:         cfg.OpsAddr,
			Handler:      handler.NewOpsRouter(store),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info("ops server listening", slog.String("addr", cfg.OpsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ops server error", slog.String("error", err.Error()))
			}
		}()
	}

	app := cli.New(services, os.Stdout,
		cli.WithPollInterval(cfg.PollInterval),
		cli.WithColors(color.SupportColor()),
		cli.WithLogger(log),
	)

	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, os.Stdin)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("terminal error", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
		log.Info("interrupted")
		// Run closes the open session on its way out; the store must outlive it.
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			log.Warn("terminal did not stop in time")
		}
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown error", slog.String("error", err.Error()))
		}
	}

	log.Info("stopped")
}
