package cmd

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/yukawa/avatarbridge/api"
	"github.com/yukawa/avatarbridge/crypto"
	"github.com/yukawa/avatarbridge/internal/config"
	"github.com/yukawa/avatarbridge/search"
	"github.com/yukawa/avatarbridge/session"
	"github.com/yukawa/avatarbridge/settings"
	"github.com/yukawa/avatarbridge/upstream"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the bridge server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		codec := crypto.NewCodec(cfg.SecretHex)
		if !codec.Available() {
			logger.Warn("no valid at-rest secret configured, sessions persist unencrypted",
				"hint", "run 'avatarbridge keygen' and set AVB_SECRET")
		}

		sessions, err := session.NewStore(cfg.SessionFile, codec, logger)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		settingsStore, err := settings.Open(cfg.SettingsFile)
		if err != nil {
			return fmt.Errorf("failed to open settings store: %w", err)
		}
		defer settingsStore.Close()

		client, err := upstream.NewClient(cfg.UpstreamURL, cfg.UserAgent, sessions,
			upstream.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to build upstream client: %w", err)
		}

		a := api.New(sessions, client, search.New(client), settingsStore,
			api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		if cfg.AllowedOrigin != "" {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   []string{cfg.AllowedOrigin},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type"},
				AllowCredentials: true,
			}))
		}
		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Search and count requests walk the whole remote catalog.
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Listening on %s (data: %s)...\n", cfg.Addr(), cfg.DataDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
