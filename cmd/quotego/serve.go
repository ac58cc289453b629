package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/quotego/internal/api"
	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/config"
	"github.com/rgehrsitz/quotego/internal/documents"
	"github.com/rgehrsitz/quotego/internal/identity"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/spf13/cobra"
)

// openStore returns the quote store selected by the configuration
func openStore(cfg config.AppConfig) (store.QuoteStore, error) {
	if cfg.DatabaseType == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQL(cfg.DatabaseType, cfg.DatabaseURL)
}

// openDraftCache connects to redis when REDIS_URL is set
func openDraftCache(ctx context.Context, cfg config.AppConfig) (store.DraftCache, func() error, error) {
	if cfg.RedisURL == "" {
		return store.NewMemoryDraftCache(cfg.DraftTTL), func() error { return nil }, nil
	}
	rc, err := store.NewRedisDraftCache(cfg.RedisURL, cfg.DraftTTL)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.GetClient().Ping(pingCtx).Err(); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rc, rc.Close, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quotation API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		cfg, err := config.LoadAppConfig(envFile)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		if dir, _ := cmd.Flags().GetString("catalog-dir"); dir != "" {
			cfg.CatalogDir = dir
		}
		logger := simpleCLILogger{}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cat, err := catalog.LoadDir(cfg.CatalogDir)
		if err != nil {
			return err
		}

		quotes, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer quotes.Close()

		drafts, closeDrafts, err := openDraftCache(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDrafts()

		deps := api.Dependencies{
			Catalog: cat,
			Store:   quotes,
			Drafts:  drafts,
			Options: session.Options{
				CalcDelay:      cfg.CalcDelay,
				SubmitAttempts: cfg.SubmitAttempts,
				SubmitBackoff:  cfg.SubmitBackoff,
			},
			IdleTTL: cfg.DraftTTL,
			Logger:  logger,
		}
		if cfg.JWTSecret != "" {
			if deps.Verifier, err = identity.NewVerifier(cfg.JWTSecret); err != nil {
				return err
			}
		} else {
			logger.Warnf("JWT_SECRET is not set; trusting the X-Agent-ID header")
		}
		if dir, _ := cmd.Flags().GetString("documents"); dir != "" {
			deps.Extractor = documents.NewSidecarExtractor(dir)
		}

		if debugMode, _ := cmd.Flags().GetBool("debug"); !debugMode {
			gin.SetMode(gin.ReleaseMode)
		}
		server := api.NewServer(deps)
		httpServer := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Infof("quotego listening on :%s (store %s)", cfg.Port, cfg.DatabaseType)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}

		logger.Infof("shutting down")
		server.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func initServeCommand() {
	serveCmd.Flags().String("env-file", ".env", "Environment file loaded before reading settings")
	serveCmd.Flags().String("port", "", "Listen port (overrides QUOTEGO_PORT)")
	serveCmd.Flags().String("catalog-dir", "", "Directory of line files that replace the built-in rate tables")
	serveCmd.Flags().String("documents", "", "Directory holding extraction sidecars for uploaded documents")
	serveCmd.Flags().Bool("debug", false, "Run gin in debug mode")

	rootCmd.AddCommand(serveCmd)
}
