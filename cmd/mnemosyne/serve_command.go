package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"mnemosyne/internal/logging"
	"mnemosyne/internal/query"
	"mnemosyne/internal/server"
	"mnemosyne/internal/store"
	"mnemosyne/internal/vision"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the content server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx)
		},
	}
}

func runServer(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg, "server")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := os.MkdirAll(cfg.Device.LockDir, 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.Device.LockDir, "mnemosyne-server.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another mnemosyne server instance is already running")
	}
	defer lock.Unlock()

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open content store", logging.Error(err))
		return err
	}
	defer st.Close()

	// The server fills in missing descriptions itself, with a short prompt
	// suited for searchable records.
	var provider vision.Provider = vision.NewNone()
	if cfg.OpenAI.APIKey != "" {
		provider, err = vision.NewOpenAI(vision.OpenAIConfig{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.Model,
			Prompt:         vision.ConcisePrompt,
			MaxTokens:      cfg.OpenAI.MaxTokens,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		})
		if err != nil {
			return fmt.Errorf("init vision provider: %w", err)
		}
	} else {
		logger.Warn("no openai api key configured; uploads without descriptions will be rejected")
	}

	var answerer server.Answerer
	if cfg.OpenAI.APIKey != "" {
		engine, err := query.New(query.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.Query.Model,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		})
		if err != nil {
			return fmt.Errorf("init query engine: %w", err)
		}
		answerer = engine
	}

	srv, err := server.New(cfg, st, provider, answerer, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	defer srv.Stop()

	<-signalCtx.Done()
	logger.Info("content server shutting down")
	return nil
}
