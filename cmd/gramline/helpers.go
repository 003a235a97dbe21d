package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"gramline/internal/caption"
	"gramline/internal/config"
	"gramline/internal/history"
	"gramline/internal/instaweb"
	"gramline/internal/library"
	"gramline/internal/publisher"
	"gramline/internal/session"
	"gramline/internal/workflow"
)

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// acquireRunLock takes the single-instance lock, returning a release func.
func acquireRunLock(cfg *config.Config) (func(), error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another gramline instance is already running (lock %s)", cfg.LockPath())
	}
	return func() { _ = lock.Unlock() }, nil
}

// buildRunner wires the full posting pipeline from configuration. The
// returned cleanup closes the history ledger.
func buildRunner(cfg *config.Config, logger *slog.Logger) (*workflow.Runner, *history.Store, func(), error) {
	client := instaweb.NewClient(clientOptions(cfg)...)
	provider := session.NewProvider(cfg, client, logger)
	pub := publisher.New(client, cfg.Workflow.Hashtags, logger)

	enhancer, err := caption.NewOpenAIEnhancer(cfg.Enhancement)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("configure caption enhancement: %w", err)
	}

	ledger, err := history.Open(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open history ledger: %w", err)
	}

	lib := library.New(cfg.Paths.ContentDir, cfg.Workflow.ImageExtensions)
	opts := []workflow.RunnerOption{workflow.WithRecorder(ledger)}
	if enhancer != nil {
		opts = append(opts, workflow.WithEnhancer(enhancer))
	}
	runner := workflow.NewRunner(cfg, lib, provider, pub, logger, opts...)

	cleanup := func() { _ = ledger.Close() }
	return runner, ledger, cleanup, nil
}

func clientOptions(cfg *config.Config) []instaweb.Option {
	var opts []instaweb.Option
	if cfg.Instagram.BaseURL != "" {
		opts = append(opts, instaweb.WithBaseURL(cfg.Instagram.BaseURL))
	}
	if cfg.Instagram.TimeoutSeconds > 0 {
		opts = append(opts, instaweb.WithHTTPClient(instaweb.NewHTTPClient(time.Duration(cfg.Instagram.TimeoutSeconds)*time.Second)))
	}
	return opts
}
