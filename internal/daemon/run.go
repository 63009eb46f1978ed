package daemon

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"slugline/internal/api"
	"slugline/internal/config"
	"slugline/internal/httpapi"
	"slugline/internal/jobs"
	"slugline/internal/logging"
	"slugline/internal/quota"
	"slugline/internal/scripts"
	"slugline/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the slugline daemon and blocks until the context is cancelled
// or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "slugline.log")},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	scriptStore, err := scripts.Open(cfg)
	if err != nil {
		return fmt.Errorf("open script store: %w", err)
	}
	defer scriptStore.Close()

	jobStore, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer jobStore.Close()

	ledger, err := quota.Open(cfg)
	if err != nil {
		return fmt.Errorf("open quota ledger: %w", err)
	}
	defer ledger.Close()

	manager := workflow.NewManager(cfg, jobStore, scriptStore, ledger, logger)
	service := api.NewService(cfg, scriptStore, jobStore, ledger, logger)
	handler := httpapi.NewHandler(httpapi.Deps{Service: service, Workflow: manager})

	d, err := New(cfg, logger, manager, handler)
	if err != nil {
		return err
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("shutdown signal received")
	return nil
}
