package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"slugline/internal/config"
	"slugline/internal/logging"
	"slugline/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	manager  *workflow.Manager
	handler  http.Handler
	server   *http.Server
	listener net.Listener

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon around an HTTP handler and a workflow manager.
func New(cfg *config.Config, logger *slog.Logger, manager *workflow.Manager, handler http.Handler) (*Daemon, error) {
	if cfg == nil || manager == nil || handler == nil {
		return nil, errors.New("daemon requires config, workflow manager, and handler")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		manager:  manager,
		handler:  handler,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, starts the workflow manager, and begins
// serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another slugline instance is already running (lock %s)", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.manager.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel

	listener, err := net.Listen("tcp", d.cfg.Paths.APIBind)
	if err != nil {
		d.manager.Stop()
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("bind %s: %w", d.cfg.Paths.APIBind, err)
	}
	d.listener = listener
	server := &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	d.server = server

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			d.logger.Error("api server stopped", logging.Error(serveErr))
		}
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("bind", listener.Addr().String()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Addr reports the bound API address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Running reports whether the daemon lifecycle is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Stop shuts the API server down, stops background processing, and releases
// the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("api server shutdown", logging.Error(err))
		}
		cancel()
		d.server = nil
		d.listener = nil
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.Stop()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}
