package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"slugline/internal/config"
	"slugline/internal/extractor"
	"slugline/internal/jobs"
	"slugline/internal/logging"
	"slugline/internal/quota"
	"slugline/internal/scripts"
)

// Manager coordinates background processing of parse jobs.
type Manager struct {
	cfg     *config.Config
	store   *jobs.Store
	scripts *scripts.Store
	ledger  *quota.Ledger
	logger  *slog.Logger

	pollInterval      time.Duration
	retryInterval     time.Duration
	processingTimeout time.Duration
	workers           *semaphore.Weighted

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight map[int64]struct{}
}

// NewManager constructs a workflow manager over the shared stores.
func NewManager(cfg *config.Config, store *jobs.Store, scriptStore *scripts.Store, ledger *quota.Ledger, logger *slog.Logger) *Manager {
	workerCount := cfg.Workflow.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}
	return &Manager{
		cfg:               cfg,
		store:             store,
		scripts:           scriptStore,
		ledger:            ledger,
		logger:            logging.WithComponent(logger, "workflow"),
		pollInterval:      time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval:     time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		processingTimeout: time.Duration(cfg.Workflow.ProcessingTimeout) * time.Second,
		workers:           semaphore.NewWeighted(int64(workerCount)),
		inFlight:          make(map[int64]struct{}),
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight jobs.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the manager loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// ActiveJobs reports how many jobs are currently being processed.
func (m *Manager) ActiveJobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight)
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimed, err := m.store.ReclaimStale(ctx, m.processingTimeout); err != nil {
			m.logger.Warn("reclaim stale jobs failed; stuck jobs may remain", logging.Error(err))
		} else if reclaimed > 0 {
			m.logger.Info("reclaimed stale processing jobs", logging.Int64("count", reclaimed))
		}

		if err := m.workers.Acquire(ctx, 1); err != nil {
			return
		}

		job, err := m.store.NextPending(ctx)
		if err != nil {
			m.workers.Release(1)
			m.logger.Error("poll pending jobs failed", logging.Error(err))
			m.sleep(ctx, m.retryInterval)
			continue
		}
		if job == nil {
			m.workers.Release(1)
			m.sleep(ctx, m.pollInterval)
			continue
		}

		claimed, err := m.store.MarkProcessing(ctx, job.ID)
		if err != nil {
			m.workers.Release(1)
			m.logger.Error("claim job failed", logging.Int64(logging.FieldJobID, job.ID), logging.Error(err))
			m.sleep(ctx, m.retryInterval)
			continue
		}
		if !claimed {
			m.workers.Release(1)
			continue
		}

		m.track(job.ID)
		m.wg.Add(1)
		go func(job *jobs.Job) {
			defer m.wg.Done()
			defer m.workers.Release(1)
			defer m.untrack(job.ID)
			m.processJob(ctx, job)
		}(job)
	}
}

func (m *Manager) track(id int64) {
	m.mu.Lock()
	m.inFlight[id] = struct{}{}
	m.mu.Unlock()
}

func (m *Manager) untrack(id int64) {
	m.mu.Lock()
	delete(m.inFlight, id)
	m.mu.Unlock()
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// processJob runs one claimed job to a terminal state. Failures settle the
// job record; only unexpected store errors are left for the stale reclaimer.
func (m *Manager) processJob(ctx context.Context, job *jobs.Job) {
	logger := m.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldScriptID, job.ScriptID),
		logging.String(logging.FieldUserID, job.UserID),
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job processing panicked", logging.Any("panic", r))
			m.failJob(ctx, logger, job.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	logger.Info("processing job")

	script, err := m.scripts.GetByID(ctx, job.ScriptID)
	if err != nil {
		m.failJob(ctx, logger, job.ID, "script not found")
		return
	}

	columns, unknown := extractor.ParseColumns(job.SelectedColumns)
	if len(unknown) > 0 {
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("invalid column selection: %v", unknown))
		return
	}

	// The capped preview pass is quota-free and settles before any quota
	// check, so an exhausted user still gets a bounded look at the result.
	preview, _, err := extractor.Extract(script.Content, extractor.Options{
		MaxScenes: m.cfg.Parsing.PreviewSceneLimit,
	})
	if errors.Is(err, extractor.ErrNoScenes) {
		m.failJob(ctx, logger, job.ID, "unparsable document: no scene headings found")
		return
	}
	if err != nil {
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	previewJSON, err := json.Marshal(extractor.ProjectAll(preview, columns))
	if err != nil {
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("encode preview: %v", err))
		return
	}
	if err := m.store.SetPreview(ctx, job.ID, string(previewJSON)); err != nil {
		logger.Error("store preview failed", logging.Error(err))
		return
	}

	// Reserve before the full pass: an over-quota job never pays for a
	// full-document extraction.
	reservation, err := m.ledger.Reserve(ctx, job.UserID, script.PageCount)
	if errors.Is(err, quota.ErrQuotaExceeded) {
		logger.Info("quota exhausted", logging.Int("pages", script.PageCount))
		m.failJob(ctx, logger, job.ID, "quota exceeded")
		return
	}
	if err != nil {
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("reserve quota: %v", err))
		return
	}

	scenes, warnings, err := extractor.Extract(script.Content, extractor.Options{})
	if err != nil {
		reservation.Release()
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	for _, warning := range warnings {
		logger.Warn("extraction warning", logging.String("detail", warning))
	}

	fullJSON, err := json.Marshal(extractor.ProjectAll(scenes, columns))
	if err != nil {
		reservation.Release()
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("encode output: %v", err))
		return
	}

	if err := m.store.Complete(ctx, job.ID, string(fullJSON), reservation.Pages()); err != nil {
		reservation.Release()
		logger.Error("complete job failed", logging.Error(err))
		return
	}
	if err := reservation.Commit(ctx); err != nil {
		logger.Error("commit quota failed after completion", logging.Error(err))
	}

	logger.Info("job completed",
		logging.Int("scenes", len(scenes)),
		logging.Int("pages_charged", reservation.Pages()),
	)
}

func (m *Manager) failJob(ctx context.Context, logger *slog.Logger, id int64, reason string) {
	if err := m.store.Fail(ctx, id, reason); err != nil {
		logger.Error("mark job failed errored", logging.Error(err))
		return
	}
	logger.Info("job failed", logging.String("reason", reason))
}
