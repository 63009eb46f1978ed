package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"slugline/internal/config"
	"slugline/internal/extractor"
	"slugline/internal/jobs"
	"slugline/internal/logging"
	"slugline/internal/quota"
	"slugline/internal/scripts"
)

// Service wires script uploads, job creation, and job queries over the
// shared stores. All operations run on behalf of a single user id that the
// transport layer has already authenticated.
type Service struct {
	cfg     *config.Config
	scripts *scripts.Store
	jobs    *jobs.Store
	ledger  *quota.Ledger
	logger  *slog.Logger
}

// NewService constructs the facade over the shared stores.
func NewService(cfg *config.Config, scriptStore *scripts.Store, jobStore *jobs.Store, ledger *quota.Ledger, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		scripts: scriptStore,
		jobs:    jobStore,
		ledger:  ledger,
		logger:  logging.WithComponent(logger, "api"),
	}
}

// CreateScript ingests and stores an uploaded document for the user.
func (s *Service) CreateScript(ctx context.Context, userID, title, filename string, data []byte) (*ScriptView, error) {
	if limit := int64(s.cfg.Parsing.MaxUploadMiB) * 1024 * 1024; limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes over the %d MiB limit", ErrUploadTooLarge, len(data), s.cfg.Parsing.MaxUploadMiB)
	}

	script, err := scripts.IngestFile(title, filename, data, userID, s.cfg.Parsing.WordsPerPage)
	if err != nil {
		return nil, err
	}

	if existing, err := s.scripts.FindByFingerprint(ctx, userID, script.Fingerprint); err == nil && existing != nil {
		s.logger.Info("duplicate upload",
			logging.String(logging.FieldUserID, userID),
			logging.String(logging.FieldScriptID, existing.ID),
		)
	}

	if err := s.scripts.Save(ctx, script); err != nil {
		return nil, err
	}

	s.logger.Info("script stored",
		logging.String(logging.FieldUserID, userID),
		logging.String(logging.FieldScriptID, script.ID),
		logging.Int("pages", script.PageCount),
	)
	view := FromScript(script)
	return &view, nil
}

// GetScript fetches one of the user's scripts.
func (s *Service) GetScript(ctx context.Context, userID, scriptID string) (*ScriptView, error) {
	script, err := s.scripts.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	if script.OwnerUserID != userID {
		return nil, ErrForbidden
	}
	view := FromScript(script)
	return &view, nil
}

// ListScripts returns the user's scripts, newest first.
func (s *Service) ListScripts(ctx context.Context, userID string) ([]ScriptView, error) {
	list, err := s.scripts.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromScripts(list), nil
}

// CreateJob validates the request and enqueues a pending parse job. The
// column selection must be a non-empty subset of the recognized columns;
// clients wanting everything send the full list. Validation failures surface
// before any job row exists: empty or unknown columns, missing scripts, and
// scripts owned by someone else never enqueue work.
func (s *Service) CreateJob(ctx context.Context, userID, scriptID string, selectedColumns []string) (*JobView, error) {
	columns, err := normalizeColumns(selectedColumns)
	if err != nil {
		return nil, err
	}

	script, err := s.scripts.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	if script.OwnerUserID != userID {
		return nil, ErrForbidden
	}

	if err := s.ledger.EnsureUser(ctx, userID, quota.TierFree); err != nil {
		return nil, err
	}

	job, err := s.jobs.Create(ctx, scriptID, userID, columns)
	if err != nil {
		return nil, err
	}

	s.logger.Info("job queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldScriptID, scriptID),
		logging.String(logging.FieldUserID, userID),
	)
	view := FromJob(job)
	return &view, nil
}

// GetJob fetches one of the user's jobs with its stored output.
func (s *Service) GetJob(ctx context.Context, userID string, jobID int64) (*JobView, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrForbidden
	}
	view := FromJob(job)
	return &view, nil
}

// ListJobs returns the user's jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, userID string) ([]JobView, error) {
	list, err := s.jobs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromJobs(list), nil
}

// Usage reports the user's quota position, creating the account on first use.
func (s *Service) Usage(ctx context.Context, userID string) (*UsageView, error) {
	if err := s.ledger.EnsureUser(ctx, userID, quota.TierFree); err != nil {
		return nil, err
	}
	usage, err := s.ledger.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := FromUsage(usage)
	return &view, nil
}

// SetTier changes a user's subscription tier, creating the account first if
// needed.
func (s *Service) SetTier(ctx context.Context, userID string, tier quota.Tier) error {
	if err := s.ledger.EnsureUser(ctx, userID, tier); err != nil {
		return err
	}
	return s.ledger.SetTier(ctx, userID, tier)
}

// Stats reports job counts by status for health summaries.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.jobs.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func normalizeColumns(selected []string) ([]string, error) {
	trimmed := make([]string, 0, len(selected))
	for _, name := range selected {
		if name = strings.TrimSpace(name); name != "" {
			trimmed = append(trimmed, name)
		}
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: no columns selected", ErrInvalidColumnSet)
	}

	columns, unknown := extractor.ParseColumns(trimmed)
	if len(unknown) > 0 {
		return nil, &InvalidColumnsError{Unknown: unknown}
	}
	return columns.Names(), nil
}
