package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"slugline/internal/config"
)

// Tier identifies a user's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

var (
	// ErrQuotaExceeded indicates a reservation would push committed plus held
	// pages past the user's ceiling.
	ErrQuotaExceeded = errors.New("page quota exceeded")
	// ErrUnknownUser indicates no ledger row exists for the user.
	ErrUnknownUser = errors.New("unknown user")
)

const schema = `
CREATE TABLE IF NOT EXISTS quota_accounts (
    user_id TEXT PRIMARY KEY,
    tier TEXT NOT NULL,
    used_pages INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);
`

// Usage is a snapshot of one user's ledger position.
type Usage struct {
	UserID        string
	Tier          Tier
	UsedPages     int
	ReservedPages int
	TotalPages    int
	Unlimited     bool
}

// Remaining reports pages still available before the ceiling, held
// reservations included. Unlimited accounts report -1.
func (u Usage) Remaining() int {
	if u.Unlimited {
		return -1
	}
	remaining := u.TotalPages - u.UsedPages - u.ReservedPages
	if remaining < 0 {
		return 0
	}
	return remaining
}

type userState struct {
	mu       sync.Mutex
	reserved int
}

// Ledger tracks committed usage in SQLite and outstanding holds in memory.
// Holds belong to the owning process; a restart drops them, which is safe
// because the jobs they backed are failed on reclaim.
type Ledger struct {
	db  *sql.DB
	cfg *config.Config

	mu    sync.Mutex
	users map[string]*userState
}

// Open initializes or connects to the quota table in the shared database.
func Open(cfg *config.Config) (*Ledger, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply quota schema: %w", err)
	}

	return &Ledger{
		db:    db,
		cfg:   cfg,
		users: make(map[string]*userState),
	}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// EnsureUser creates the ledger row for a user if it does not exist yet.
// Existing rows keep their tier and usage.
func (l *Ledger) EnsureUser(ctx context.Context, userID string, tier Tier) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id required")
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO quota_accounts (user_id, tier, used_pages, updated_at)
         VALUES (?, ?, 0, ?)
         ON CONFLICT(user_id) DO NOTHING`,
		userID,
		string(tier),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", userID, err)
	}
	return nil
}

// SetTier changes a user's tier. Usage already committed is kept.
func (l *Ledger) SetTier(ctx context.Context, userID string, tier Tier) error {
	res, err := l.db.ExecContext(
		ctx,
		`UPDATE quota_accounts SET tier = ?, updated_at = ? WHERE user_id = ?`,
		string(tier),
		time.Now().UTC().Format(time.RFC3339Nano),
		userID,
	)
	if err != nil {
		return fmt.Errorf("set tier for %s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set tier for %s: %w", userID, err)
	}
	if affected == 0 {
		return ErrUnknownUser
	}
	return nil
}

// Usage returns the user's current position, outstanding holds included.
func (l *Ledger) Usage(ctx context.Context, userID string) (Usage, error) {
	state := l.stateFor(userID)
	state.mu.Lock()
	defer state.mu.Unlock()
	return l.usageLocked(ctx, userID, state)
}

// Reserve places a hold for pages of full-parse output. It fails with
// ErrQuotaExceeded when committed usage plus existing holds plus the request
// would pass the user's ceiling. The returned reservation must be resolved
// with Commit or Release exactly once.
func (l *Ledger) Reserve(ctx context.Context, userID string, pages int) (*Reservation, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("reserve %d pages: page count must be positive", pages)
	}

	state := l.stateFor(userID)
	state.mu.Lock()
	defer state.mu.Unlock()

	usage, err := l.usageLocked(ctx, userID, state)
	if err != nil {
		return nil, err
	}
	if !usage.Unlimited && usage.UsedPages+state.reserved+pages > usage.TotalPages {
		return nil, fmt.Errorf("%w: %d used, %d held, %d requested, ceiling %d",
			ErrQuotaExceeded, usage.UsedPages, state.reserved, pages, usage.TotalPages)
	}

	state.reserved += pages
	return &Reservation{ledger: l, userID: userID, pages: pages}, nil
}

func (l *Ledger) stateFor(userID string) *userState {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.users[userID]
	if !ok {
		state = &userState{}
		l.users[userID] = state
	}
	return state
}

// usageLocked reads the persistent row. Callers hold the user's lock.
func (l *Ledger) usageLocked(ctx context.Context, userID string, state *userState) (Usage, error) {
	var (
		tier string
		used int
	)
	err := l.db.QueryRowContext(
		ctx,
		`SELECT tier, used_pages FROM quota_accounts WHERE user_id = ?`,
		userID,
	).Scan(&tier, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return Usage{}, ErrUnknownUser
	}
	if err != nil {
		return Usage{}, fmt.Errorf("read quota for %s: %w", userID, err)
	}

	ceiling := l.ceilingFor(Tier(tier))
	return Usage{
		UserID:        userID,
		Tier:          Tier(tier),
		UsedPages:     used,
		ReservedPages: state.reserved,
		TotalPages:    ceiling,
		Unlimited:     ceiling <= 0,
	}, nil
}

func (l *Ledger) ceilingFor(tier Tier) int {
	switch tier {
	case TierPremium:
		return l.cfg.Quota.PremiumTierPages
	default:
		return l.cfg.Quota.FreeTierPages
	}
}

// Reservation is an unresolved hold against a user's quota.
type Reservation struct {
	ledger   *Ledger
	userID   string
	pages    int
	resolved bool
	mu       sync.Mutex
}

// Pages reports the size of the hold.
func (r *Reservation) Pages() int {
	return r.pages
}

// Commit converts the hold into committed usage. Calling Commit or Release
// on an already resolved reservation is a no-op.
func (r *Reservation) Commit(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return nil
	}

	state := r.ledger.stateFor(r.userID)
	state.mu.Lock()
	defer state.mu.Unlock()

	_, err := r.ledger.db.ExecContext(
		ctx,
		`UPDATE quota_accounts SET used_pages = used_pages + ?, updated_at = ? WHERE user_id = ?`,
		r.pages,
		time.Now().UTC().Format(time.RFC3339Nano),
		r.userID,
	)
	if err != nil {
		return fmt.Errorf("commit %d pages for %s: %w", r.pages, r.userID, err)
	}

	state.reserved -= r.pages
	r.resolved = true
	return nil
}

// Release drops the hold without charging the user.
func (r *Reservation) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return
	}

	state := r.ledger.stateFor(r.userID)
	state.mu.Lock()
	state.reserved -= r.pages
	state.mu.Unlock()

	r.resolved = true
}
