// Package sync drives the push/pull cycle between the local store and the
// cloud adapter and merges the pulled snapshot with last-writer-wins rules.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/domain"
)

var (
	// ErrSyncInProgress is returned when a cycle is already running. The
	// trigger is dropped, not queued.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNotSignedIn is returned when no user is signed in or sync is
	// disabled by configuration.
	ErrNotSignedIn = errors.New("sync: not signed in")
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type bookmarkRepo interface {
	List(ctx context.Context, filter domain.BookmarkFilter) ([]domain.Bookmark, error)
	Put(ctx context.Context, b domain.Bookmark) error
	Delete(ctx context.Context, id string) error
	MarkClean(ctx context.Context, id string, version int64) (bool, error)
}

type progressRepo interface {
	List(ctx context.Context, filter domain.ProgressFilter) ([]domain.MemorizationProgress, error)
	Put(ctx context.Context, p domain.MemorizationProgress) error
	Delete(ctx context.Context, id string) error
	MarkClean(ctx context.Context, id string, version int64) (bool, error)
}

type readingRepo interface {
	List(ctx context.Context, filter domain.ReadingFilter) ([]domain.ReadingHistoryEntry, error)
	Put(ctx context.Context, e domain.ReadingHistoryEntry) error
	Delete(ctx context.Context, id string) error
	MarkClean(ctx context.Context, id string, version int64) (bool, error)
}

type settingsRepo interface {
	Get(ctx context.Context) (domain.Settings, error)
	Put(ctx context.Context, s domain.Settings) error
	MarkClean(ctx context.Context, version int64) (bool, error)
}

type outboxRepo interface {
	List(ctx context.Context) ([]domain.PendingDeletion, error)
	Remove(ctx context.Context, id string) error
}

type collections interface {
	EnsureDefaultCollection(ctx context.Context) (domain.Collection, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores groups the local repositories the coordinator reads and merges into.
type Stores struct {
	Bookmarks   bookmarkRepo
	Progress    progressRepo
	Reading     readingRepo
	Settings    settingsRepo
	Outbox      outboxRepo
	Collections collections
	Tx          txManager
}

// ---------------------------------------------------------------------------
// Coordinator
// ---------------------------------------------------------------------------

// Coordinator owns the sync state and runs at most one cycle at a time.
type Coordinator struct {
	cloud  cloud.Adapter
	stores Stores
	cfg    config.SyncConfig
	log    *slog.Logger
	now    func() time.Time

	running atomic.Bool
	online  atomic.Bool

	mu         gosync.Mutex
	state      domain.SyncState
	userID     string
	session    context.Context
	endSession context.CancelFunc
	wg         gosync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the wall clock used for LastSyncAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a coordinator. It starts signed out; call Init and
// then SignIn.
func NewCoordinator(log *slog.Logger, adapter cloud.Adapter, stores Stores, cfg config.SyncConfig, opts ...Option) *Coordinator {
	c := &Coordinator{
		cloud:  adapter,
		stores: stores,
		cfg:    cfg,
		log:    log.With("service", "sync"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.online.Store(true)
	c.state.Status = domain.SyncStatusDisabled
	return c
}

// Init resets the state container. Safe to call once per process start.
func (c *Coordinator) Init(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = domain.SyncState{Status: domain.SyncStatusDisabled}
}

// Teardown signs out and waits for background cycles and the timer to stop.
func (c *Coordinator) Teardown() {
	c.SignOut()
}

// State returns a copy of the current sync state.
func (c *Coordinator) State() domain.SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SignIn binds the coordinator to userID, starts the periodic timer once
// per session and triggers a first cycle.
func (c *Coordinator) SignIn(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.NewValidationError("user_id", "required")
	}

	c.mu.Lock()
	c.userID = userID
	if !c.cfg.Enabled {
		c.state.Status = domain.SyncStatusDisabled
		c.mu.Unlock()
		return nil
	}
	if c.session == nil {
		c.session, c.endSession = context.WithCancel(context.WithoutCancel(ctx))
		if c.cfg.Interval > 0 {
			c.wg.Add(1)
			go c.loop(c.session, c.cfg.Interval)
		}
	}
	c.state.Status = domain.SyncStatusIdle
	c.mu.Unlock()

	c.log.InfoContext(ctx, "signed in", slog.String("user_id", userID))
	c.Trigger(ctx)
	return nil
}

// Attach binds the coordinator to userID without starting the timer or a
// first cycle. Callers drive cycles with SyncNow.
func (c *Coordinator) Attach(userID string) error {
	if userID == "" {
		return domain.NewValidationError("user_id", "required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	if c.cfg.Enabled {
		c.state.Status = domain.SyncStatusIdle
	} else {
		c.state.Status = domain.SyncStatusDisabled
	}
	return nil
}

// SignOut stops the timer, waits for in-flight background cycles and marks
// sync disabled.
func (c *Coordinator) SignOut() {
	c.mu.Lock()
	if c.endSession != nil {
		c.endSession()
	}
	c.session, c.endSession = nil, nil
	c.userID = ""
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	c.state.Status = domain.SyncStatusDisabled
	c.mu.Unlock()
}

// SetOnline records connectivity. Going from offline to online triggers a
// cycle.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) {
	was := c.online.Swap(online)
	if !online {
		c.mu.Lock()
		if c.state.Status != domain.SyncStatusSyncing && c.userID != "" {
			c.state.Status = domain.SyncStatusOffline
		}
		c.mu.Unlock()
		return
	}
	if !was {
		c.Trigger(ctx)
	}
}

// Trigger starts a cycle in the background. It is a no-op when signed out
// or when a cycle is already running.
func (c *Coordinator) Trigger(ctx context.Context) {
	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if err := c.SyncNow(session); err != nil && !errors.Is(err, ErrSyncInProgress) {
			c.log.DebugContext(ctx, "background sync finished with error", slog.String("error", err.Error()))
		}
	}()
}

func (c *Coordinator) loop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.SyncNow(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
				c.log.DebugContext(ctx, "periodic sync finished with error", slog.String("error", err.Error()))
			}
		}
	}
}

// SyncNow runs one cycle and returns its outcome. The state container
// reflects the result either way.
func (c *Coordinator) SyncNow(ctx context.Context) error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()
	if userID == "" || !c.cfg.Enabled {
		return ErrNotSignedIn
	}

	if !c.running.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer c.running.Store(false)

	if !c.online.Load() {
		c.setStatus(domain.SyncStatusOffline)
		return domain.ErrOffline
	}
	c.setStatus(domain.SyncStatusSyncing)

	if c.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CycleTimeout)
		defer cancel()
	}

	start := time.Now()
	items, err := c.cycle(ctx, userID)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	at := c.now()
	c.mu.Lock()
	c.state = domain.SyncState{
		LastSyncAt:  &at,
		Status:      domain.SyncStatusSuccess,
		ItemsSynced: items,
	}
	c.mu.Unlock()

	c.log.InfoContext(ctx, "sync completed",
		slog.String("user_id", userID),
		slog.Int("items", items),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Coordinator) cycle(ctx context.Context, userID string) (int, error) {
	rc, err := c.push(ctx, userID)
	if err != nil {
		return 0, err
	}

	snap, err := c.cloud.FetchSnapshot(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("fetch snapshot: %w", err)
	}

	var changed int
	err = c.stores.Tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := c.merge(ctx, snap)
		if err != nil {
			return err
		}
		changed = n
		return c.acknowledge(ctx, rc)
	})
	if err != nil {
		return 0, fmt.Errorf("merge snapshot: %w", err)
	}
	return rc.pushed + changed, nil
}

func (c *Coordinator) setStatus(s domain.SyncStatus) {
	c.mu.Lock()
	c.state.Status = s
	c.mu.Unlock()
}

// fail records err in the state. Dirty flags are untouched so the next
// cycle retries the same records.
func (c *Coordinator) fail(ctx context.Context, err error) {
	c.mu.Lock()
	c.state.Status = domain.SyncStatusError
	c.state.LastError = err.Error()
	c.state.ItemsSynced = 0
	c.mu.Unlock()

	level := slog.LevelWarn
	if errors.Is(err, domain.ErrStorage) {
		level = slog.LevelError
	}
	c.log.Log(ctx, level, "sync failed", slog.String("error", err.Error()))
}
