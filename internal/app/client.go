package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/adapter/cloud/httpclient"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	bookmarkrepo "github.com/heartmarshall/tilawah/internal/adapter/sqlite/bookmark"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/collection"
	memorepo "github.com/heartmarshall/tilawah/internal/adapter/sqlite/memorization"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/outbox"
	readingrepo "github.com/heartmarshall/tilawah/internal/adapter/sqlite/reading"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/reviewlog"
	settingsrepo "github.com/heartmarshall/tilawah/internal/adapter/sqlite/settings"
	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/dataloader"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/library"
	"github.com/heartmarshall/tilawah/internal/service/memorization"
	"github.com/heartmarshall/tilawah/internal/service/memorization/sm2"
	"github.com/heartmarshall/tilawah/internal/service/reading"
	"github.com/heartmarshall/tilawah/internal/service/settings"
	"github.com/heartmarshall/tilawah/internal/sync"
)

// snapshotReuse is how long a fetched snapshot is shared between callers.
const snapshotReuse = 5 * time.Second

// Client is the application state container of the offline-first client.
// It owns the local database, the domain services and the sync coordinator.
type Client struct {
	Library      *library.Service
	Memorization *memorization.Service
	Reading      *reading.Service
	Settings     *settings.Service
	Sync         *sync.Coordinator

	cfg     *config.Config
	db      *sql.DB
	probe   pinger
	loaders *dataloader.Repos
	now     sqlite.Clock
	log     *slog.Logger
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ClientOption customizes NewClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	adapter cloud.Adapter
	clock   sqlite.Clock
}

// WithAdapter replaces the HTTP cloud client, e.g. with an in-process backend.
func WithAdapter(a cloud.Adapter) ClientOption {
	return func(o *clientOptions) { o.adapter = a }
}

// WithClock overrides the time source of every store and service.
func WithClock(now func() time.Time) ClientOption {
	return func(o *clientOptions) { o.clock = now }
}

// NewClient opens and migrates the local store and wires the services.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	o := clientOptions{clock: sqlite.SystemClock}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sqlite.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	tx := sqlite.NewTxManager(db)
	collections := collection.New(db, o.clock)
	bookmarks := bookmarkrepo.New(db, o.clock)
	pending := outbox.New(db, o.clock)
	progress := memorepo.New(db, o.clock)
	history := readingrepo.New(db, o.clock)
	prefs := settingsrepo.New(db, o.clock)

	lib := library.NewService(logger, collections, bookmarks, pending, tx)

	adapter := o.adapter
	if adapter == nil {
		adapter = httpclient.New(cfg.Cloud)
	}

	probe, _ := adapter.(pinger)

	c := &Client{
		Library: lib,
		Memorization: memorization.NewService(logger, progress, reviewlog.New(db), prefs, tx,
			memorization.WithClock(o.clock),
			memorization.WithLocation(cfg.SRS.Location()),
			memorization.WithScheduler(sm2.Config{
				DefaultEaseFactor: cfg.SRS.DefaultEaseFactor,
				MinEaseFactor:     cfg.SRS.MinEaseFactor,
			}),
		),
		Reading:  reading.NewService(logger, history, o.clock),
		Settings: settings.NewService(logger, prefs),
		Sync: sync.NewCoordinator(logger, cloud.NewCoalescing(adapter, snapshotReuse), sync.Stores{
			Bookmarks:   bookmarks,
			Progress:    progress,
			Reading:     history,
			Settings:    prefs,
			Outbox:      pending,
			Collections: lib,
			Tx:          tx,
		}, cfg.Sync, sync.WithClock(o.clock)),
		cfg:     cfg,
		db:      db,
		loaders: &dataloader.Repos{Bookmark: bookmarks, Progress: progress},
		now:     o.clock,
		probe:   probe,
		log:     logger,
	}
	return c, nil
}

// Init seeds the default collection and binds the coordinator to the
// configured user. No background sync starts until Start.
func (c *Client) Init(ctx context.Context) error {
	if _, err := c.Library.EnsureDefaultCollection(ctx); err != nil {
		return fmt.Errorf("ensure default collection: %w", err)
	}
	c.Sync.Init(ctx)

	if c.cfg.Cloud.UserID == "" {
		return nil
	}
	if err := c.Sync.Attach(c.cfg.Cloud.UserID); err != nil {
		return fmt.Errorf("attach sync: %w", err)
	}
	return nil
}

// Start signs in, which runs a first cycle and starts the periodic timer.
func (c *Client) Start(ctx context.Context) error {
	if c.cfg.Cloud.UserID == "" {
		return sync.ErrNotSignedIn
	}
	if err := c.Sync.SignIn(ctx, c.cfg.Cloud.UserID); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

// Teardown stops background sync and closes the store.
func (c *Client) Teardown() error {
	c.Sync.Teardown()
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// CheckConnectivity probes the backend and feeds the result to the
// coordinator. Adapters without a probe are assumed reachable.
func (c *Client) CheckConnectivity(ctx context.Context) bool {
	online := true
	if c.probe != nil {
		if err := c.probe.Ping(ctx); err != nil {
			c.log.DebugContext(ctx, "backend unreachable", slog.String("error", err.Error()))
			online = false
		}
	}
	c.Sync.SetOnline(ctx, online)
	return online
}

// Scope returns ctx carrying fresh per-verse loaders, so rendering many
// verses batches their bookmark and progress lookups.
func (c *Client) Scope(ctx context.Context) context.Context {
	return dataloader.Scope(ctx, c.loaders)
}

// Dashboard gathers the home screen figures concurrently.
func (c *Client) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var d domain.Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.Memorization.CountDue(gctx)
		if err != nil {
			return fmt.Errorf("count due: %w", err)
		}
		d.DueCount = n
		return nil
	})
	g.Go(func() error {
		n, err := c.Memorization.GetStreak(gctx)
		if err != nil {
			return fmt.Errorf("streak: %w", err)
		}
		d.Streak = n
		return nil
	})
	g.Go(func() error {
		p, err := c.Memorization.GetTotalProgress(gctx)
		if err != nil {
			return fmt.Errorf("total progress: %w", err)
		}
		d.Progress = p
		return nil
	})
	g.Go(func() error {
		e, err := c.Reading.LastRead(gctx)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("last read: %w", err)
		}
		d.LastRead = &e
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, err
	}

	d.Sync = c.Sync.State()
	d.SyncLabel = d.Sync.Label(c.now())
	return d, nil
}
