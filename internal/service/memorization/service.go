// Package memorization implements verse memorization tracking: marking a
// verse with a confidence label, scheduling the next review with SM-2 and
// the derived progress, streak and calendar views.
package memorization

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/memorization/sm2"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type progressRepo interface {
	Create(ctx context.Context, p domain.MemorizationProgress) (domain.MemorizationProgress, error)
	ApplyReview(ctx context.Context, id string, u domain.ReviewUpdate) (domain.MemorizationProgress, error)
	GetByVerseKey(ctx context.Context, verseKey string) (domain.MemorizationProgress, error)
	List(ctx context.Context, filter domain.ProgressFilter) ([]domain.MemorizationProgress, error)
	CountDue(ctx context.Context, now time.Time) (int, error)
}

type reviewLogRepo interface {
	Create(ctx context.Context, e domain.ReviewLogEntry) (domain.ReviewLogEntry, error)
	GetByPeriod(ctx context.Context, from, to time.Time) ([]domain.ReviewLogEntry, error)
	ReviewTimesSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

type settingsRepo interface {
	Get(ctx context.Context) (domain.Settings, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the memorization business logic.
type Service struct {
	progress progressRepo
	reviews  reviewLogRepo
	settings settingsRepo
	tx       txManager
	log      *slog.Logger
	sched    sm2.Config
	loc      *time.Location
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone used for day boundaries when settings do
// not name one.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithScheduler overrides the SM-2 ease bounds.
func WithScheduler(cfg sm2.Config) Option {
	return func(s *Service) { s.sched = cfg }
}

// NewService creates a new memorization service.
func NewService(
	log *slog.Logger,
	progress progressRepo,
	reviews reviewLogRepo,
	settings settingsRepo,
	tx txManager,
	opts ...Option,
) *Service {
	s := &Service{
		progress: progress,
		reviews:  reviews,
		settings: settings,
		tx:       tx,
		log:      log.With("service", "memorization"),
		sched:    sm2.DefaultConfig(),
		loc:      time.Local,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
