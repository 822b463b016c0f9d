// Package dataloader provides scoped DataLoaders that batch per-verse
// lookups (bookmarks, memorization progress) into single SQL calls when a
// command renders many verses at once.
package dataloader

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/tilawah/internal/domain"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

// ---------------------------------------------------------------------------
// Repository interfaces (consumer-defined)
// ---------------------------------------------------------------------------

type bookmarkRepo interface {
	ListByVerseKeys(ctx context.Context, verseKeys []string) ([]domain.Bookmark, error)
}

type progressRepo interface {
	ListByVerseKeys(ctx context.Context, verseKeys []string) ([]domain.MemorizationProgress, error)
}

// Repos holds the repositories required by the loaders.
type Repos struct {
	Bookmark bookmarkRepo
	Progress progressRepo
}

// ---------------------------------------------------------------------------
// Loaders
// ---------------------------------------------------------------------------

// Loaders holds one scope's DataLoader instances. Results are cached for
// the lifetime of the scope, so create a fresh set per command or request.
type Loaders struct {
	BookmarksByVerseKey *dataloader.Loader[string, []domain.Bookmark]
	ProgressByVerseKey  *dataloader.Loader[string, *domain.MemorizationProgress]
}

// NewLoaders creates a new set of DataLoaders backed by the given repositories.
func NewLoaders(repos *Repos) *Loaders {
	return &Loaders{
		BookmarksByVerseKey: newLoader(newBookmarksBatchFn(repos.Bookmark)),
		ProgressByVerseKey:  newLoader(newProgressBatchFn(repos.Progress)),
	}
}

func newLoader[V any](batchFn dataloader.BatchFunc[string, V]) *dataloader.Loader[string, V] {
	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithWait[string, V](wait),
		dataloader.WithBatchCapacity[string, V](maxBatch),
	)
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type contextKey string

const loadersKey contextKey = "dataloaders"

// WithLoaders stores Loaders in the context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

// Scope returns ctx carrying a fresh set of loaders.
func Scope(ctx context.Context, repos *Repos) context.Context {
	return WithLoaders(ctx, NewLoaders(repos))
}

// FromContext retrieves Loaders from the context.
func FromContext(ctx context.Context) (*Loaders, bool) {
	l, ok := ctx.Value(loadersKey).(*Loaders)
	return l, ok && l != nil
}
