package cloud

import (
	"context"
	"time"

	"github.com/heartmarshall/tilawah/internal/memo"
)

// Coalescing wraps an Adapter so concurrent FetchSnapshot calls for the
// same user share one request. Pushes pass through and invalidate the
// user's entry.
type Coalescing struct {
	Adapter
	snapshots *memo.Group[Snapshot]
}

// NewCoalescing wraps next. ttl > 0 also reuses a fetched snapshot for
// that long.
func NewCoalescing(next Adapter, ttl time.Duration) *Coalescing {
	return &Coalescing{Adapter: next, snapshots: memo.New[Snapshot](ttl)}
}

// FetchSnapshot implements Adapter.
func (c *Coalescing) FetchSnapshot(ctx context.Context, userID string) (Snapshot, error) {
	snap, _, err := c.snapshots.Do(ctx, userID, func(ctx context.Context) (Snapshot, error) {
		return c.Adapter.FetchSnapshot(ctx, userID)
	})
	return snap, err
}

// PushBookmarks implements Adapter.
func (c *Coalescing) PushBookmarks(ctx context.Context, userID string, bookmarks []Bookmark) error {
	defer c.snapshots.Forget(userID)
	return c.Adapter.PushBookmarks(ctx, userID, bookmarks)
}

// DeleteBookmark implements Adapter.
func (c *Coalescing) DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error {
	defer c.snapshots.Forget(userID)
	return c.Adapter.DeleteBookmark(ctx, userID, surahID, ayahNumber)
}

// PushMemorization implements Adapter.
func (c *Coalescing) PushMemorization(ctx context.Context, userID string, items []MemorizationItem) error {
	defer c.snapshots.Forget(userID)
	return c.Adapter.PushMemorization(ctx, userID, items)
}

// PushReadingProgress implements Adapter.
func (c *Coalescing) PushReadingProgress(ctx context.Context, userID string, progress []ReadingProgress) error {
	defer c.snapshots.Forget(userID)
	return c.Adapter.PushReadingProgress(ctx, userID, progress)
}

// PushSettings implements Adapter.
func (c *Coalescing) PushSettings(ctx context.Context, userID string, settings Settings) error {
	defer c.snapshots.Forget(userID)
	return c.Adapter.PushSettings(ctx, userID, settings)
}
