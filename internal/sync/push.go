package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// versioned identifies a record as it was when pushed.
type versioned struct {
	id      string
	version int64
}

// receipt lists what one cycle pushed, so the records can be marked clean
// after the merge if nobody touched them in between.
type receipt struct {
	pushed    int
	bookmarks []versioned
	progress  []versioned
	reading   []versioned
	settings  *int64
	deletions []string
}

var dirtyOnly = func() *bool { b := true; return &b }()

// push sends every locally dirty record and queued delete. Nothing is
// written locally here; a failure leaves the store exactly as it was.
func (c *Coordinator) push(ctx context.Context, userID string) (receipt, error) {
	var rc receipt

	if err := c.pushDeletions(ctx, userID, &rc); err != nil {
		return rc, err
	}
	if err := c.pushBookmarks(ctx, userID, &rc); err != nil {
		return rc, err
	}
	if err := c.pushMemorization(ctx, userID, &rc); err != nil {
		return rc, err
	}
	if err := c.pushReading(ctx, userID, &rc); err != nil {
		return rc, err
	}
	if err := c.pushSettings(ctx, userID, &rc); err != nil {
		return rc, err
	}
	return rc, nil
}

func (c *Coordinator) pushDeletions(ctx context.Context, userID string, rc *receipt) error {
	pending, err := c.stores.Outbox.List(ctx)
	if err != nil {
		return fmt.Errorf("list pending deletions: %w", err)
	}
	for _, d := range pending {
		if err := c.cloud.DeleteBookmark(ctx, userID, d.ChapterID, d.VerseNumber); err != nil {
			return fmt.Errorf("delete bookmark %s: %w", domain.VerseKey(d.ChapterID, d.VerseNumber), err)
		}
		rc.deletions = append(rc.deletions, d.ID)
		rc.pushed++
	}
	return nil
}

func (c *Coordinator) pushBookmarks(ctx context.Context, userID string, rc *receipt) error {
	all, err := c.stores.Bookmarks.List(ctx, domain.BookmarkFilter{})
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}

	var batch []cloud.Bookmark
	for _, g := range groupBookmarks(all) {
		if !g.dirty() {
			continue
		}
		batch = append(batch, bookmarkToCloud(g))
		for _, b := range g.members {
			if b.Dirty {
				rc.bookmarks = append(rc.bookmarks, versioned{b.ID, b.Version})
			}
		}
	}
	if len(batch) == 0 {
		return nil
	}

	if err := c.cloud.PushBookmarks(ctx, userID, batch); err != nil {
		return fmt.Errorf("push bookmarks: %w", err)
	}
	rc.pushed += len(batch)
	c.log.DebugContext(ctx, "bookmarks pushed", slog.Int("count", len(batch)))
	return nil
}

func (c *Coordinator) pushMemorization(ctx context.Context, userID string, rc *receipt) error {
	dirty, err := c.stores.Progress.List(ctx, domain.ProgressFilter{Dirty: dirtyOnly})
	if err != nil {
		return fmt.Errorf("list dirty progress: %w", err)
	}
	if len(dirty) == 0 {
		return nil
	}
	all, err := c.stores.Progress.List(ctx, domain.ProgressFilter{})
	if err != nil {
		return fmt.Errorf("list progress: %w", err)
	}

	items := memorizationItems(dirty, all)
	if err := c.cloud.PushMemorization(ctx, userID, items); err != nil {
		return fmt.Errorf("push memorization: %w", err)
	}
	for _, p := range dirty {
		rc.progress = append(rc.progress, versioned{p.ID, p.Version})
	}
	rc.pushed += len(dirty)
	c.log.DebugContext(ctx, "memorization pushed",
		slog.Int("chapters", len(items)),
		slog.Int("verses", len(dirty)),
	)
	return nil
}

func (c *Coordinator) pushReading(ctx context.Context, userID string, rc *receipt) error {
	dirty, err := c.stores.Reading.List(ctx, domain.ReadingFilter{Dirty: dirtyOnly})
	if err != nil {
		return fmt.Errorf("list dirty reading: %w", err)
	}
	if len(dirty) == 0 {
		return nil
	}

	batch := make([]cloud.ReadingProgress, 0, len(dirty))
	for _, e := range dirty {
		batch = append(batch, readingToCloud(e))
	}
	if err := c.cloud.PushReadingProgress(ctx, userID, batch); err != nil {
		return fmt.Errorf("push reading progress: %w", err)
	}
	for _, e := range dirty {
		rc.reading = append(rc.reading, versioned{e.ID, e.Version})
	}
	rc.pushed += len(dirty)
	return nil
}

func (c *Coordinator) pushSettings(ctx context.Context, userID string, rc *receipt) error {
	s, err := c.stores.Settings.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}
	if !s.Dirty {
		return nil
	}

	if err := c.cloud.PushSettings(ctx, userID, settingsToCloud(s)); err != nil {
		return fmt.Errorf("push settings: %w", err)
	}
	v := s.Version
	rc.settings = &v
	rc.pushed++
	return nil
}

// acknowledge clears dirty flags of pushed records whose version did not
// move and drops delivered deletes. Runs inside the merge transaction.
func (c *Coordinator) acknowledge(ctx context.Context, rc receipt) error {
	for _, v := range rc.bookmarks {
		if _, err := c.stores.Bookmarks.MarkClean(ctx, v.id, v.version); err != nil {
			return fmt.Errorf("mark bookmark clean: %w", err)
		}
	}
	for _, v := range rc.progress {
		if _, err := c.stores.Progress.MarkClean(ctx, v.id, v.version); err != nil {
			return fmt.Errorf("mark progress clean: %w", err)
		}
	}
	for _, v := range rc.reading {
		if _, err := c.stores.Reading.MarkClean(ctx, v.id, v.version); err != nil {
			return fmt.Errorf("mark reading clean: %w", err)
		}
	}
	if rc.settings != nil {
		if _, err := c.stores.Settings.MarkClean(ctx, *rc.settings); err != nil {
			return fmt.Errorf("mark settings clean: %w", err)
		}
	}
	for _, id := range rc.deletions {
		if err := c.stores.Outbox.Remove(ctx, id); err != nil {
			return fmt.Errorf("remove pending deletion: %w", err)
		}
	}
	return nil
}
