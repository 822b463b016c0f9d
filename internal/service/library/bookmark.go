package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/tilawah/internal/dataloader"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// AddBookmark places a verse into a collection. Adding the same verse to
// the same collection twice fails with domain.ErrAlreadyExists.
func (s *Service) AddBookmark(ctx context.Context, input AddBookmarkInput) (domain.Bookmark, error) {
	if err := input.Validate(); err != nil {
		return domain.Bookmark{}, err
	}

	chapterID, verseNumber, _ := domain.ParseVerseKey(input.VerseKey)
	verseKey := domain.VerseKey(chapterID, verseNumber)

	var b domain.Bookmark
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.collections.GetByID(ctx, input.CollectionID); err != nil {
			return fmt.Errorf("get collection: %w", err)
		}

		_, err := s.bookmarks.GetByCollectionAndVerse(ctx, input.CollectionID, verseKey)
		if err == nil {
			return fmt.Errorf("bookmark %s in collection %s: %w", verseKey, input.CollectionID, domain.ErrAlreadyExists)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get bookmark: %w", err)
		}

		b, err = s.bookmarks.Create(ctx, domain.Bookmark{
			CollectionID: input.CollectionID,
			VerseKey:     verseKey,
			ChapterID:    chapterID,
			VerseNumber:  verseNumber,
			Note:         input.Note,
		})
		if err != nil {
			return fmt.Errorf("create bookmark: %w", err)
		}

		// A queued remote delete for this verse is now stale.
		if err := s.outbox.RemoveByVerse(ctx, chapterID, verseNumber); err != nil {
			return fmt.Errorf("drop queued delete: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.log.InfoContext(ctx, "bookmark added",
		slog.String("bookmark_id", b.ID),
		slog.String("collection_id", b.CollectionID),
		slog.String("verse_key", b.VerseKey),
	)
	return b, nil
}

// RemoveBookmark deletes a bookmark. When it was the verse's last
// bookmark, a remote delete is queued for the next sync.
func (s *Service) RemoveBookmark(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidationError("id", "required")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.bookmarks.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get bookmark: %w", err)
		}
		if err := s.bookmarks.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete bookmark: %w", err)
		}
		return s.queueDeleteIfOrphan(ctx, b.ChapterID, b.VerseNumber)
	})
}

// RemoveVerseFromCollection deletes the bookmark of verseKey in a collection.
func (s *Service) RemoveVerseFromCollection(ctx context.Context, collectionID, verseKey string) error {
	chapterID, verseNumber, err := domain.ParseVerseKey(verseKey)
	if err != nil {
		return err
	}

	b, err := s.bookmarks.GetByCollectionAndVerse(ctx, collectionID, domain.VerseKey(chapterID, verseNumber))
	if err != nil {
		return fmt.Errorf("get bookmark: %w", err)
	}
	return s.RemoveBookmark(ctx, b.ID)
}

// UpdateBookmarkNote sets or clears a bookmark's note.
func (s *Service) UpdateBookmarkNote(ctx context.Context, input UpdateNoteInput) (domain.Bookmark, error) {
	if err := input.Validate(); err != nil {
		return domain.Bookmark{}, err
	}

	patch := domain.BookmarkPatch{Note: input.Note, ClearNote: input.Note == nil}
	b, err := s.bookmarks.Update(ctx, input.BookmarkID, patch)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("update bookmark: %w", err)
	}
	return b, nil
}

// ReorderBookmarks sets the order of bookmarks within a collection.
func (s *Service) ReorderBookmarks(ctx context.Context, collectionID string, ids []string) error {
	if collectionID == "" {
		return domain.NewValidationError("collection_id", "required")
	}
	if err := validateIDs("ids", ids); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.bookmarks.SetSortOrders(ctx, collectionID, ids); err != nil {
			return fmt.Errorf("reorder bookmarks: %w", err)
		}
		return nil
	})
}

// ListBookmarks returns the bookmarks of a collection in display order.
func (s *Service) ListBookmarks(ctx context.Context, collectionID string) ([]domain.Bookmark, error) {
	if collectionID == "" {
		return nil, domain.NewValidationError("collection_id", "required")
	}
	if _, err := s.collections.GetByID(ctx, collectionID); err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	list, err := s.bookmarks.List(ctx, domain.BookmarkFilter{CollectionID: &collectionID})
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return list, nil
}

// GetBookmarkCollections returns the ids of every collection holding the
// verse. Lookups are batched when ctx carries dataloaders.
func (s *Service) GetBookmarkCollections(ctx context.Context, verseKey string) ([]string, error) {
	chapterID, verseNumber, err := domain.ParseVerseKey(verseKey)
	if err != nil {
		return nil, err
	}
	key := domain.VerseKey(chapterID, verseNumber)

	var bookmarks []domain.Bookmark
	if loaders, ok := dataloader.FromContext(ctx); ok {
		bookmarks, err = loaders.BookmarksByVerseKey.Load(ctx, key)()
	} else {
		bookmarks, err = s.bookmarks.ListByVerseKeys(ctx, []string{key})
	}
	if err != nil {
		return nil, fmt.Errorf("list bookmarks by verse: %w", err)
	}

	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.CollectionID)
	}
	return ids, nil
}

// IsVerseBookmarked reports whether any collection holds the verse.
func (s *Service) IsVerseBookmarked(ctx context.Context, verseKey string) (bool, error) {
	ids, err := s.GetBookmarkCollections(ctx, verseKey)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}
