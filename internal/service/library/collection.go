package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// CreateCollection creates a collection at the end of the list.
func (s *Service) CreateCollection(ctx context.Context, input CreateCollectionInput) (domain.Collection, error) {
	if err := input.Validate(); err != nil {
		return domain.Collection{}, err
	}

	c, err := s.collections.Create(ctx, domain.Collection{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
	})
	if err != nil {
		return domain.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	s.log.InfoContext(ctx, "collection created",
		slog.String("collection_id", c.ID),
		slog.String("name", c.Name),
	)
	return c, nil
}

// UpdateCollection applies the non-nil fields of input.
func (s *Service) UpdateCollection(ctx context.Context, input UpdateCollectionInput) (domain.Collection, error) {
	if err := input.Validate(); err != nil {
		return domain.Collection{}, err
	}

	patch := domain.CollectionPatch{
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		patch.Name = &name
	}

	c, err := s.collections.Update(ctx, input.ID, patch)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("update collection: %w", err)
	}
	return c, nil
}

// DeleteCollection removes a collection and every bookmark in it. Verses
// left with no bookmark anywhere are queued for remote deletion.
func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidationError("id", "required")
	}

	var removed []domain.Bookmark
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.collections.GetByID(ctx, id); err != nil {
			return fmt.Errorf("get collection: %w", err)
		}

		var err error
		removed, err = s.bookmarks.DeleteByCollection(ctx, id)
		if err != nil {
			return fmt.Errorf("delete bookmarks: %w", err)
		}

		for _, b := range removed {
			if err := s.queueDeleteIfOrphan(ctx, b.ChapterID, b.VerseNumber); err != nil {
				return err
			}
		}

		if err := s.collections.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "collection deleted",
		slog.String("collection_id", id),
		slog.Int("bookmarks_removed", len(removed)),
	)
	return nil
}

// ListCollections returns every collection with its bookmark count, in
// display order.
func (s *Service) ListCollections(ctx context.Context) ([]domain.CollectionWithCount, error) {
	list, err := s.collections.ListWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return list, nil
}

// GetCollection returns one collection.
func (s *Service) GetCollection(ctx context.Context, id string) (domain.Collection, error) {
	return s.collections.GetByID(ctx, id)
}

// ReorderCollections sets the display order to the order of ids.
func (s *Service) ReorderCollections(ctx context.Context, ids []string) error {
	if err := validateIDs("ids", ids); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.collections.SetSortOrders(ctx, ids); err != nil {
			return fmt.Errorf("reorder collections: %w", err)
		}
		return nil
	})
}

// EnsureDefaultCollection returns the collection that receives bookmarks
// pulled from the cloud, creating it on first use.
func (s *Service) EnsureDefaultCollection(ctx context.Context) (domain.Collection, error) {
	c, err := s.collections.GetByName(ctx, domain.DefaultCollectionName)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Collection{}, fmt.Errorf("get default collection: %w", err)
	}

	c, err = s.collections.Create(ctx, domain.Collection{Name: domain.DefaultCollectionName})
	if err != nil {
		return domain.Collection{}, fmt.Errorf("create default collection: %w", err)
	}
	s.log.InfoContext(ctx, "default collection created", slog.String("collection_id", c.ID))
	return c, nil
}

// queueDeleteIfOrphan adds an outbox row when no collection holds the
// verse any more.
func (s *Service) queueDeleteIfOrphan(ctx context.Context, chapterID, verseNumber int) error {
	n, err := s.bookmarks.CountByVerse(ctx, chapterID, verseNumber)
	if err != nil {
		return fmt.Errorf("count bookmarks: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := s.outbox.Add(ctx, chapterID, verseNumber); err != nil {
		return fmt.Errorf("queue remote delete: %w", err)
	}
	return nil
}
