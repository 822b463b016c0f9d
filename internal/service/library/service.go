// Package library implements collections and bookmarks. A verse can sit in
// several collections; the cloud only knows "this verse is bookmarked", so
// removing the last local bookmark of a verse queues a remote delete.
package library

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type collectionRepo interface {
	Create(ctx context.Context, c domain.Collection) (domain.Collection, error)
	Update(ctx context.Context, id string, patch domain.CollectionPatch) (domain.Collection, error)
	SetSortOrders(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domain.Collection, error)
	GetByName(ctx context.Context, name string) (domain.Collection, error)
	ListWithCounts(ctx context.Context) ([]domain.CollectionWithCount, error)
}

type bookmarkRepo interface {
	Create(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error)
	Update(ctx context.Context, id string, patch domain.BookmarkPatch) (domain.Bookmark, error)
	SetSortOrders(ctx context.Context, collectionID string, ids []string) error
	Delete(ctx context.Context, id string) error
	DeleteByCollection(ctx context.Context, collectionID string) ([]domain.Bookmark, error)
	GetByID(ctx context.Context, id string) (domain.Bookmark, error)
	GetByCollectionAndVerse(ctx context.Context, collectionID, verseKey string) (domain.Bookmark, error)
	List(ctx context.Context, filter domain.BookmarkFilter) ([]domain.Bookmark, error)
	ListByVerseKeys(ctx context.Context, verseKeys []string) ([]domain.Bookmark, error)
	CountByVerse(ctx context.Context, chapterID, verseNumber int) (int, error)
}

type outboxRepo interface {
	Add(ctx context.Context, chapterID, verseNumber int) error
	RemoveByVerse(ctx context.Context, chapterID, verseNumber int) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the collection and bookmark business logic.
type Service struct {
	collections collectionRepo
	bookmarks   bookmarkRepo
	outbox      outboxRepo
	tx          txManager
	log         *slog.Logger
}

// NewService creates a new library service.
func NewService(
	log *slog.Logger,
	collections collectionRepo,
	bookmarks bookmarkRepo,
	outbox outboxRepo,
	tx txManager,
) *Service {
	return &Service{
		collections: collections,
		bookmarks:   bookmarks,
		outbox:      outbox,
		tx:          tx,
		log:         log.With("service", "library"),
	}
}
