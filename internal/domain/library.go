package domain

import "time"

// DefaultCollectionName is the collection that receives bookmarks pulled
// from the cloud with no local counterpart.
const DefaultCollectionName = "Synced"

// Collection is a user-named group of bookmarks. Collections are not synced.
type Collection struct {
	ID          string
	Name        string
	Description *string
	Color       *string
	Icon        *string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CollectionPatch carries optional field updates for a collection.
type CollectionPatch struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	SortOrder   *int
}

// CollectionWithCount is a collection plus the number of bookmarks in it.
type CollectionWithCount struct {
	Collection
	BookmarkCount int
}

// Bookmark places a verse into a collection.
type Bookmark struct {
	ID           string
	CollectionID string
	VerseKey     string
	ChapterID    int
	VerseNumber  int
	Note         *string
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Dirty        bool
	Version      int64
}

// BookmarkPatch carries optional field updates for a bookmark.
type BookmarkPatch struct {
	Note      *string
	ClearNote bool
	SortOrder *int
}

// BookmarkFilter selects bookmarks for List. Nil fields are ignored.
type BookmarkFilter struct {
	CollectionID *string
	VerseKey     *string
	ChapterID    *int
	Dirty        *bool
}

// PendingDeletion is an outbox row for a remote bookmark delete that has
// not been acknowledged by the cloud yet.
type PendingDeletion struct {
	ID          string
	ChapterID   int
	VerseNumber int
	CreatedAt   time.Time
}
