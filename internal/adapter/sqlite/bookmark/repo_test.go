package bookmark_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/bookmark"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/collection"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/testhelper"
	"github.com/heartmarshall/tilawah/internal/domain"
)

type fixture struct {
	repo  *bookmark.Repo
	clock *testhelper.Clock
	colA  domain.Collection
	colB  domain.Collection
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testhelper.SetupTestDB(t)
	clock := testhelper.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	collections := collection.New(db, clock.Now)

	a, err := collections.Create(context.Background(), domain.Collection{Name: "A"})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	b, err := collections.Create(context.Background(), domain.Collection{Name: "B"})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	return fixture{repo: bookmark.New(db, clock.Now), clock: clock, colA: a, colB: b}
}

func newBookmark(collectionID string, chapter, verse int) domain.Bookmark {
	return domain.Bookmark{
		CollectionID: collectionID,
		VerseKey:     domain.VerseKey(chapter, verse),
		ChapterID:    chapter,
		VerseNumber:  verse,
	}
}

func TestRepo_Create(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	first, err := f.repo.Create(ctx, newBookmark(f.colA.ID, 2, 255))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := f.repo.Create(ctx, newBookmark(f.colA.ID, 2, 256))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := f.repo.Create(ctx, newBookmark(f.colB.ID, 2, 255))
	if err != nil {
		t.Fatalf("Create in other collection: %v", err)
	}

	if first.SortOrder != 0 || second.SortOrder != 1 || other.SortOrder != 0 {
		t.Errorf("sort orders = %d, %d, %d; want 0, 1, 0", first.SortOrder, second.SortOrder, other.SortOrder)
	}
	if !first.Dirty || first.Version != 1 {
		t.Errorf("new bookmark dirty=%v version=%d, want dirty v1", first.Dirty, first.Version)
	}

	got, err := f.repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.VerseKey != "2:255" || !got.CreatedAt.Equal(f.clock.Now()) {
		t.Errorf("GetByID = %+v", got)
	}
}

func TestRepo_Create_DuplicateInCollection(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	if _, err := f.repo.Create(ctx, newBookmark(f.colA.ID, 1, 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := f.repo.Create(ctx, newBookmark(f.colA.ID, 1, 1))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate Create: got %v, want ErrAlreadyExists", err)
	}
}

func TestRepo_Create_UnknownCollection(t *testing.T) {
	t.Parallel()
	f := setup(t)

	_, err := f.repo.Create(context.Background(), newBookmark("nope", 1, 1))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Create with unknown collection: got %v, want ErrNotFound", err)
	}
}

func TestRepo_Update_NoteAndVersion(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	b, _ := f.repo.Create(ctx, newBookmark(f.colA.ID, 18, 10))
	if _, err := f.repo.MarkClean(ctx, b.ID, b.Version); err != nil {
		t.Fatalf("MarkClean: %v", err)
	}

	f.clock.Advance(time.Hour)
	note := "cave"
	got, err := f.repo.Update(ctx, b.ID, domain.BookmarkPatch{Note: &note})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Note == nil || *got.Note != "cave" {
		t.Errorf("Note = %v, want cave", got.Note)
	}
	if got.Version != 2 || !got.Dirty {
		t.Errorf("after Update version=%d dirty=%v, want 2 true", got.Version, got.Dirty)
	}
	if !got.UpdatedAt.Equal(f.clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, f.clock.Now())
	}

	cleared, err := f.repo.Update(ctx, b.ID, domain.BookmarkPatch{ClearNote: true})
	if err != nil {
		t.Fatalf("Update clear: %v", err)
	}
	if cleared.Note != nil {
		t.Errorf("Note after clear = %q, want nil", *cleared.Note)
	}
}

func TestRepo_MarkClean_VersionGuard(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	b, _ := f.repo.Create(ctx, newBookmark(f.colA.ID, 36, 1))
	note := "edited during push"
	if _, err := f.repo.Update(ctx, b.ID, domain.BookmarkPatch{Note: &note}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	ok, err := f.repo.MarkClean(ctx, b.ID, b.Version)
	if err != nil {
		t.Fatalf("MarkClean: %v", err)
	}
	if ok {
		t.Error("MarkClean with stale version cleared the row")
	}
	got, _ := f.repo.GetByID(ctx, b.ID)
	if !got.Dirty {
		t.Error("row lost dirty flag after stale MarkClean")
	}

	ok, err = f.repo.MarkClean(ctx, b.ID, got.Version)
	if err != nil || !ok {
		t.Fatalf("MarkClean current version: ok=%v err=%v", ok, err)
	}
}

func TestRepo_ListAndCount(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	f.repo.Create(ctx, newBookmark(f.colA.ID, 1, 1))
	f.repo.Create(ctx, newBookmark(f.colB.ID, 1, 1))
	f.repo.Create(ctx, newBookmark(f.colA.ID, 2, 1))

	n, err := f.repo.CountByVerse(ctx, 1, 1)
	if err != nil {
		t.Fatalf("CountByVerse: %v", err)
	}
	if n != 2 {
		t.Errorf("CountByVerse(1:1) = %d, want 2", n)
	}

	inA, err := f.repo.List(ctx, domain.BookmarkFilter{CollectionID: &f.colA.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(inA) != 2 {
		t.Errorf("List(collection A) = %d rows, want 2", len(inA))
	}

	byKeys, err := f.repo.ListByVerseKeys(ctx, []string{"1:1", "9:9"})
	if err != nil {
		t.Fatalf("ListByVerseKeys: %v", err)
	}
	if len(byKeys) != 2 {
		t.Errorf("ListByVerseKeys = %d rows, want 2", len(byKeys))
	}

	none, err := f.repo.ListByVerseKeys(ctx, nil)
	if err != nil {
		t.Fatalf("ListByVerseKeys(nil): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListByVerseKeys(nil) = %d rows", len(none))
	}
}

func TestRepo_DeleteByCollection(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	f.repo.Create(ctx, newBookmark(f.colA.ID, 1, 1))
	f.repo.Create(ctx, newBookmark(f.colA.ID, 1, 2))
	kept, _ := f.repo.Create(ctx, newBookmark(f.colB.ID, 1, 1))

	removed, err := f.repo.DeleteByCollection(ctx, f.colA.ID)
	if err != nil {
		t.Fatalf("DeleteByCollection: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d rows, want 2", len(removed))
	}
	if _, err := f.repo.GetByID(ctx, kept.ID); err != nil {
		t.Errorf("bookmark in other collection: %v", err)
	}
}

func TestRepo_Put_Upserts(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	remoteTime := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	note := "from cloud"
	b := newBookmark(f.colA.ID, 112, 1)
	b.ID = "remote-1"
	b.Note = &note
	b.CreatedAt = remoteTime
	b.UpdatedAt = remoteTime
	b.Version = 1

	if err := f.repo.Put(ctx, b); err != nil {
		t.Fatalf("Put insert: %v", err)
	}
	b.SortOrder = 4
	if err := f.repo.Put(ctx, b); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, err := f.repo.GetByID(ctx, "remote-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Dirty || got.SortOrder != 4 || !got.UpdatedAt.Equal(remoteTime) {
		t.Errorf("after Put = %+v", got)
	}
}
