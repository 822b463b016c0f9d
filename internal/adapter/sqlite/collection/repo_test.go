package collection_test

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

func newRepo(t *testing.T) (*collection.Repo, *bookmark.Repo, *testhelper.Clock) {
	t.Helper()
	db := testhelper.SetupTestDB(t)
	clock := testhelper.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return collection.New(db, clock.Now), bookmark.New(db, clock.Now), clock
}

func TestRepo_Create_AppendsSortOrder(t *testing.T) {
	t.Parallel()
	repo, _, _ := newRepo(t)
	ctx := context.Background()

	for i, name := range []string{"Daily", "Juz Amma", "Duas"} {
		c, err := repo.Create(ctx, domain.Collection{Name: name})
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		if c.SortOrder != i {
			t.Errorf("Create(%s) sort order = %d, want %d", name, c.SortOrder, i)
		}
		if c.ID == "" {
			t.Errorf("Create(%s) returned empty id", name)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Daily" || list[2].Name != "Duas" {
		t.Errorf("List order = %+v", list)
	}
}

func TestRepo_Update_Partial(t *testing.T) {
	t.Parallel()
	repo, _, clock := newRepo(t)
	ctx := context.Background()

	desc := "morning"
	c, err := repo.Create(ctx, domain.Collection{Name: "Daily", Description: &desc})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock.Advance(time.Minute)
	name := "Evening"
	got, err := repo.Update(ctx, c.ID, domain.CollectionPatch{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Evening" {
		t.Errorf("Name = %q, want Evening", got.Name)
	}
	if got.Description == nil || *got.Description != "morning" {
		t.Errorf("Description changed: %v", got.Description)
	}
	if !got.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, clock.Now())
	}

	if _, err := repo.Update(ctx, "missing", domain.CollectionPatch{Name: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update missing: got %v, want ErrNotFound", err)
	}
}

func TestRepo_SetSortOrders(t *testing.T) {
	t.Parallel()
	repo, _, _ := newRepo(t)
	ctx := context.Background()

	a, _ := repo.Create(ctx, domain.Collection{Name: "A"})
	b, _ := repo.Create(ctx, domain.Collection{Name: "B"})

	if err := repo.SetSortOrders(ctx, []string{b.ID, a.ID}); err != nil {
		t.Fatalf("SetSortOrders: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list[0].ID != b.ID || list[1].ID != a.ID {
		t.Errorf("order after reorder = [%s %s], want [B A]", list[0].Name, list[1].Name)
	}
}

func TestRepo_ListWithCounts(t *testing.T) {
	t.Parallel()
	repo, bookmarks, _ := newRepo(t)
	ctx := context.Background()

	full, _ := repo.Create(ctx, domain.Collection{Name: "Full"})
	empty, _ := repo.Create(ctx, domain.Collection{Name: "Empty"})
	for _, v := range []int{1, 2, 3} {
		if _, err := bookmarks.Create(ctx, domain.Bookmark{
			CollectionID: full.ID, VerseKey: domain.VerseKey(2, v), ChapterID: 2, VerseNumber: v,
		}); err != nil {
			t.Fatalf("bookmark Create: %v", err)
		}
	}

	list, err := repo.ListWithCounts(ctx)
	if err != nil {
		t.Fatalf("ListWithCounts: %v", err)
	}
	counts := map[string]int{}
	for _, c := range list {
		counts[c.ID] = c.BookmarkCount
	}
	if counts[full.ID] != 3 || counts[empty.ID] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRepo_GetByName_NotFound(t *testing.T) {
	t.Parallel()
	repo, _, _ := newRepo(t)

	_, err := repo.GetByName(context.Background(), domain.DefaultCollectionName)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByName: got %v, want ErrNotFound", err)
	}
}

func TestRepo_Delete_CascadesBookmarks(t *testing.T) {
	t.Parallel()
	repo, bookmarks, _ := newRepo(t)
	ctx := context.Background()

	c, _ := repo.Create(ctx, domain.Collection{Name: "Tmp"})
	b, err := bookmarks.Create(ctx, domain.Bookmark{CollectionID: c.ID, VerseKey: "1:1", ChapterID: 1, VerseNumber: 1})
	if err != nil {
		t.Fatalf("bookmark Create: %v", err)
	}

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := bookmarks.GetByID(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("bookmark after collection delete: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
}
