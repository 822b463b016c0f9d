package dataloader

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// ---------------------------------------------------------------------------
// Bookmarks by verse key
// ---------------------------------------------------------------------------

func newBookmarksBatchFn(repo bookmarkRepo) dataloader.BatchFunc[string, []domain.Bookmark] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[[]domain.Bookmark] {
		bookmarks, err := repo.ListByVerseKeys(ctx, keys)
		if err != nil {
			return errorResults[[]domain.Bookmark](len(keys), err)
		}

		grouped := make(map[string][]domain.Bookmark, len(keys))
		for _, b := range bookmarks {
			grouped[b.VerseKey] = append(grouped[b.VerseKey], b)
		}

		return mapResults(keys, grouped, emptySlice[domain.Bookmark])
	}
}

// ---------------------------------------------------------------------------
// Memorization progress by verse key
// ---------------------------------------------------------------------------

func newProgressBatchFn(repo progressRepo) dataloader.BatchFunc[string, *domain.MemorizationProgress] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*domain.MemorizationProgress] {
		rows, err := repo.ListByVerseKeys(ctx, keys)
		if err != nil {
			return errorResults[*domain.MemorizationProgress](len(keys), err)
		}

		byKey := make(map[string]*domain.MemorizationProgress, len(rows))
		for i := range rows {
			byKey[rows[i].VerseKey] = &rows[i]
		}

		return mapResults(keys, byKey, func() *domain.MemorizationProgress { return nil })
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// errorResults returns n results all carrying the same error.
func errorResults[V any](n int, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], n)
	for i := range results {
		results[i] = &dataloader.Result[V]{Error: err}
	}
	return results
}

// mapResults maps grouped results back to key order, using defaultFn for missing keys.
func mapResults[V any](keys []string, grouped map[string]V, defaultFn func() V) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], len(keys))
	for i, key := range keys {
		if v, ok := grouped[key]; ok {
			results[i] = &dataloader.Result[V]{Data: v}
		} else {
			results[i] = &dataloader.Result[V]{Data: defaultFn()}
		}
	}
	return results
}

// emptySlice returns a non-nil empty slice.
func emptySlice[T any]() []T {
	return []T{}
}
