package dataloader_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dl "github.com/heartmarshall/tilawah/internal/dataloader"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repos
// ---------------------------------------------------------------------------

type mockBookmarkRepo struct {
	mu     sync.Mutex
	calls  [][]string
	result []domain.Bookmark
	err    error
}

func (m *mockBookmarkRepo) ListByVerseKeys(_ context.Context, keys []string) ([]domain.Bookmark, error) {
	m.mu.Lock()
	m.calls = append(m.calls, keys)
	m.mu.Unlock()
	return m.result, m.err
}

type mockProgressRepo struct {
	result []domain.MemorizationProgress
	err    error
}

func (m *mockProgressRepo) ListByVerseKeys(_ context.Context, _ []string) ([]domain.MemorizationProgress, error) {
	return m.result, m.err
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestFromContext(t *testing.T) {
	t.Parallel()

	_, ok := dl.FromContext(context.Background())
	assert.False(t, ok)

	ctx := dl.Scope(context.Background(), &dl.Repos{Bookmark: &mockBookmarkRepo{}, Progress: &mockProgressRepo{}})
	l, ok := dl.FromContext(ctx)
	require.True(t, ok)
	assert.NotNil(t, l.BookmarksByVerseKey)
	assert.NotNil(t, l.ProgressByVerseKey)
}

func TestBookmarksLoader_BatchesAndGroups(t *testing.T) {
	t.Parallel()

	repo := &mockBookmarkRepo{result: []domain.Bookmark{
		{ID: "b1", CollectionID: "c1", VerseKey: "2:255"},
		{ID: "b2", CollectionID: "c2", VerseKey: "2:255"},
		{ID: "b3", CollectionID: "c1", VerseKey: "1:1"},
	}}
	loaders := dl.NewLoaders(&dl.Repos{Bookmark: repo, Progress: &mockProgressRepo{}})
	ctx := context.Background()

	thunks := []func() ([]domain.Bookmark, error){
		loaders.BookmarksByVerseKey.Load(ctx, "2:255"),
		loaders.BookmarksByVerseKey.Load(ctx, "1:1"),
		loaders.BookmarksByVerseKey.Load(ctx, "3:3"),
	}

	got, err := thunks[0]()
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = thunks[1]()
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = thunks[2]()
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.calls, 1, "three loads should share one batch")
}

func TestProgressLoader_NilForMissing(t *testing.T) {
	t.Parallel()

	repo := &mockProgressRepo{result: []domain.MemorizationProgress{{VerseKey: "1:1", Confidence: domain.ConfidenceGood}}}
	loaders := dl.NewLoaders(&dl.Repos{Bookmark: &mockBookmarkRepo{}, Progress: repo})
	ctx := context.Background()

	hit := loaders.ProgressByVerseKey.Load(ctx, "1:1")
	miss := loaders.ProgressByVerseKey.Load(ctx, "1:2")

	p, err := hit()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.ConfidenceGood, p.Confidence)

	p, err = miss()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLoader_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	loaders := dl.NewLoaders(&dl.Repos{Bookmark: &mockBookmarkRepo{err: boom}, Progress: &mockProgressRepo{}})

	_, err := loaders.BookmarksByVerseKey.Load(context.Background(), "1:1")()
	assert.ErrorIs(t, err, boom)
}
