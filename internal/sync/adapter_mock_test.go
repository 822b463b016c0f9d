package sync

import (
	"context"
	gosync "sync"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
)

var _ cloud.Adapter = &AdapterMock{}

// AdapterMock is a mock implementation of cloud.Adapter.
type AdapterMock struct {
	PushBookmarksFunc       func(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error
	DeleteBookmarkFunc      func(ctx context.Context, userID string, surahID int, ayahNumber int) error
	PushMemorizationFunc    func(ctx context.Context, userID string, items []cloud.MemorizationItem) error
	PushReadingProgressFunc func(ctx context.Context, userID string, progress []cloud.ReadingProgress) error
	PushSettingsFunc        func(ctx context.Context, userID string, settings cloud.Settings) error
	FetchSnapshotFunc       func(ctx context.Context, userID string) (cloud.Snapshot, error)

	calls struct {
		PushBookmarks []struct {
			Ctx       context.Context
			UserID    string
			Bookmarks []cloud.Bookmark
		}
		DeleteBookmark []struct {
			Ctx        context.Context
			UserID     string
			SurahID    int
			AyahNumber int
		}
		PushMemorization []struct {
			Ctx    context.Context
			UserID string
			Items  []cloud.MemorizationItem
		}
		PushReadingProgress []struct {
			Ctx      context.Context
			UserID   string
			Progress []cloud.ReadingProgress
		}
		PushSettings []struct {
			Ctx      context.Context
			UserID   string
			Settings cloud.Settings
		}
		FetchSnapshot []struct {
			Ctx    context.Context
			UserID string
		}
	}
	lockPushBookmarks       gosync.RWMutex
	lockDeleteBookmark      gosync.RWMutex
	lockPushMemorization    gosync.RWMutex
	lockPushReadingProgress gosync.RWMutex
	lockPushSettings        gosync.RWMutex
	lockFetchSnapshot       gosync.RWMutex
}

// PushBookmarks calls PushBookmarksFunc.
func (mock *AdapterMock) PushBookmarks(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error {
	if mock.PushBookmarksFunc == nil {
		panic("AdapterMock.PushBookmarksFunc: method is nil but Adapter.PushBookmarks was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		UserID    string
		Bookmarks []cloud.Bookmark
	}{Ctx: ctx, UserID: userID, Bookmarks: bookmarks}
	mock.lockPushBookmarks.Lock()
	mock.calls.PushBookmarks = append(mock.calls.PushBookmarks, callInfo)
	mock.lockPushBookmarks.Unlock()
	return mock.PushBookmarksFunc(ctx, userID, bookmarks)
}

// PushBookmarksCalls gets all the calls that were made to PushBookmarks.
func (mock *AdapterMock) PushBookmarksCalls() []struct {
	Ctx       context.Context
	UserID    string
	Bookmarks []cloud.Bookmark
} {
	mock.lockPushBookmarks.RLock()
	calls := mock.calls.PushBookmarks
	mock.lockPushBookmarks.RUnlock()
	return calls
}

// DeleteBookmark calls DeleteBookmarkFunc.
func (mock *AdapterMock) DeleteBookmark(ctx context.Context, userID string, surahID int, ayahNumber int) error {
	if mock.DeleteBookmarkFunc == nil {
		panic("AdapterMock.DeleteBookmarkFunc: method is nil but Adapter.DeleteBookmark was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		UserID     string
		SurahID    int
		AyahNumber int
	}{Ctx: ctx, UserID: userID, SurahID: surahID, AyahNumber: ayahNumber}
	mock.lockDeleteBookmark.Lock()
	mock.calls.DeleteBookmark = append(mock.calls.DeleteBookmark, callInfo)
	mock.lockDeleteBookmark.Unlock()
	return mock.DeleteBookmarkFunc(ctx, userID, surahID, ayahNumber)
}

// DeleteBookmarkCalls gets all the calls that were made to DeleteBookmark.
func (mock *AdapterMock) DeleteBookmarkCalls() []struct {
	Ctx        context.Context
	UserID     string
	SurahID    int
	AyahNumber int
} {
	mock.lockDeleteBookmark.RLock()
	calls := mock.calls.DeleteBookmark
	mock.lockDeleteBookmark.RUnlock()
	return calls
}

// PushMemorization calls PushMemorizationFunc.
func (mock *AdapterMock) PushMemorization(ctx context.Context, userID string, items []cloud.MemorizationItem) error {
	if mock.PushMemorizationFunc == nil {
		panic("AdapterMock.PushMemorizationFunc: method is nil but Adapter.PushMemorization was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID string
		Items  []cloud.MemorizationItem
	}{Ctx: ctx, UserID: userID, Items: items}
	mock.lockPushMemorization.Lock()
	mock.calls.PushMemorization = append(mock.calls.PushMemorization, callInfo)
	mock.lockPushMemorization.Unlock()
	return mock.PushMemorizationFunc(ctx, userID, items)
}

// PushMemorizationCalls gets all the calls that were made to PushMemorization.
func (mock *AdapterMock) PushMemorizationCalls() []struct {
	Ctx    context.Context
	UserID string
	Items  []cloud.MemorizationItem
} {
	mock.lockPushMemorization.RLock()
	calls := mock.calls.PushMemorization
	mock.lockPushMemorization.RUnlock()
	return calls
}

// PushReadingProgress calls PushReadingProgressFunc.
func (mock *AdapterMock) PushReadingProgress(ctx context.Context, userID string, progress []cloud.ReadingProgress) error {
	if mock.PushReadingProgressFunc == nil {
		panic("AdapterMock.PushReadingProgressFunc: method is nil but Adapter.PushReadingProgress was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		UserID   string
		Progress []cloud.ReadingProgress
	}{Ctx: ctx, UserID: userID, Progress: progress}
	mock.lockPushReadingProgress.Lock()
	mock.calls.PushReadingProgress = append(mock.calls.PushReadingProgress, callInfo)
	mock.lockPushReadingProgress.Unlock()
	return mock.PushReadingProgressFunc(ctx, userID, progress)
}

// PushReadingProgressCalls gets all the calls that were made to PushReadingProgress.
func (mock *AdapterMock) PushReadingProgressCalls() []struct {
	Ctx      context.Context
	UserID   string
	Progress []cloud.ReadingProgress
} {
	mock.lockPushReadingProgress.RLock()
	calls := mock.calls.PushReadingProgress
	mock.lockPushReadingProgress.RUnlock()
	return calls
}

// PushSettings calls PushSettingsFunc.
func (mock *AdapterMock) PushSettings(ctx context.Context, userID string, settings cloud.Settings) error {
	if mock.PushSettingsFunc == nil {
		panic("AdapterMock.PushSettingsFunc: method is nil but Adapter.PushSettings was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		UserID   string
		Settings cloud.Settings
	}{Ctx: ctx, UserID: userID, Settings: settings}
	mock.lockPushSettings.Lock()
	mock.calls.PushSettings = append(mock.calls.PushSettings, callInfo)
	mock.lockPushSettings.Unlock()
	return mock.PushSettingsFunc(ctx, userID, settings)
}

// PushSettingsCalls gets all the calls that were made to PushSettings.
func (mock *AdapterMock) PushSettingsCalls() []struct {
	Ctx      context.Context
	UserID   string
	Settings cloud.Settings
} {
	mock.lockPushSettings.RLock()
	calls := mock.calls.PushSettings
	mock.lockPushSettings.RUnlock()
	return calls
}

// FetchSnapshot calls FetchSnapshotFunc.
func (mock *AdapterMock) FetchSnapshot(ctx context.Context, userID string) (cloud.Snapshot, error) {
	if mock.FetchSnapshotFunc == nil {
		panic("AdapterMock.FetchSnapshotFunc: method is nil but Adapter.FetchSnapshot was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID string
	}{Ctx: ctx, UserID: userID}
	mock.lockFetchSnapshot.Lock()
	mock.calls.FetchSnapshot = append(mock.calls.FetchSnapshot, callInfo)
	mock.lockFetchSnapshot.Unlock()
	return mock.FetchSnapshotFunc(ctx, userID)
}

// FetchSnapshotCalls gets all the calls that were made to FetchSnapshot.
func (mock *AdapterMock) FetchSnapshotCalls() []struct {
	Ctx    context.Context
	UserID string
} {
	mock.lockFetchSnapshot.RLock()
	calls := mock.calls.FetchSnapshot
	mock.lockFetchSnapshot.RUnlock()
	return calls
}
