package cloudsync

import (
	"context"
	"sync"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
)

var _ snapshotCache = &snapshotCacheMock{}

type snapshotCacheMock struct {
	GetFunc        func(ctx context.Context, userID string) (cloud.Snapshot, bool, error)
	SetFunc        func(ctx context.Context, userID string, snap cloud.Snapshot) error
	InvalidateFunc func(ctx context.Context, userID string) error

	calls struct {
		Get []struct {
			Ctx    context.Context
			UserID string
		}
		Set []struct {
			Ctx    context.Context
			UserID string
			Snap   cloud.Snapshot
		}
		Invalidate []struct {
			Ctx    context.Context
			UserID string
		}
	}
	lockGet        sync.RWMutex
	lockSet        sync.RWMutex
	lockInvalidate sync.RWMutex
}

func (mock *snapshotCacheMock) Get(ctx context.Context, userID string) (cloud.Snapshot, bool, error) {
	if mock.GetFunc == nil {
		panic("snapshotCacheMock.GetFunc: method is nil but snapshotCache.Get was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID string
	}{Ctx: ctx, UserID: userID}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, userID)
}

func (mock *snapshotCacheMock) GetCalls() []struct {
	Ctx    context.Context
	UserID string
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *snapshotCacheMock) Set(ctx context.Context, userID string, snap cloud.Snapshot) error {
	if mock.SetFunc == nil {
		panic("snapshotCacheMock.SetFunc: method is nil but snapshotCache.Set was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID string
		Snap   cloud.Snapshot
	}{Ctx: ctx, UserID: userID, Snap: snap}
	mock.lockSet.Lock()
	mock.calls.Set = append(mock.calls.Set, callInfo)
	mock.lockSet.Unlock()
	return mock.SetFunc(ctx, userID, snap)
}

func (mock *snapshotCacheMock) SetCalls() []struct {
	Ctx    context.Context
	UserID string
	Snap   cloud.Snapshot
} {
	mock.lockSet.RLock()
	calls := mock.calls.Set
	mock.lockSet.RUnlock()
	return calls
}

func (mock *snapshotCacheMock) Invalidate(ctx context.Context, userID string) error {
	if mock.InvalidateFunc == nil {
		panic("snapshotCacheMock.InvalidateFunc: method is nil but snapshotCache.Invalidate was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID string
	}{Ctx: ctx, UserID: userID}
	mock.lockInvalidate.Lock()
	mock.calls.Invalidate = append(mock.calls.Invalidate, callInfo)
	mock.lockInvalidate.Unlock()
	return mock.InvalidateFunc(ctx, userID)
}

func (mock *snapshotCacheMock) InvalidateCalls() []struct {
	Ctx    context.Context
	UserID string
} {
	mock.lockInvalidate.RLock()
	calls := mock.calls.Invalidate
	mock.lockInvalidate.RUnlock()
	return calls
}
