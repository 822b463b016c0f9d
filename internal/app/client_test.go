package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud/memory"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/testhelper"
	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/cloudsync"
	"github.com/heartmarshall/tilawah/internal/service/memorization"
	"github.com/heartmarshall/tilawah/internal/service/reading"
)

func testConfig(t *testing.T, userID string) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "client.db"), BusyTimeout: 5 * time.Second},
		Cloud: config.CloudConfig{BaseURL: "http://cloud.invalid", Token: "t", UserID: userID, Timeout: time.Second},
		Sync:  config.SyncConfig{Enabled: true, Interval: time.Hour, CycleTimeout: 10 * time.Second},
		SRS:   config.SRSConfig{DefaultEaseFactor: 2.5, MinEaseFactor: 1.3, Timezone: "UTC"},
	}
}

func newTestClient(t *testing.T, backend *cloudsync.Service, clock *testhelper.Clock, userID string) *Client {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewClient(ctx, testConfig(t, userID), log, WithAdapter(backend), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Teardown(); err != nil {
			t.Errorf("Teardown: %v", err)
		}
	})
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

func TestClient_Dashboard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := testhelper.NewClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	backend := cloudsync.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), memory.New(), nil)
	c := newTestClient(t, backend, clock, "")

	d, err := c.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.LastRead != nil {
		t.Errorf("LastRead = %+v, want nil on a fresh store", d.LastRead)
	}
	if d.SyncLabel != "Sync disabled" {
		t.Errorf("SyncLabel = %q, want %q", d.SyncLabel, "Sync disabled")
	}

	if _, err := c.Memorization.MarkVerse(ctx, memorization.MarkVerseInput{VerseKey: "1:1", Confidence: domain.ConfidenceGood}); err != nil {
		t.Fatalf("MarkVerse: %v", err)
	}
	if _, err := c.Reading.RecordVisit(ctx, reading.RecordVisitInput{VerseKey: "18:10", Mode: domain.ReadingModeReading}); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}

	d, err = c.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Progress.Tracked != 1 {
		t.Errorf("Tracked = %d, want 1", d.Progress.Tracked)
	}
	if d.DueCount != 0 {
		t.Errorf("DueCount = %d, want 0 right after a review", d.DueCount)
	}
	if d.Streak != 1 {
		t.Errorf("Streak = %d, want 1", d.Streak)
	}
	if d.LastRead == nil || d.LastRead.ChapterID != 18 || d.LastRead.VerseNumber != 10 {
		t.Errorf("LastRead = %+v, want 18:10", d.LastRead)
	}
}

func TestClient_SyncBetweenDevices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := testhelper.NewClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	backend := cloudsync.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), memory.New(), nil)
	phone := newTestClient(t, backend, clock, "user-1")
	tablet := newTestClient(t, backend, clock, "user-1")

	if _, err := phone.Memorization.MarkVerse(ctx, memorization.MarkVerseInput{VerseKey: "112:1", Confidence: domain.ConfidenceSolid}); err != nil {
		t.Fatalf("MarkVerse: %v", err)
	}
	if err := phone.Sync.SyncNow(ctx); err != nil {
		t.Fatalf("phone SyncNow: %v", err)
	}

	clock.Advance(time.Minute)
	if err := tablet.Sync.SyncNow(ctx); err != nil {
		t.Fatalf("tablet SyncNow: %v", err)
	}

	got, err := tablet.Memorization.GetVerse(ctx, "112:1")
	if err != nil {
		t.Fatalf("tablet GetVerse: %v", err)
	}
	if got.Confidence != domain.ConfidenceSolid {
		t.Errorf("Confidence = %s, want solid", got.Confidence)
	}
	if got.Dirty {
		t.Error("pulled record should be clean")
	}

	d, err := tablet.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Sync.Status != domain.SyncStatusSuccess {
		t.Errorf("Status = %s, want success", d.Sync.Status)
	}
	if d.SyncLabel != "Synced just now" {
		t.Errorf("SyncLabel = %q, want %q", d.SyncLabel, "Synced just now")
	}
}

func TestClient_StartRequiresUser(t *testing.T) {
	t.Parallel()

	clock := testhelper.NewClock(time.Now())
	backend := cloudsync.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), memory.New(), nil)
	c := newTestClient(t, backend, clock, "")

	if err := c.Start(context.Background()); err == nil {
		t.Fatal("Start without a configured user should fail")
	}
}
