package reading

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	readingrepo "github.com/heartmarshall/tilawah/internal/adapter/sqlite/reading"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/testhelper"
	"github.com/heartmarshall/tilawah/internal/domain"
)

func newService(t *testing.T) (*Service, *testhelper.Clock) {
	t.Helper()
	db := testhelper.SetupTestDB(t)
	clock := testhelper.NewClock(time.Date(2024, 4, 1, 20, 0, 0, 0, time.UTC))
	return NewService(slog.Default(), readingrepo.New(db, clock.Now), clock.Now), clock
}

func TestService_RecordVisit(t *testing.T) {
	t.Parallel()
	svc, clock := newService(t)
	ctx := context.Background()

	if _, err := svc.RecordVisit(ctx, RecordVisitInput{VerseKey: "18:1"}); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	clock.Advance(time.Minute)
	e, err := svc.RecordVisit(ctx, RecordVisitInput{VerseKey: "18:20", Mode: domain.ReadingModeListening})
	if err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	if e.VerseNumber != 20 || e.Mode != domain.ReadingModeListening || !e.Timestamp.Equal(clock.Now()) {
		t.Errorf("entry = %+v", e)
	}

	pos, err := svc.ChapterPosition(ctx, 18)
	if err != nil {
		t.Fatalf("ChapterPosition: %v", err)
	}
	if pos.VerseKey() != "18:20" {
		t.Errorf("position = %s, want 18:20", pos.VerseKey())
	}

	history, _ := svc.History(ctx, 0)
	if len(history) != 1 {
		t.Errorf("history = %d entries, want 1 per chapter", len(history))
	}
}

func TestService_LastRead(t *testing.T) {
	t.Parallel()
	svc, clock := newService(t)
	ctx := context.Background()

	if _, err := svc.LastRead(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("LastRead empty: got %v, want ErrNotFound", err)
	}

	svc.RecordVisit(ctx, RecordVisitInput{VerseKey: "1:7"})
	clock.Advance(time.Hour)
	svc.RecordVisit(ctx, RecordVisitInput{VerseKey: "114:6"})

	last, err := svc.LastRead(ctx)
	if err != nil {
		t.Fatalf("LastRead: %v", err)
	}
	if last.VerseKey() != "114:6" {
		t.Errorf("LastRead = %s, want 114:6", last.VerseKey())
	}
}

func TestService_RecordVisit_Validation(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	for _, in := range []RecordVisitInput{
		{},
		{VerseKey: "0:1"},
		{VerseKey: "1:1", Mode: "skimming"},
	} {
		if _, err := svc.RecordVisit(ctx, in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("RecordVisit(%+v): got %v, want ErrValidation", in, err)
		}
	}
}
