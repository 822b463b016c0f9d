package reviewlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/reviewlog"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/testhelper"
	"github.com/heartmarshall/tilawah/internal/domain"
)

func TestRepo_GetByPeriod(t *testing.T) {
	t.Parallel()
	repo := reviewlog.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, d := range []int{-40, -1, 0, 1} {
		if _, err := repo.Create(ctx, domain.ReviewLogEntry{
			VerseKey:   domain.VerseKey(1, i+1),
			Confidence: domain.ConfidenceGood,
			Quality:    2,
			ReviewedAt: base.AddDate(0, 0, d),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.GetByPeriod(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("GetByPeriod: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetByPeriod = %d rows, want 2", len(got))
	}
	if got[0].VerseKey != "1:3" || got[1].VerseKey != "1:2" {
		t.Errorf("order = [%s %s], want newest first", got[0].VerseKey, got[1].VerseKey)
	}

	times, err := repo.ReviewTimesSince(ctx, base.AddDate(0, 0, -2))
	if err != nil {
		t.Fatalf("ReviewTimesSince: %v", err)
	}
	if len(times) != 3 {
		t.Errorf("ReviewTimesSince = %d, want 3", len(times))
	}
}
