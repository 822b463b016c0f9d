package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/settings"
	"github.com/heartmarshall/tilawah/internal/adapter/sqlite/testhelper"
	"github.com/heartmarshall/tilawah/internal/domain"
)

func TestRepo_GetEmpty(t *testing.T) {
	t.Parallel()
	repo := settings.New(testhelper.SetupTestDB(t), nil)

	_, err := repo.Get(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get on empty store: got %v, want ErrNotFound", err)
	}
}

func TestRepo_Update_StartsFromDefaults(t *testing.T) {
	t.Parallel()
	clock := testhelper.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := settings.New(testhelper.SetupTestDB(t), clock.Now)
	ctx := context.Background()

	theme := domain.ThemeDark
	got, err := repo.Update(ctx, domain.SettingsPatch{Theme: &theme})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := domain.DefaultSettings()
	want.Theme = domain.ThemeDark
	want.UpdatedAt = clock.Now()
	want.Dirty = true
	want.Version = 1
	if got != want {
		t.Errorf("Update = %+v, want %+v", got, want)
	}

	stored, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != want {
		t.Errorf("Get = %+v, want %+v", stored, want)
	}

	clock.Advance(time.Second)
	size := 32
	again, err := repo.Update(ctx, domain.SettingsPatch{ArabicFontSize: &size})
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if again.Version != 2 || again.ArabicFontSize != 32 || again.Theme != domain.ThemeDark {
		t.Errorf("second Update = %+v", again)
	}
}

func TestRepo_MarkClean(t *testing.T) {
	t.Parallel()
	repo := settings.New(testhelper.SetupTestDB(t), nil)
	ctx := context.Background()

	lang := "ar"
	s, err := repo.Update(ctx, domain.SettingsPatch{Language: &lang})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if ok, _ := repo.MarkClean(ctx, s.Version+1); ok {
		t.Error("MarkClean with wrong version succeeded")
	}
	ok, err := repo.MarkClean(ctx, s.Version)
	if err != nil || !ok {
		t.Fatalf("MarkClean: ok=%v err=%v", ok, err)
	}
	got, _ := repo.Get(ctx)
	if got.Dirty {
		t.Error("settings still dirty after MarkClean")
	}
}
