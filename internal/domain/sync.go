package domain

import (
	"fmt"
	"time"
)

// SyncState is the process-local status of the sync coordinator.
type SyncState struct {
	LastSyncAt  *time.Time
	Status      SyncStatus
	LastError   string
	ItemsSynced int
}

// Label renders the state for display.
func (s SyncState) Label(now time.Time) string {
	switch s.Status {
	case SyncStatusSyncing:
		return "Syncing..."
	case SyncStatusError:
		if s.LastError != "" {
			return "Sync failed: " + s.LastError
		}
		return "Sync failed"
	case SyncStatusOffline:
		return "Offline, changes saved locally"
	case SyncStatusDisabled:
		return "Sync disabled"
	}

	if s.LastSyncAt == nil {
		return "Not synced yet"
	}
	return "Synced " + humanizeSince(now.Sub(*s.LastSyncAt))
}

func humanizeSince(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// Dashboard collects the derived read values shown on the home screen.
type Dashboard struct {
	DueCount  int
	Streak    int
	Progress  ProgressStats
	LastRead  *ReadingHistoryEntry
	Sync      SyncState
	SyncLabel string
}
