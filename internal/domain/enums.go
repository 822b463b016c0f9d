package domain

// Confidence is the user's self-assessed memorization level of a verse.
// Ordered: new < learning ≈ shaky < good < solid.
type Confidence string

const (
	ConfidenceNew      Confidence = "new"
	ConfidenceLearning Confidence = "learning"
	ConfidenceShaky    Confidence = "shaky"
	ConfidenceGood     Confidence = "good"
	ConfidenceSolid    Confidence = "solid"
)

func (c Confidence) String() string { return string(c) }

func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceNew, ConfidenceLearning, ConfidenceShaky, ConfidenceGood, ConfidenceSolid:
		return true
	}
	return false
}

// Rank orders confidence levels; learning and shaky share a rank.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLearning, ConfidenceShaky:
		return 1
	case ConfidenceGood:
		return 2
	case ConfidenceSolid:
		return 3
	default:
		return 0
	}
}

// IsMemorized reports whether the verse counts as memorized (good or solid).
func (c Confidence) IsMemorized() bool { return c.Rank() >= 2 }

// AllConfidences lists the levels in ascending order.
func AllConfidences() []Confidence {
	return []Confidence{ConfidenceNew, ConfidenceLearning, ConfidenceShaky, ConfidenceGood, ConfidenceSolid}
}

// ReadingMode is how a chapter was being read when a visit was recorded.
type ReadingMode string

const (
	ReadingModeTranslation  ReadingMode = "translation"
	ReadingModeReading      ReadingMode = "reading"
	ReadingModeMemorization ReadingMode = "memorization"
	ReadingModeListening    ReadingMode = "listening"
)

func (m ReadingMode) String() string { return string(m) }

func (m ReadingMode) IsValid() bool {
	switch m {
	case ReadingModeTranslation, ReadingModeReading, ReadingModeMemorization, ReadingModeListening:
		return true
	}
	return false
}

// SyncStatus is the state of the sync coordinator.
type SyncStatus string

const (
	SyncStatusIdle     SyncStatus = "idle"
	SyncStatusSyncing  SyncStatus = "syncing"
	SyncStatusSuccess  SyncStatus = "success"
	SyncStatusError    SyncStatus = "error"
	SyncStatusOffline  SyncStatus = "offline"
	SyncStatusDisabled SyncStatus = "disabled"
)

func (s SyncStatus) String() string { return string(s) }

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusIdle, SyncStatusSyncing, SyncStatusSuccess, SyncStatusError, SyncStatusOffline, SyncStatusDisabled:
		return true
	}
	return false
}

// Theme is the UI color theme stored in settings.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSepia  Theme = "sepia"
	ThemeSystem Theme = "system"
)

func (t Theme) String() string { return string(t) }

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSepia, ThemeSystem:
		return true
	}
	return false
}
