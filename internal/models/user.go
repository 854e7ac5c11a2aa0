package models

import "time"

// User mirrors the identity provider's account; ID is the token subject.
type User struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Email      string    `gorm:"index" json:"email"`
	Name       string    `json:"name"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

type UserSettings struct {
	Base
	UserID            string `gorm:"size:64;not null;uniqueIndex" json:"userId"`
	Timezone          string `gorm:"default:'UTC'" json:"timezone"`
	DailyOutreachGoal int    `gorm:"default:5" json:"dailyOutreachGoal"`
	GmailSyncEnabled  bool   `json:"gmailSyncEnabled"`
}

const (
	SyncProviderGmail = "gmail"

	SyncIdle    = "idle"
	SyncRunning = "running"
	SyncFailed  = "failed"
)

// SyncStatus is the bookmark of an inbox import for one user and provider.
type SyncStatus struct {
	Base
	UserID        string     `gorm:"size:64;not null;uniqueIndex:idx_sync_user_provider" json:"userId"`
	Provider      string     `gorm:"size:32;not null;uniqueIndex:idx_sync_user_provider" json:"provider"`
	LastHistoryID uint64     `json:"lastHistoryId"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt,omitempty"`
	Status        string     `gorm:"size:16;default:'idle'" json:"status"`
	LastError     string     `gorm:"type:text" json:"lastError,omitempty"`
	ImportedCount int        `json:"importedCount"`
}
