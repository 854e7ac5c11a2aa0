package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every user-owned table.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every table, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &UserSettings{}, &SyncStatus{},
		&Company{}, &Contact{}, &JobPosting{},
		&Stage{}, &Category{},
		&Opportunity{}, &Conversation{}, &Message{},
		&Task{}, &Challenge{},
	}
}
