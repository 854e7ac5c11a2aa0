package models

import "time"

type Stage struct {
	Base
	UserID string `gorm:"size:64;not null;uniqueIndex:idx_stage_user_name" json:"userId"`
	Name   string `gorm:"not null;uniqueIndex:idx_stage_user_name" json:"name"`
	Order  int    `gorm:"column:sort_order" json:"order"`
	Color  string `json:"color"`
}

// Category.Position is assigned incrementally so it doubles as creation order.
type Category struct {
	Base
	UserID   string `gorm:"size:64;not null;uniqueIndex:idx_category_user_name" json:"userId"`
	Name     string `gorm:"not null;uniqueIndex:idx_category_user_name" json:"name"`
	Color    string `json:"color"`
	Position int    `gorm:"column:sort_order" json:"position"`
}

type Opportunity struct {
	Base
	UserID       string     `gorm:"size:64;not null;index" json:"userId"`
	Title        string     `gorm:"not null" json:"title"`
	StageID      string     `gorm:"size:36;not null;index" json:"stageId"`
	Stage        *Stage     `json:"stage,omitempty"`
	CategoryID   *string    `gorm:"size:36;index" json:"categoryId"`
	ContactID    *string    `gorm:"size:36;index" json:"contactId"`
	Contact      *Contact   `json:"contact,omitempty"`
	CompanyID    *string    `gorm:"size:36;index" json:"companyId"`
	Company      *Company   `json:"company,omitempty"`
	JobPostingID *string    `gorm:"size:36;index" json:"jobPostingId"`
	Value        *float64   `json:"value"`
	Notes        string     `gorm:"type:text" json:"notes"`
	NextStep     string     `json:"nextStep"`
	NextStepDate *time.Time `gorm:"index" json:"nextStepDate"`
}

var ConversationChannels = []string{"email", "linkedin", "phone", "in_person", "other"}

type Conversation struct {
	Base
	UserID        string     `gorm:"size:64;not null;index" json:"userId"`
	ContactID     string     `gorm:"size:36;not null;index" json:"contactId"`
	Contact       *Contact   `json:"contact,omitempty"`
	OpportunityID *string    `gorm:"size:36;index" json:"opportunityId"`
	StageID       *string    `gorm:"size:36;index" json:"stageId"`
	CategoryID    *string    `gorm:"size:36;index" json:"categoryId"`
	Subject       string     `json:"subject"`
	Channel       string     `gorm:"size:16;default:'email'" json:"channel"`
	Summary       string     `gorm:"type:text" json:"summary"`
	LastMessageAt *time.Time `json:"lastMessageAt"`
}

const (
	MessagePending   = "pending"
	MessageConfirmed = "confirmed"

	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

type Message struct {
	Base
	UserID         string    `gorm:"size:64;not null;index" json:"userId"`
	ConversationID string    `gorm:"size:36;not null;index" json:"conversationId"`
	Direction      string    `gorm:"size:16;not null" json:"direction"`
	Body           string    `gorm:"type:text" json:"body"`
	SentAt         time.Time `json:"sentAt"`
	Status         string    `gorm:"size:16;default:'pending'" json:"status"`
	ExternalID     *string   `gorm:"size:128;uniqueIndex" json:"externalId,omitempty"`
}

// ToggledStatus flips pending and confirmed.
func (m Message) ToggledStatus() string {
	if m.Status == MessageConfirmed {
		return MessagePending
	}
	return MessageConfirmed
}
