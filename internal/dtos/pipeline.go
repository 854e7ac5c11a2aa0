package dtos

import (
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
)

type OpportunityCreateRequest struct {
	Title        string     `json:"title" binding:"required"`
	StageID      string     `json:"stageId" binding:"required"`
	CategoryID   *string    `json:"categoryId"`
	ContactID    *string    `json:"contactId"`
	CompanyID    *string    `json:"companyId"`
	JobPostingID *string    `json:"jobPostingId"`
	Value        *float64   `json:"value" binding:"omitempty,gte=0"`
	Notes        string     `json:"notes"`
	NextStep     string     `json:"nextStep"`
	NextStepDate *time.Time `json:"nextStepDate"`
}

func (r OpportunityCreateRequest) Model(userID string) *models.Opportunity {
	return &models.Opportunity{
		UserID:       userID,
		Title:        r.Title,
		StageID:      r.StageID,
		CategoryID:   optional(r.CategoryID),
		ContactID:    optional(r.ContactID),
		CompanyID:    optional(r.CompanyID),
		JobPostingID: optional(r.JobPostingID),
		Value:        r.Value,
		Notes:        r.Notes,
		NextStep:     r.NextStep,
		NextStepDate: r.NextStepDate,
	}
}

type OpportunityUpdateRequest struct {
	Title        *string    `json:"title" binding:"omitempty,min=1"`
	StageID      *string    `json:"stageId" binding:"omitempty,min=1"`
	CategoryID   *string    `json:"categoryId"`
	ContactID    *string    `json:"contactId"`
	CompanyID    *string    `json:"companyId"`
	JobPostingID *string    `json:"jobPostingId"`
	Value        *float64   `json:"value" binding:"omitempty,gte=0"`
	Notes        *string    `json:"notes"`
	NextStep     *string    `json:"nextStep"`
	NextStepDate *time.Time `json:"nextStepDate"`
}

func (r OpportunityUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "title", r.Title)
	put(f, "stage_id", r.StageID)
	ref(f, "category_id", r.CategoryID)
	ref(f, "contact_id", r.ContactID)
	ref(f, "company_id", r.CompanyID)
	ref(f, "job_posting_id", r.JobPostingID)
	put(f, "value", r.Value)
	put(f, "notes", r.Notes)
	put(f, "next_step", r.NextStep)
	put(f, "next_step_date", r.NextStepDate)
	return f
}

type OpportunityListQuery struct {
	ListQuery
	StageID    string `form:"stageId"`
	CategoryID string `form:"categoryId"`
	ContactID  string `form:"contactId"`
	CompanyID  string `form:"companyId"`
}

// MoveRequest is the body of a drag on the pipeline board.
type MoveRequest struct {
	StageID string `json:"stageId"`
}

type ConversationCreateRequest struct {
	ContactID     string  `json:"contactId" binding:"required"`
	OpportunityID *string `json:"opportunityId"`
	StageID       *string `json:"stageId"`
	CategoryID    *string `json:"categoryId"`
	Subject       string  `json:"subject"`
	Channel       string  `json:"channel" binding:"omitempty,oneof=email linkedin phone in_person other"`
	Summary       string  `json:"summary"`
}

func (r ConversationCreateRequest) Model(userID string) *models.Conversation {
	return &models.Conversation{
		UserID:        userID,
		ContactID:     r.ContactID,
		OpportunityID: optional(r.OpportunityID),
		StageID:       optional(r.StageID),
		CategoryID:    optional(r.CategoryID),
		Subject:       r.Subject,
		Channel:       orDefault(r.Channel, "email"),
		Summary:       r.Summary,
	}
}

type ConversationUpdateRequest struct {
	ContactID     *string `json:"contactId" binding:"omitempty,min=1"`
	OpportunityID *string `json:"opportunityId"`
	StageID       *string `json:"stageId"`
	CategoryID    *string `json:"categoryId"`
	Subject       *string `json:"subject"`
	Channel       *string `json:"channel" binding:"omitempty,oneof=email linkedin phone in_person other"`
	Summary       *string `json:"summary"`
}

func (r ConversationUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "contact_id", r.ContactID)
	ref(f, "opportunity_id", r.OpportunityID)
	ref(f, "stage_id", r.StageID)
	ref(f, "category_id", r.CategoryID)
	put(f, "subject", r.Subject)
	put(f, "channel", r.Channel)
	put(f, "summary", r.Summary)
	return f
}

type ConversationListQuery struct {
	ListQuery
	ContactID     string `form:"contactId"`
	OpportunityID string `form:"opportunityId"`
	StageID       string `form:"stageId"`
	CategoryID    string `form:"categoryId"`
	Channel       string `form:"channel" binding:"omitempty,oneof=email linkedin phone in_person other"`
}

type MessageCreateRequest struct {
	Direction string     `json:"direction" binding:"required,oneof=inbound outbound"`
	Body      string     `json:"body" binding:"required"`
	SentAt    *time.Time `json:"sentAt"`
	Status    string     `json:"status" binding:"omitempty,oneof=pending confirmed"`
}

func (r MessageCreateRequest) Model(userID, conversationID string) *models.Message {
	m := &models.Message{
		UserID:         userID,
		ConversationID: conversationID,
		Direction:      r.Direction,
		Body:           r.Body,
		Status:         orDefault(r.Status, models.MessageConfirmed),
	}
	if r.SentAt != nil {
		m.SentAt = r.SentAt.UTC()
	}
	return m
}

type MessageUpdateRequest struct {
	Direction *string    `json:"direction" binding:"omitempty,oneof=inbound outbound"`
	Body      *string    `json:"body" binding:"omitempty,min=1"`
	SentAt    *time.Time `json:"sentAt"`
	Status    *string    `json:"status" binding:"omitempty,oneof=pending confirmed"`
}

func (r MessageUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "direction", r.Direction)
	put(f, "body", r.Body)
	put(f, "sent_at", r.SentAt)
	put(f, "status", r.Status)
	return f
}

// StageRequest creates a stage or a category.
type StageRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,max=32"`
}

type StageUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color *string `json:"color" binding:"omitempty,max=32"`
	Order *int    `json:"order" binding:"omitempty,gte=0"`
}

func (r StageUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "name", r.Name)
	put(f, "color", r.Color)
	put(f, "sort_order", r.Order)
	return f
}

type CategoryUpdateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color    *string `json:"color" binding:"omitempty,max=32"`
	Position *int    `json:"position" binding:"omitempty,gte=0"`
}

func (r CategoryUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "name", r.Name)
	put(f, "color", r.Color)
	put(f, "sort_order", r.Position)
	return f
}

type SettingsUpdateRequest struct {
	Timezone          *string `json:"timezone" binding:"omitempty,timezone"`
	DailyOutreachGoal *int    `json:"dailyOutreachGoal" binding:"omitempty,gte=0,lte=100"`
	GmailSyncEnabled  *bool   `json:"gmailSyncEnabled"`
}

func (r SettingsUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "timezone", r.Timezone)
	put(f, "daily_outreach_goal", r.DailyOutreachGoal)
	put(f, "gmail_sync_enabled", r.GmailSyncEnabled)
	return f
}

// SessionRequest hands the provider's access token to the API so it can be kept in a cookie.
type SessionRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
}
