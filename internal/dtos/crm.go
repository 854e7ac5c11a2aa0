package dtos

import (
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
)

type CompanyCreateRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Website  string `json:"website" binding:"omitempty,url"`
	Industry string `json:"industry"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (r CompanyCreateRequest) Model(userID string) *models.Company {
	return &models.Company{
		UserID:   userID,
		Name:     r.Name,
		Website:  r.Website,
		Industry: r.Industry,
		Location: r.Location,
		Notes:    r.Notes,
	}
}

type CompanyUpdateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=200"`
	Website  *string `json:"website"`
	Industry *string `json:"industry"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}

func (r CompanyUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "name", r.Name)
	put(f, "website", r.Website)
	put(f, "industry", r.Industry)
	put(f, "location", r.Location)
	put(f, "notes", r.Notes)
	return f
}

type CompanyListQuery struct {
	ListQuery
	Industry string `form:"industry"`
}

type ContactCreateRequest struct {
	FirstName   string  `json:"firstName" binding:"required_without=LastName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Phone       string  `json:"phone"`
	Title       string  `json:"title"`
	LinkedInURL string  `json:"linkedinUrl" binding:"omitempty,url"`
	CompanyID   *string `json:"companyId"`
	// CompanyName finds or creates the company when no companyId is given.
	CompanyName string `json:"companyName"`
	Notes       string `json:"notes"`
	Source      string `json:"source" binding:"omitempty,oneof=manual linkedin gmail"`
}

func (r ContactCreateRequest) Model(userID string) *models.Contact {
	return &models.Contact{
		UserID:      userID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Title:       r.Title,
		LinkedInURL: r.LinkedInURL,
		CompanyID:   optional(r.CompanyID),
		Notes:       r.Notes,
		Source:      orDefault(r.Source, models.ContactSourceManual),
	}
}

type ContactUpdateRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	Title       *string `json:"title"`
	LinkedInURL *string `json:"linkedinUrl"`
	CompanyID   *string `json:"companyId"`
	Notes       *string `json:"notes"`
}

func (r ContactUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "first_name", r.FirstName)
	put(f, "last_name", r.LastName)
	put(f, "email", r.Email)
	put(f, "phone", r.Phone)
	put(f, "title", r.Title)
	put(f, "linkedin_url", r.LinkedInURL)
	ref(f, "company_id", r.CompanyID)
	put(f, "notes", r.Notes)
	return f
}

type ContactListQuery struct {
	ListQuery
	CompanyID string `form:"companyId"`
	Source    string `form:"source" binding:"omitempty,oneof=manual linkedin gmail"`
}

type JobPostingCreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	CompanyID   *string    `json:"companyId"`
	CompanyName string     `json:"companyName"`
	URL         string     `json:"url" binding:"omitempty,url"`
	Location    string     `json:"location"`
	SalaryRange string     `json:"salaryRange"`
	Description string     `json:"description"`
	TechStack   []string   `json:"techStack"`
	Status      string     `json:"status" binding:"omitempty,oneof=saved applied interviewing offer rejected archived"`
	PostedAt    *time.Time `json:"postedAt"`
}

func (r JobPostingCreateRequest) Model(userID string) *models.JobPosting {
	return &models.JobPosting{
		UserID:      userID,
		CompanyID:   optional(r.CompanyID),
		Title:       r.Title,
		URL:         r.URL,
		Location:    r.Location,
		SalaryRange: r.SalaryRange,
		Description: r.Description,
		TechStack:   models.StringList(r.TechStack),
		Status:      orDefault(r.Status, "saved"),
		PostedAt:    r.PostedAt,
	}
}

type JobPostingUpdateRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1"`
	CompanyID   *string    `json:"companyId"`
	URL         *string    `json:"url"`
	Location    *string    `json:"location"`
	SalaryRange *string    `json:"salaryRange"`
	Description *string    `json:"description"`
	TechStack   []string   `json:"techStack"`
	Status      *string    `json:"status" binding:"omitempty,oneof=saved applied interviewing offer rejected archived"`
	PostedAt    *time.Time `json:"postedAt"`
}

func (r JobPostingUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "title", r.Title)
	ref(f, "company_id", r.CompanyID)
	put(f, "url", r.URL)
	put(f, "location", r.Location)
	put(f, "salary_range", r.SalaryRange)
	put(f, "description", r.Description)
	if r.TechStack != nil {
		f["tech_stack"] = models.StringList(r.TechStack)
	}
	put(f, "status", r.Status)
	put(f, "posted_at", r.PostedAt)
	return f
}

type JobPostingListQuery struct {
	ListQuery
	CompanyID string `form:"companyId"`
	Status    string `form:"status" binding:"omitempty,oneof=saved applied interviewing offer rejected archived"`
}

// JobExtractionRequest carries the raw page of a job ad for the model to read.
type JobExtractionRequest struct {
	RawHTML string `json:"rawHtml" binding:"required"`
	URL     string `json:"url"`
}

type TaskCreateRequest struct {
	Title          string     `json:"title" binding:"required"`
	Notes          string     `json:"notes"`
	DueDate        *time.Time `json:"dueDate"`
	Status         string     `json:"status" binding:"omitempty,oneof=open done"`
	Priority       string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	ConversationID *string    `json:"conversationId"`
	OpportunityID  *string    `json:"opportunityId"`
}

func (r TaskCreateRequest) Model(userID string) *models.Task {
	return &models.Task{
		UserID:         userID,
		Title:          r.Title,
		Notes:          r.Notes,
		DueDate:        r.DueDate,
		Status:         orDefault(r.Status, models.TaskOpen),
		Priority:       orDefault(r.Priority, "medium"),
		ConversationID: optional(r.ConversationID),
		OpportunityID:  optional(r.OpportunityID),
	}
}

type TaskUpdateRequest struct {
	Title          *string    `json:"title" binding:"omitempty,min=1"`
	Notes          *string    `json:"notes"`
	DueDate        *time.Time `json:"dueDate"`
	Status         *string    `json:"status" binding:"omitempty,oneof=open done"`
	Priority       *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	ConversationID *string    `json:"conversationId"`
	OpportunityID  *string    `json:"opportunityId"`
}

func (r TaskUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "title", r.Title)
	put(f, "notes", r.Notes)
	put(f, "due_date", r.DueDate)
	put(f, "status", r.Status)
	put(f, "priority", r.Priority)
	ref(f, "conversation_id", r.ConversationID)
	ref(f, "opportunity_id", r.OpportunityID)
	return f
}

type TaskListQuery struct {
	ListQuery
	Status         string `form:"status" binding:"omitempty,oneof=open done"`
	Priority       string `form:"priority" binding:"omitempty,oneof=low medium high"`
	ConversationID string `form:"conversationId"`
	OpportunityID  string `form:"opportunityId"`
}

type ChallengeCreateRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	TargetCount  int        `json:"targetCount" binding:"gte=0"`
	CurrentCount int        `json:"currentCount" binding:"gte=0"`
	Status       string     `json:"status" binding:"omitempty,oneof=active completed abandoned"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

func (r ChallengeCreateRequest) Model(userID string, now time.Time) *models.Challenge {
	start := now.UTC()
	if r.StartDate != nil {
		start = r.StartDate.UTC()
	}
	return &models.Challenge{
		UserID:       userID,
		Title:        r.Title,
		Description:  r.Description,
		TargetCount:  r.TargetCount,
		CurrentCount: r.CurrentCount,
		Status:       orDefault(r.Status, models.ChallengeActive),
		StartDate:    start,
		EndDate:      r.EndDate,
	}
}

type ChallengeUpdateRequest struct {
	Title        *string    `json:"title" binding:"omitempty,min=1"`
	Description  *string    `json:"description"`
	TargetCount  *int       `json:"targetCount" binding:"omitempty,gte=0"`
	CurrentCount *int       `json:"currentCount" binding:"omitempty,gte=0"`
	Status       *string    `json:"status" binding:"omitempty,oneof=active completed abandoned"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

func (r ChallengeUpdateRequest) Fields() Fields {
	f := Fields{}
	put(f, "title", r.Title)
	put(f, "description", r.Description)
	put(f, "target_count", r.TargetCount)
	put(f, "current_count", r.CurrentCount)
	put(f, "status", r.Status)
	put(f, "start_date", r.StartDate)
	put(f, "end_date", r.EndDate)
	return f
}

type ChallengeListQuery struct {
	ListQuery
	Status string `form:"status" binding:"omitempty,oneof=active completed abandoned"`
}
