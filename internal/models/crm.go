package models

import "time"

type Company struct {
	Base
	UserID   string `gorm:"size:64;not null;uniqueIndex:idx_company_user_name" json:"userId"`
	Name     string `gorm:"not null;uniqueIndex:idx_company_user_name" json:"name"`
	Website  string `json:"website"`
	Industry string `gorm:"index" json:"industry"`
	Location string `json:"location"`
	Notes    string `gorm:"type:text" json:"notes"`
}

const (
	ContactSourceManual   = "manual"
	ContactSourceLinkedIn = "linkedin"
	ContactSourceGmail    = "gmail"
)

type Contact struct {
	Base
	UserID      string   `gorm:"size:64;not null;index" json:"userId"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `gorm:"index" json:"email"`
	Phone       string   `json:"phone"`
	Title       string   `json:"title"`
	LinkedInURL string   `gorm:"column:linkedin_url" json:"linkedinUrl"`
	CompanyID   *string  `gorm:"size:36;index" json:"companyId"`
	Company     *Company `gorm:"constraint:OnDelete:SET NULL" json:"company,omitempty"`
	Notes       string   `gorm:"type:text" json:"notes"`
	Source      string   `gorm:"size:16;default:'manual'" json:"source"`
}

// FullName joins first and last name, skipping blanks.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

var JobPostingStatuses = []string{"saved", "applied", "interviewing", "offer", "rejected", "archived"}

type JobPosting struct {
	Base
	UserID      string     `gorm:"size:64;not null;index" json:"userId"`
	CompanyID   *string    `gorm:"size:36;index" json:"companyId"`
	Company     *Company   `gorm:"constraint:OnDelete:SET NULL" json:"company,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	URL         string     `json:"url"`
	Location    string     `json:"location"`
	SalaryRange string     `json:"salaryRange"`
	Description string     `gorm:"type:text" json:"description"`
	TechStack   StringList `gorm:"type:text" json:"techStack"`
	Status      string     `gorm:"size:16;default:'saved'" json:"status"`
	PostedAt    *time.Time `json:"postedAt"`
}

const (
	TaskOpen = "open"
	TaskDone = "done"
)

type Task struct {
	Base
	UserID         string     `gorm:"size:64;not null;index" json:"userId"`
	Title          string     `gorm:"not null" json:"title"`
	Notes          string     `gorm:"type:text" json:"notes"`
	DueDate        *time.Time `gorm:"index" json:"dueDate"`
	Status         string     `gorm:"size:16;default:'open'" json:"status"`
	Priority       string     `gorm:"size:16;default:'medium'" json:"priority"`
	ConversationID *string    `gorm:"size:36;index" json:"conversationId"`
	OpportunityID  *string    `gorm:"size:36;index" json:"opportunityId"`
}

const ChallengeActive = "active"

type Challenge struct {
	Base
	UserID       string     `gorm:"size:64;not null;index" json:"userId"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	TargetCount  int        `json:"targetCount"`
	CurrentCount int        `json:"currentCount"`
	Status       string     `gorm:"size:16;default:'active'" json:"status"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}
