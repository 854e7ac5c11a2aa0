package dtos

import (
	"testing"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestListQuery_Params(t *testing.T) {
	assert.Equal(t, repository.ListParams{}, ListQuery{}.Params())

	p := ListQuery{Search: "go", Page: ptr(2), PageSize: ptr(50), SortBy: "name", SortDir: "asc"}.Params()
	assert.Equal(t, repository.ListParams{Search: "go", Page: 2, PageSize: 50, SortBy: "name", SortDir: "asc"}, p)

	p = ListQuery{Page: ptr(0), PageSize: ptr(0)}.Params()
	assert.Equal(t, -1, p.Page)
	assert.Equal(t, -1, p.PageSize)
}

func TestContactUpdateRequest_Fields(t *testing.T) {
	assert.Empty(t, ContactUpdateRequest{}.Fields())

	f := ContactUpdateRequest{FirstName: ptr("Ada"), Email: ptr(""), CompanyID: ptr("")}.Fields()
	assert.Equal(t, Fields{"first_name": "Ada", "email": "", "company_id": nil}, f)

	f = ContactUpdateRequest{CompanyID: ptr("c1")}.Fields()
	assert.Equal(t, Fields{"company_id": "c1"}, f)
}

func TestContactCreateRequest_Model(t *testing.T) {
	c := ContactCreateRequest{FirstName: "Ada", CompanyID: ptr("")}.Model("u1")
	assert.Equal(t, "u1", c.UserID)
	assert.Nil(t, c.CompanyID)
	assert.Equal(t, models.ContactSourceManual, c.Source)
}

func TestJobPostingUpdateRequest_TechStack(t *testing.T) {
	assert.NotContains(t, JobPostingUpdateRequest{}.Fields(), "tech_stack")

	f := JobPostingUpdateRequest{TechStack: []string{}}.Fields()
	assert.Equal(t, models.StringList{}, f["tech_stack"])
}

func TestTaskCreateRequest_Defaults(t *testing.T) {
	task := TaskCreateRequest{Title: "Call back", OpportunityID: ptr("")}.Model("u1")
	assert.Equal(t, models.TaskOpen, task.Status)
	assert.Equal(t, "medium", task.Priority)
	assert.Nil(t, task.OpportunityID)
}

func TestChallengeCreateRequest_StartDate(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	c := ChallengeCreateRequest{Title: "Ten intros", TargetCount: 10}.Model("u1", now)
	assert.Equal(t, now.UTC(), c.StartDate)
	assert.Equal(t, models.ChallengeActive, c.Status)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c = ChallengeCreateRequest{Title: "May", StartDate: &start}.Model("u1", now)
	assert.Equal(t, start, c.StartDate)
}
