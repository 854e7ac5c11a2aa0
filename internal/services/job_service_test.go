package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobPostingService_CreateResolvesCompany(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	existing := r.company(t, "u1", "Stripe")
	svc := NewJobPostingService(r.jobPostings, r.companies, nil)

	job, err := svc.Create(ctx, "u1", &dtos.JobPostingCreateRequest{
		Title:       "Backend engineer",
		CompanyName: "  stripe ",
		TechStack:   []string{"Go", "Postgres"},
	})
	require.NoError(t, err)
	require.NotNil(t, job.CompanyID)
	assert.Equal(t, existing.ID, *job.CompanyID)
	assert.Equal(t, "saved", job.Status)
	assert.Equal(t, []string{"Go", "Postgres"}, []string(job.TechStack))

	job, err = svc.Create(ctx, "u1", &dtos.JobPostingCreateRequest{Title: "SRE", CompanyName: "Linear"})
	require.NoError(t, err)
	require.NotNil(t, job.Company)
	assert.Equal(t, "Linear", job.Company.Name)

	job, err = svc.Create(ctx, "u1", &dtos.JobPostingCreateRequest{Title: "Anywhere"})
	require.NoError(t, err)
	assert.Nil(t, job.CompanyID)
	assert.NotNil(t, job.TechStack)
}

func TestJobPostingService_ExtractNeedsModel(t *testing.T) {
	r := newRepos(t)
	svc := NewJobPostingService(r.jobPostings, r.companies, nil)
	_, err := svc.Extract(context.Background(), &dtos.JobExtractionRequest{RawHTML: "<html/>"})
	requireStatus(t, err, http.StatusServiceUnavailable)

	svc.LLM = &LLMService{Client: &fakeModel{chunks: []string{`{"title":"SRE","techStack":["Go"]}`}}}
	raw, err := svc.Extract(context.Background(), &dtos.JobExtractionRequest{RawHTML: "<html/>"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"SRE","techStack":["Go"]}`, string(raw))
}

func TestContactService_Create(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := NewContactService(r.contacts, r.companies)

	contact, err := svc.Create(ctx, "u1", &dtos.ContactCreateRequest{FirstName: "Ada", CompanyName: "Analytical Engines"})
	require.NoError(t, err)
	assert.Equal(t, "manual", contact.Source)
	require.NotNil(t, contact.Company)
	assert.Equal(t, "Analytical Engines", contact.Company.Name)

	other := r.company(t, "u2", "Theirs")
	_, err = svc.Create(ctx, "u1", &dtos.ContactCreateRequest{FirstName: "Eve", CompanyID: &other.ID})
	requireStatus(t, err, http.StatusNotFound)
}
