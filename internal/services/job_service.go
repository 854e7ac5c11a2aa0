package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
)

type JobPostingService struct {
	JobPostings *repository.JobPostingRepository
	Companies   *repository.CompanyRepository
	LLM         *LLMService
}

func NewJobPostingService(jobs *repository.JobPostingRepository, companies *repository.CompanyRepository, llm *LLMService) *JobPostingService {
	return &JobPostingService{JobPostings: jobs, Companies: companies, LLM: llm}
}

// Create stores a job posting. A companyName without companyId reuses or creates that company.
func (s *JobPostingService) Create(ctx context.Context, userID string, req *dtos.JobPostingCreateRequest) (*models.JobPosting, error) {
	job := req.Model(userID)
	if job.CompanyID == nil {
		company, err := resolveCompany(ctx, s.Companies, userID, req.CompanyName)
		if err != nil {
			return nil, err
		}
		if company != nil {
			job.CompanyID = &company.ID
		}
	}
	if err := s.JobPostings.Create(ctx, job); err != nil {
		return nil, err
	}
	return s.JobPostings.Get(ctx, userID, job.ID)
}

// Extract asks the model to read a job page.
func (s *JobPostingService) Extract(ctx context.Context, req *dtos.JobExtractionRequest) (json.RawMessage, error) {
	if s.LLM == nil {
		return nil, apperrors.Unavailable("job extraction is not configured")
	}
	return s.LLM.ExtractJobDetails(ctx, req.RawHTML, req.URL)
}

// resolveCompany returns nil for a blank name.
func resolveCompany(ctx context.Context, companies *repository.CompanyRepository, userID, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	existing, err := companies.FindByName(ctx, userID, name)
	if err != nil || existing != nil {
		return existing, err
	}
	return companies.FirstOrCreateByName(ctx, userID, name)
}
