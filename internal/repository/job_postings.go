package repository

import (
	"context"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
)

var JobPostingSortColumns = SortColumns{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"postedAt":  "posted_at",
	"status":    "status",
}

type JobPostingFilter struct {
	CompanyID string
	Status    string
}

type JobPostingRepository struct {
	owned[models.JobPosting]
	companies owned[models.Company]
}

func NewJobPostingRepository(db *gorm.DB) *JobPostingRepository {
	return &JobPostingRepository{
		owned:     owned[models.JobPosting]{db: db, resource: "job posting"},
		companies: owned[models.Company]{db: db, resource: "company"},
	}
}

func (r *JobPostingRepository) List(ctx context.Context, userID string, f JobPostingFilter, p ListParams) (*Page[models.JobPosting], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "title", "location", "description"),
		Eq("company_id", f.CompanyID),
		Eq("status", f.Status),
	)
	return paginate[models.JobPosting](ctx, base, p, JobPostingSortColumns, "Company")
}

func (r *JobPostingRepository) Get(ctx context.Context, userID, id string) (*models.JobPosting, error) {
	return r.get(ctx, userID, id, "Company")
}

func (r *JobPostingRepository) Create(ctx context.Context, j *models.JobPosting) error {
	if err := r.companies.exists(r.db.WithContext(ctx), j.UserID, j.CompanyID); err != nil {
		return err
	}
	return r.create(ctx, j)
}

func (r *JobPostingRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.JobPosting, error) {
	if companyID, ok := fields["company_id"].(string); ok {
		if err := r.companies.exists(r.db.WithContext(ctx), userID, &companyID); err != nil {
			return nil, err
		}
	}
	if _, err := r.update(ctx, userID, id, fields); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// Delete removes the posting and clears it from opportunities.
func (r *JobPostingRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Opportunity{}).Where("job_posting_id = ? AND user_id = ?", id, userID).
			Update("job_posting_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.JobPosting{}).Error
	})
}
