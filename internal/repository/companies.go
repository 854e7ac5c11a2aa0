package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
)

var CompanySortColumns = SortColumns{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"industry":  "industry",
}

type CompanyFilter struct {
	Industry string
}

type CompanyRepository struct {
	owned[models.Company]
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{owned[models.Company]{db: db, resource: "company"}}
}

func (r *CompanyRepository) List(ctx context.Context, userID string, f CompanyFilter, p ListParams) (*Page[models.Company], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "name", "industry", "location", "website"),
		Eq("industry", f.Industry),
	)
	return paginate[models.Company](ctx, base, p, CompanySortColumns)
}

func (r *CompanyRepository) Get(ctx context.Context, userID, id string) (*models.Company, error) {
	return r.get(ctx, userID, id)
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	return r.create(ctx, c)
}

func (r *CompanyRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Company, error) {
	return r.update(ctx, userID, id, fields)
}

// Delete removes the company and detaches everything that pointed at it.
func (r *CompanyRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		for _, m := range []any{&models.Contact{}, &models.JobPosting{}, &models.Opportunity{}} {
			if err := tx.Model(m).Where("company_id = ? AND user_id = ?", id, userID).
				Update("company_id", nil).Error; err != nil {
				return fmt.Errorf("detach company: %w", err)
			}
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Company{}).Error
	})
}

// FirstOrCreateByName returns the user's company with that exact name, creating it when missing.
func (r *CompanyRepository) FirstOrCreateByName(ctx context.Context, userID, name string) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Where(models.Company{UserID: userID, Name: name}).
		FirstOrCreate(&company).Error
	if err != nil {
		return nil, fmt.Errorf("first or create company: %w", err)
	}
	return &company, nil
}

// FindByName does a case-insensitive exact match.
func (r *CompanyRepository) FindByName(ctx context.Context, userID, name string) (*models.Company, error) {
	var company models.Company
	err := r.scoped(ctx, userID).Where("LOWER(name) = LOWER(?)", name).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find company by name: %w", err)
	}
	return &company, nil
}

// All returns every company of the user, used by the inbox matcher.
func (r *CompanyRepository) All(ctx context.Context, userID string) ([]models.Company, error) {
	var companies []models.Company
	if err := r.scoped(ctx, userID).Order("name asc").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}
