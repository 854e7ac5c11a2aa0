package repository

import (
	"context"
	"fmt"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
)

var ChallengeSortColumns = SortColumns{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"startDate": "start_date",
	"endDate":   "end_date",
	"title":     "title",
}

type ChallengeFilter struct {
	Status string
}

type ChallengeRepository struct {
	owned[models.Challenge]
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{owned[models.Challenge]{db: db, resource: "challenge"}}
}

func (r *ChallengeRepository) List(ctx context.Context, userID string, f ChallengeFilter, p ListParams) (*Page[models.Challenge], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "title", "description"),
		Eq("status", f.Status),
	)
	return paginate[models.Challenge](ctx, base, p, ChallengeSortColumns)
}

func (r *ChallengeRepository) Get(ctx context.Context, userID, id string) (*models.Challenge, error) {
	return r.get(ctx, userID, id)
}

func (r *ChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	return r.create(ctx, c)
}

func (r *ChallengeRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Challenge, error) {
	return r.update(ctx, userID, id, fields)
}

func (r *ChallengeRepository) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, userID, id)
}

func (r *ChallengeRepository) Active(ctx context.Context, userID string) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.scoped(ctx, userID).
		Where("status = ?", models.ChallengeActive).
		Order("start_date asc").Order("id asc").
		Find(&challenges).Error
	if err != nil {
		return nil, fmt.Errorf("list active challenges: %w", err)
	}
	return challenges, nil
}
