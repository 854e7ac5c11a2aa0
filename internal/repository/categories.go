package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository struct {
	owned[models.Category]
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{owned[models.Category]{db: db, resource: "category"}}
}

// All returns the user's categories in creation order.
func (r *CategoryRepository) All(ctx context.Context, userID string) ([]models.Category, error) {
	var categories []models.Category
	err := r.scoped(ctx, userID).Order("sort_order asc").Order("created_at asc").Order("id asc").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.create(ctx, c)
}

func (r *CategoryRepository) CreateMany(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return r.conflict(err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Category, error) {
	return r.update(ctx, userID, id, fields)
}

// Delete removes the category and clears it from conversations and opportunities.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		for _, m := range []any{&models.Conversation{}, &models.Opportunity{}} {
			if err := tx.Model(m).Where("category_id = ? AND user_id = ?", id, userID).
				Update("category_id", nil).Error; err != nil {
				return fmt.Errorf("detach category: %w", err)
			}
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Category{}).Error
	})
}

// MaxPosition returns the highest position in use, or -1 when the user has no categories.
func (r *CategoryRepository) MaxPosition(ctx context.Context, userID string) (int, error) {
	var highest sql.NullInt64
	if err := r.scoped(ctx, userID).Select("MAX(sort_order)").Row().Scan(&highest); err != nil {
		return 0, fmt.Errorf("highest category position: %w", err)
	}
	if !highest.Valid {
		return -1, nil
	}
	return int(highest.Int64), nil
}
