package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StageRepository struct {
	owned[models.Stage]
}

func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{owned[models.Stage]{db: db, resource: "stage"}}
}

// All returns the user's stages in pipeline order.
func (r *StageRepository) All(ctx context.Context, userID string) ([]models.Stage, error) {
	var stages []models.Stage
	err := r.scoped(ctx, userID).Order("sort_order asc").Order("created_at asc").Order("id asc").Find(&stages).Error
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

func (r *StageRepository) Get(ctx context.Context, userID, id string) (*models.Stage, error) {
	return r.get(ctx, userID, id)
}

func (r *StageRepository) Create(ctx context.Context, s *models.Stage) error {
	return r.create(ctx, s)
}

// CreateMany bulk-inserts stages in one statement, skipping names that already exist.
func (r *StageRepository) CreateMany(ctx context.Context, stages []models.Stage) error {
	if len(stages) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&stages).Error; err != nil {
		return r.conflict(err)
	}
	return nil
}

func (r *StageRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Stage, error) {
	return r.update(ctx, userID, id, fields)
}

// Delete removes the stage and clears it from conversations. Callers make sure
// no opportunity still sits in it.
func (r *StageRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Conversation{}).Where("stage_id = ? AND user_id = ?", id, userID).
			Update("stage_id", nil).Error; err != nil {
			return fmt.Errorf("detach stage: %w", err)
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Stage{}).Error
	})
}

// MaxOrder returns the highest sort order in use, or -1 when the user has no stages.
func (r *StageRepository) MaxOrder(ctx context.Context, userID string) (int, error) {
	var highest sql.NullInt64
	if err := r.scoped(ctx, userID).Select("MAX(sort_order)").Row().Scan(&highest); err != nil {
		return 0, fmt.Errorf("highest stage order: %w", err)
	}
	if !highest.Valid {
		return -1, nil
	}
	return int(highest.Int64), nil
}
