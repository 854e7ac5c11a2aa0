package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db       *gorm.DB
	settings owned[models.UserSettings]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db:       db,
		settings: owned[models.UserSettings]{db: db, resource: "settings"},
	}
}

// Ensure upserts the user row for an authenticated subject.
func (r *UserRepository) Ensure(ctx context.Context, id, email string) error {
	user := models.User{ID: id, Email: email, LastSeenAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "last_seen_at", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// Settings returns the user's settings, creating the defaults on first access.
func (r *UserRepository) Settings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := r.db.WithContext(ctx).
		Where(models.UserSettings{UserID: userID}).
		Attrs(models.UserSettings{Timezone: "UTC", DailyOutreachGoal: 5}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &settings, nil
}

func (r *UserRepository) UpdateSettings(ctx context.Context, userID string, fields map[string]any) (*models.UserSettings, error) {
	current, err := r.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.settings.update(ctx, userID, current.ID, fields)
}

// SyncStatus returns the bookmark for provider, creating an idle one when missing.
func (r *UserRepository) SyncStatus(ctx context.Context, userID, provider string) (*models.SyncStatus, error) {
	var status models.SyncStatus
	err := r.db.WithContext(ctx).
		Where(models.SyncStatus{UserID: userID, Provider: provider}).
		Attrs(models.SyncStatus{Status: models.SyncIdle}).
		FirstOrCreate(&status).Error
	if err != nil {
		return nil, fmt.Errorf("load sync status: %w", err)
	}
	return &status, nil
}

func (r *UserRepository) SyncStatuses(ctx context.Context, userID string) ([]models.SyncStatus, error) {
	var statuses []models.SyncStatus
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("provider asc").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("list sync statuses: %w", err)
	}
	return statuses, nil
}

func (r *UserRepository) SaveSyncStatus(ctx context.Context, status *models.SyncStatus) error {
	if err := r.db.WithContext(ctx).Save(status).Error; err != nil {
		return fmt.Errorf("save sync status: %w", err)
	}
	return nil
}
