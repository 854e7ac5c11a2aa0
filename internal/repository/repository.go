package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"gorm.io/gorm"
)

// owned holds the CRUD plumbing shared by every table that is scoped by user_id.
type owned[T any] struct {
	db       *gorm.DB
	resource string
}

func (o owned[T]) scoped(ctx context.Context, userID string) *gorm.DB {
	return o.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", userID)
}

func (o owned[T]) get(ctx context.Context, userID, id string, preload ...string) (*T, error) {
	return o.getTx(o.db.WithContext(ctx), userID, id, preload...)
}

func (o owned[T]) getTx(tx *gorm.DB, userID, id string, preload ...string) (*T, error) {
	q := tx.Where("id = ? AND user_id = ?", id, userID)
	for _, assoc := range preload {
		q = q.Preload(assoc)
	}
	var v T
	if err := q.First(&v).Error; err != nil {
		return nil, o.notFound(err)
	}
	return &v, nil
}

// exists reports a 404 for resource unless id belongs to userID. Empty ids pass.
func (o owned[T]) exists(tx *gorm.DB, userID string, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	var count int64
	if err := tx.Model(new(T)).Where("id = ? AND user_id = ?", *id, userID).Count(&count).Error; err != nil {
		return fmt.Errorf("check %s: %w", o.resource, err)
	}
	if count == 0 {
		return apperrors.NotFound(o.resource)
	}
	return nil
}

func (o owned[T]) create(ctx context.Context, v *T) error {
	if err := o.db.WithContext(ctx).Create(v).Error; err != nil {
		return o.conflict(err)
	}
	return nil
}

func (o owned[T]) update(ctx context.Context, userID, id string, fields map[string]any) (*T, error) {
	v, err := o.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return v, nil
	}
	if err := o.db.WithContext(ctx).Model(v).Updates(fields).Error; err != nil {
		return nil, o.conflict(err)
	}
	return o.get(ctx, userID, id)
}

func (o owned[T]) delete(ctx context.Context, userID, id string) error {
	res := o.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", o.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(o.resource)
	}
	return nil
}

func (o owned[T]) notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(o.resource)
	}
	return fmt.Errorf("load %s: %w", o.resource, err)
}

func (o owned[T]) conflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.BadRequest(o.resource + " with that name already exists").Wrap(err)
	}
	return fmt.Errorf("save %s: %w", o.resource, err)
}
