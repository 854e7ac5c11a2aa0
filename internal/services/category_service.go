package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"go.uber.org/zap"
)

var DefaultCategories = []string{
	"Recruiter",
	"Hiring manager",
	"Referral",
	"Networking",
	"Other",
}

type CategoryService struct {
	Categories *repository.CategoryRepository
	Log        *zap.Logger
}

func NewCategoryService(categories *repository.CategoryRepository, log *zap.Logger) *CategoryService {
	return &CategoryService{Categories: categories, Log: log}
}

// EnsureDefaultCategories inserts the missing default categories and returns
// the user's categories in creation order.
func (s *CategoryService) EnsureDefaultCategories(ctx context.Context, userID string) ([]models.Category, error) {
	existing, err := s.Categories.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(existing))
	for i, c := range existing {
		names[i] = c.Name
	}
	missing := missingNames(names, DefaultCategories)
	if len(missing) == 0 {
		return existing, nil
	}

	next, err := s.Categories.MaxPosition(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, len(missing))
	for i, name := range missing {
		next++
		categories[i] = models.Category{UserID: userID, Name: name, Position: next}
	}
	if err := s.Categories.CreateMany(ctx, categories); err != nil {
		return nil, err
	}
	s.Log.Info("seeded default categories", zap.String("user_id", userID), zap.Int("count", len(categories)))
	return s.Categories.All(ctx, userID)
}

func (s *CategoryService) List(ctx context.Context, userID string, ensureDefaults bool) ([]models.Category, error) {
	if ensureDefaults {
		return s.EnsureDefaultCategories(ctx, userID)
	}
	return s.Categories.All(ctx, userID)
}

func (s *CategoryService) Create(ctx context.Context, userID, name, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if err := s.checkName(ctx, userID, "", name); err != nil {
		return nil, err
	}
	last, err := s.Categories.MaxPosition(ctx, userID)
	if err != nil {
		return nil, err
	}
	category := &models.Category{UserID: userID, Name: name, Color: color, Position: last + 1}
	if err := s.Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Category, error) {
	if name, ok := fields["name"].(string); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.BadRequest("name is required")
		}
		if err := s.checkName(ctx, userID, id, name); err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	return s.Categories.Update(ctx, userID, id, fields)
}

func (s *CategoryService) checkName(ctx context.Context, userID, selfID, name string) error {
	existing, err := s.Categories.All(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if c.ID != selfID && strings.EqualFold(c.Name, name) {
			return apperrors.BadRequest(fmt.Sprintf("category %q already exists", name))
		}
	}
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	return s.Categories.Delete(ctx, userID, id)
}
