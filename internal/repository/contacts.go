package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
)

var ContactSortColumns = SortColumns{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
}

type ContactFilter struct {
	CompanyID string
	Source    string
}

type ContactRepository struct {
	owned[models.Contact]
	companies owned[models.Company]
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{
		owned:     owned[models.Contact]{db: db, resource: "contact"},
		companies: owned[models.Company]{db: db, resource: "company"},
	}
}

func (r *ContactRepository) List(ctx context.Context, userID string, f ContactFilter, p ListParams) (*Page[models.Contact], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "first_name", "last_name", "email", "title"),
		Eq("company_id", f.CompanyID),
		Eq("source", f.Source),
	)
	return paginate[models.Contact](ctx, base, p, ContactSortColumns, "Company")
}

func (r *ContactRepository) Get(ctx context.Context, userID, id string) (*models.Contact, error) {
	return r.get(ctx, userID, id, "Company")
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	if err := r.companies.exists(r.db.WithContext(ctx), c.UserID, c.CompanyID); err != nil {
		return err
	}
	return r.create(ctx, c)
}

func (r *ContactRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Contact, error) {
	if companyID, ok := fields["company_id"].(string); ok {
		if err := r.companies.exists(r.db.WithContext(ctx), userID, &companyID); err != nil {
			return nil, err
		}
	}
	return r.update(ctx, userID, id, fields)
}

// Delete removes the contact together with its conversations and their messages.
func (r *ContactRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		var conversationIDs []string
		if err := tx.Model(&models.Conversation{}).Where("contact_id = ? AND user_id = ?", id, userID).
			Pluck("id", &conversationIDs).Error; err != nil {
			return fmt.Errorf("collect conversations: %w", err)
		}
		if err := deleteConversations(tx, userID, conversationIDs); err != nil {
			return err
		}
		if err := tx.Model(&models.Opportunity{}).Where("contact_id = ? AND user_id = ?", id, userID).
			Update("contact_id", nil).Error; err != nil {
			return fmt.Errorf("detach contact: %w", err)
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Contact{}).Error
	})
}

// FindByEmail matches case-insensitively; nil when nobody has that address.
func (r *ContactRepository) FindByEmail(ctx context.Context, userID, email string) (*models.Contact, error) {
	return r.findOne(ctx, userID, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *ContactRepository) FindByLinkedInURL(ctx context.Context, userID, url string) (*models.Contact, error) {
	return r.findOne(ctx, userID, "LOWER(linkedin_url) = ?", strings.ToLower(strings.TrimRight(strings.TrimSpace(url), "/")))
}

func (r *ContactRepository) findOne(ctx context.Context, userID, cond, value string) (*models.Contact, error) {
	if value == "" {
		return nil, nil
	}
	var contact models.Contact
	err := r.scoped(ctx, userID).Where(cond, value).Order("created_at asc").First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return &contact, nil
}
