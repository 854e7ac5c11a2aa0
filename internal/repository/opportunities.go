package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
)

var OpportunitySortColumns = SortColumns{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"title":        "title",
	"nextStepDate": "next_step_date",
	"value":        "value",
}

type OpportunityFilter struct {
	StageID    string
	CategoryID string
	ContactID  string
	CompanyID  string
}

type OpportunityRepository struct {
	owned[models.Opportunity]
	stages      owned[models.Stage]
	categories  owned[models.Category]
	contacts    owned[models.Contact]
	companies   owned[models.Company]
	jobPostings owned[models.JobPosting]
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{
		owned:       owned[models.Opportunity]{db: db, resource: "opportunity"},
		stages:      owned[models.Stage]{db: db, resource: "stage"},
		categories:  owned[models.Category]{db: db, resource: "category"},
		contacts:    owned[models.Contact]{db: db, resource: "contact"},
		companies:   owned[models.Company]{db: db, resource: "company"},
		jobPostings: owned[models.JobPosting]{db: db, resource: "job posting"},
	}
}

func (r *OpportunityRepository) List(ctx context.Context, userID string, f OpportunityFilter, p ListParams) (*Page[models.Opportunity], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "title", "notes", "next_step"),
		Eq("stage_id", f.StageID),
		Eq("category_id", f.CategoryID),
		Eq("contact_id", f.ContactID),
		Eq("company_id", f.CompanyID),
	)
	return paginate[models.Opportunity](ctx, base, p, OpportunitySortColumns, "Stage", "Contact", "Company")
}

func (r *OpportunityRepository) Get(ctx context.Context, userID, id string) (*models.Opportunity, error) {
	return r.get(ctx, userID, id, "Stage", "Contact", "Company")
}

func (r *OpportunityRepository) checkRefs(tx *gorm.DB, userID string, stageID, categoryID, contactID, companyID, jobPostingID *string) error {
	checks := []struct {
		check func(*gorm.DB, string, *string) error
		id    *string
	}{
		{r.stages.exists, stageID},
		{r.categories.exists, categoryID},
		{r.contacts.exists, contactID},
		{r.companies.exists, companyID},
		{r.jobPostings.exists, jobPostingID},
	}
	for _, c := range checks {
		if err := c.check(tx, userID, c.id); err != nil {
			return err
		}
	}
	return nil
}

func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	if o.StageID == "" {
		return apperrors.BadRequest("stageId is required")
	}
	err := r.checkRefs(r.db.WithContext(ctx), o.UserID, &o.StageID, o.CategoryID, o.ContactID, o.CompanyID, o.JobPostingID)
	if err != nil {
		return err
	}
	return r.create(ctx, o)
}

func (r *OpportunityRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Opportunity, error) {
	ref := func(key string) *string {
		if v, ok := fields[key].(string); ok {
			return &v
		}
		return nil
	}
	err := r.checkRefs(r.db.WithContext(ctx), userID,
		ref("stage_id"), ref("category_id"), ref("contact_id"), ref("company_id"), ref("job_posting_id"))
	if err != nil {
		return nil, err
	}
	if _, err := r.update(ctx, userID, id, fields); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// Delete removes the opportunity and every conversation linked to it.
func (r *OpportunityRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		var conversationIDs []string
		if err := tx.Model(&models.Conversation{}).Where("opportunity_id = ? AND user_id = ?", id, userID).
			Pluck("id", &conversationIDs).Error; err != nil {
			return fmt.Errorf("collect conversations: %w", err)
		}
		if err := deleteConversations(tx, userID, conversationIDs); err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("opportunity_id = ? AND user_id = ?", id, userID).
			Update("opportunity_id", nil).Error; err != nil {
			return fmt.Errorf("detach tasks: %w", err)
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Opportunity{}).Error
	})
}

// MoveToStage sets the opportunity's stage. Any stage of the same user is a valid target.
func (r *OpportunityRepository) MoveToStage(ctx context.Context, userID, id, stageID string) (*models.Opportunity, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.stages.exists(tx, userID, &stageID); err != nil {
			return err
		}
		opp, err := r.getTx(tx, userID, id)
		if err != nil {
			return err
		}
		return tx.Model(opp).Update("stage_id", stageID).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// InStages returns every opportunity of the user grouped by stage id.
func (r *OpportunityRepository) InStages(ctx context.Context, userID string) (map[string][]models.Opportunity, error) {
	var opps []models.Opportunity
	err := r.scoped(ctx, userID).
		Preload("Contact").Preload("Company").
		Order("updated_at desc").Order("id asc").
		Find(&opps).Error
	if err != nil {
		return nil, fmt.Errorf("list pipeline: %w", err)
	}
	byStage := make(map[string][]models.Opportunity)
	for _, o := range opps {
		byStage[o.StageID] = append(byStage[o.StageID], o)
	}
	return byStage, nil
}

// NextStepsDue returns opportunities whose next step falls on or before until.
func (r *OpportunityRepository) NextStepsDue(ctx context.Context, userID string, until time.Time) ([]models.Opportunity, error) {
	var opps []models.Opportunity
	err := r.scoped(ctx, userID).
		Preload("Stage").Preload("Contact").
		Where("next_step_date IS NOT NULL AND next_step_date <= ?", until).
		Order("next_step_date asc").Order("id asc").
		Find(&opps).Error
	if err != nil {
		return nil, fmt.Errorf("list due opportunities: %w", err)
	}
	return opps, nil
}

// CountInStage is used to refuse deleting a stage that still holds opportunities.
func (r *OpportunityRepository) CountInStage(ctx context.Context, userID, stageID string) (int64, error) {
	var count int64
	if err := r.scoped(ctx, userID).Where("stage_id = ?", stageID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count stage opportunities: %w", err)
	}
	return count, nil
}

// CreateForConversation stores o and links the conversation to it in one transaction.
// It reports false when the conversation was linked by someone else in the meantime.
func (r *OpportunityRepository) CreateForConversation(ctx context.Context, o *models.Opportunity, conversationID string) (bool, error) {
	linked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return r.conflict(err)
		}
		res := tx.Model(&models.Conversation{}).
			Where("id = ? AND user_id = ? AND opportunity_id IS NULL", conversationID, o.UserID).
			Update("opportunity_id", o.ID)
		if res.Error != nil {
			return fmt.Errorf("link conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Roll back the opportunity; the conversation is already linked.
			return errAlreadyLinked
		}
		linked = true
		return nil
	})
	if errors.Is(err, errAlreadyLinked) {
		return false, nil
	}
	return linked, err
}

var errAlreadyLinked = errors.New("conversation already linked")
