package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"gorm.io/gorm"
)

var TaskSortColumns = SortColumns{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"dueDate":   "due_date",
	"title":     "title",
	"priority":  "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
}

type TaskFilter struct {
	Status         string
	Priority       string
	ConversationID string
	OpportunityID  string
}

type TaskRepository struct {
	owned[models.Task]
	conversations owned[models.Conversation]
	opportunities owned[models.Opportunity]
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		owned:         owned[models.Task]{db: db, resource: "task"},
		conversations: owned[models.Conversation]{db: db, resource: "conversation"},
		opportunities: owned[models.Opportunity]{db: db, resource: "opportunity"},
	}
}

func (r *TaskRepository) List(ctx context.Context, userID string, f TaskFilter, p ListParams) (*Page[models.Task], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "title", "notes"),
		Eq("status", f.Status),
		Eq("priority", f.Priority),
		Eq("conversation_id", f.ConversationID),
		Eq("opportunity_id", f.OpportunityID),
	)
	return paginate[models.Task](ctx, base, p, TaskSortColumns)
}

func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	return r.get(ctx, userID, id)
}

func (r *TaskRepository) checkRefs(ctx context.Context, userID string, conversationID, opportunityID *string) error {
	tx := r.db.WithContext(ctx)
	if err := r.conversations.exists(tx, userID, conversationID); err != nil {
		return err
	}
	return r.opportunities.exists(tx, userID, opportunityID)
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	if err := r.checkRefs(ctx, t.UserID, t.ConversationID, t.OpportunityID); err != nil {
		return err
	}
	return r.create(ctx, t)
}

func (r *TaskRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Task, error) {
	ref := func(key string) *string {
		if v, ok := fields[key].(string); ok {
			return &v
		}
		return nil
	}
	if err := r.checkRefs(ctx, userID, ref("conversation_id"), ref("opportunity_id")); err != nil {
		return nil, err
	}
	return r.update(ctx, userID, id, fields)
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	return r.delete(ctx, userID, id)
}

// OpenDueBy returns open tasks due on or before until, earliest first.
func (r *TaskRepository) OpenDueBy(ctx context.Context, userID string, until time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.scoped(ctx, userID).
		Where("status = ? AND due_date IS NOT NULL AND due_date <= ?", models.TaskOpen, until).
		Order("due_date asc").Order("id asc").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}
