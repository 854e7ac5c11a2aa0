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

var ConversationSortColumns = SortColumns{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"lastMessageAt": "last_message_at",
	"subject":       "subject",
}

type ConversationFilter struct {
	ContactID     string
	OpportunityID string
	StageID       string
	CategoryID    string
	Channel       string
}

type ConversationRepository struct {
	owned[models.Conversation]
	messages      owned[models.Message]
	contacts      owned[models.Contact]
	opportunities owned[models.Opportunity]
	stages        owned[models.Stage]
	categories    owned[models.Category]
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{
		owned:         owned[models.Conversation]{db: db, resource: "conversation"},
		messages:      owned[models.Message]{db: db, resource: "message"},
		contacts:      owned[models.Contact]{db: db, resource: "contact"},
		opportunities: owned[models.Opportunity]{db: db, resource: "opportunity"},
		stages:        owned[models.Stage]{db: db, resource: "stage"},
		categories:    owned[models.Category]{db: db, resource: "category"},
	}
}

func (r *ConversationRepository) List(ctx context.Context, userID string, f ConversationFilter, p ListParams) (*Page[models.Conversation], error) {
	base := r.scoped(ctx, userID).Scopes(
		Search(p.Search, "subject", "summary"),
		Eq("contact_id", f.ContactID),
		Eq("opportunity_id", f.OpportunityID),
		Eq("stage_id", f.StageID),
		Eq("category_id", f.CategoryID),
		Eq("channel", f.Channel),
	)
	return paginate[models.Conversation](ctx, base, p, ConversationSortColumns, "Contact")
}

func (r *ConversationRepository) Get(ctx context.Context, userID, id string) (*models.Conversation, error) {
	return r.get(ctx, userID, id, "Contact", "Contact.Company")
}

// checkRefs verifies every reference in fields belongs to the user.
func (r *ConversationRepository) checkRefs(tx *gorm.DB, userID string, contactID, opportunityID, stageID, categoryID *string) error {
	if err := r.contacts.exists(tx, userID, contactID); err != nil {
		return err
	}
	if err := r.opportunities.exists(tx, userID, opportunityID); err != nil {
		return err
	}
	if err := r.stages.exists(tx, userID, stageID); err != nil {
		return err
	}
	return r.categories.exists(tx, userID, categoryID)
}

func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	if c.ContactID == "" {
		return apperrors.BadRequest("contactId is required")
	}
	if err := r.checkRefs(r.db.WithContext(ctx), c.UserID, &c.ContactID, c.OpportunityID, c.StageID, c.CategoryID); err != nil {
		return err
	}
	return r.create(ctx, c)
}

func (r *ConversationRepository) Update(ctx context.Context, userID, id string, fields map[string]any) (*models.Conversation, error) {
	ref := func(key string) *string {
		if v, ok := fields[key].(string); ok {
			return &v
		}
		return nil
	}
	err := r.checkRefs(r.db.WithContext(ctx), userID, ref("contact_id"), ref("opportunity_id"), ref("stage_id"), ref("category_id"))
	if err != nil {
		return nil, err
	}
	return r.update(ctx, userID, id, fields)
}

func (r *ConversationRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.getTx(tx, userID, id); err != nil {
			return err
		}
		return deleteConversations(tx, userID, []string{id})
	})
}

// deleteConversations removes the conversations, their messages, and detaches their tasks.
func deleteConversations(tx *gorm.DB, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("conversation_id IN ? AND user_id = ?", ids, userID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := tx.Model(&models.Task{}).Where("conversation_id IN ? AND user_id = ?", ids, userID).
		Update("conversation_id", nil).Error; err != nil {
		return fmt.Errorf("detach tasks: %w", err)
	}
	if err := tx.Where("id IN ? AND user_id = ?", ids, userID).Delete(&models.Conversation{}).Error; err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}

// FindOrCreateByContact returns the contact's conversation on channel, creating one with subject.
func (r *ConversationRepository) FindOrCreateByContact(ctx context.Context, userID, contactID, channel, subject string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.scoped(ctx, userID).
		Where("contact_id = ? AND channel = ?", contactID, channel).
		Order("created_at asc").
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	conv = models.Conversation{UserID: userID, ContactID: contactID, Channel: channel, Subject: subject}
	if err := r.create(ctx, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// WithoutOpportunity lists conversations not yet linked to an opportunity, optionally for one user.
func (r *ConversationRepository) WithoutOpportunity(ctx context.Context, userID string) ([]models.Conversation, error) {
	q := r.db.WithContext(ctx).Preload("Contact").Where("opportunity_id IS NULL")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var convs []models.Conversation
	if err := q.Order("created_at asc").Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("list unlinked conversations: %w", err)
	}
	return convs, nil
}

// Messages returns the conversation's messages oldest first.
func (r *ConversationRepository) Messages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	if _, err := r.get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	var msgs []models.Message
	err := r.messages.scoped(ctx, userID).
		Where("conversation_id = ?", conversationID).
		Order("sent_at asc").Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// AddMessage stores m and bumps the conversation's lastMessageAt.
func (r *ConversationRepository) AddMessage(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := r.getTx(tx, m.UserID, m.ConversationID)
		if err != nil {
			return err
		}
		if m.SentAt.IsZero() {
			m.SentAt = time.Now().UTC()
		}
		if err := tx.Create(m).Error; err != nil {
			return r.messages.conflict(err)
		}
		if conv.LastMessageAt == nil || m.SentAt.After(*conv.LastMessageAt) {
			return tx.Model(conv).Update("last_message_at", m.SentAt).Error
		}
		return nil
	})
}

func (r *ConversationRepository) GetMessage(ctx context.Context, userID, id string) (*models.Message, error) {
	return r.messages.get(ctx, userID, id)
}

func (r *ConversationRepository) UpdateMessage(ctx context.Context, userID, id string, fields map[string]any) (*models.Message, error) {
	return r.messages.update(ctx, userID, id, fields)
}

// ToggleMessage flips the message between pending and confirmed.
func (r *ConversationRepository) ToggleMessage(ctx context.Context, userID, id string) (*models.Message, error) {
	msg, err := r.messages.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return r.messages.update(ctx, userID, id, map[string]any{"status": msg.ToggledStatus()})
}

func (r *ConversationRepository) DeleteMessage(ctx context.Context, userID, id string) error {
	return r.messages.delete(ctx, userID, id)
}

// PendingMessages returns the oldest pending messages across all conversations.
func (r *ConversationRepository) PendingMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.messages.scoped(ctx, userID).
		Where("status = ?", models.MessagePending).
		Order("sent_at asc").Order("id asc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list pending messages: %w", err)
	}
	return msgs, nil
}

// HasExternalMessage reports whether an imported message was already stored.
func (r *ConversationRepository) HasExternalMessage(ctx context.Context, externalID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("external_id = ?", externalID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check external message: %w", err)
	}
	return count > 0, nil
}
