package services

import (
	"context"
	"fmt"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"go.uber.org/zap"
)

type MigrationReport struct {
	Scanned int
	Created int
	Skipped int
	DryRun  bool
}

// ConversationMigrator gives every conversation without an opportunity one of its own.
type ConversationMigrator struct {
	Conversations *repository.ConversationRepository
	Opportunities *repository.OpportunityRepository
	Pipeline      *PipelineService
	Log           *zap.Logger
}

func NewConversationMigrator(
	conversations *repository.ConversationRepository,
	opps *repository.OpportunityRepository,
	pipeline *PipelineService,
	log *zap.Logger,
) *ConversationMigrator {
	return &ConversationMigrator{Conversations: conversations, Opportunities: opps, Pipeline: pipeline, Log: log}
}

// Run migrates conversations of userID, or of everyone when userID is empty.
// Already linked conversations are never touched, so running it twice is safe.
func (m *ConversationMigrator) Run(ctx context.Context, userID string, dryRun bool) (*MigrationReport, error) {
	convs, err := m.Conversations.WithoutOpportunity(ctx, userID)
	if err != nil {
		return nil, err
	}
	report := &MigrationReport{Scanned: len(convs), DryRun: dryRun}
	firstStage := map[string]string{}

	for i := range convs {
		conv := &convs[i]
		stageID, err := m.stageFor(ctx, conv, firstStage, dryRun)
		if err != nil {
			return report, err
		}
		opp := opportunityFromConversation(conv, stageID)
		log := m.Log.With(zap.String("conversation_id", conv.ID), zap.String("user_id", conv.UserID))

		if dryRun {
			log.Info("would create opportunity", zap.String("title", opp.Title))
			report.Created++
			continue
		}
		linked, err := m.Opportunities.CreateForConversation(ctx, opp, conv.ID)
		if err != nil {
			return report, fmt.Errorf("migrate conversation %s: %w", conv.ID, err)
		}
		if !linked {
			report.Skipped++
			continue
		}
		log.Info("created opportunity", zap.String("opportunity_id", opp.ID))
		report.Created++
	}
	return report, nil
}

// stageFor keeps the conversation's stage or falls back to the user's first stage.
func (m *ConversationMigrator) stageFor(ctx context.Context, conv *models.Conversation, cache map[string]string, dryRun bool) (string, error) {
	if conv.StageID != nil && *conv.StageID != "" {
		return *conv.StageID, nil
	}
	if id, ok := cache[conv.UserID]; ok {
		return id, nil
	}
	var stages []models.Stage
	var err error
	if dryRun {
		stages, err = m.Pipeline.ListStages(ctx, conv.UserID, false)
	} else {
		stages, err = m.Pipeline.EnsureDefaultStages(ctx, conv.UserID)
	}
	if err != nil {
		return "", err
	}
	id := ""
	if len(stages) > 0 {
		id = stages[0].ID
	}
	cache[conv.UserID] = id
	return id, nil
}

func opportunityFromConversation(conv *models.Conversation, stageID string) *models.Opportunity {
	title := conv.Subject
	if title == "" && conv.Contact != nil {
		title = "Conversation with " + conv.Contact.FullName()
	}
	if title == "" {
		title = "Untitled opportunity"
	}
	contactID := conv.ContactID
	opp := &models.Opportunity{
		UserID:     conv.UserID,
		Title:      title,
		StageID:    stageID,
		CategoryID: conv.CategoryID,
		ContactID:  &contactID,
		Notes:      conv.Summary,
	}
	if conv.Contact != nil {
		opp.CompanyID = conv.Contact.CompanyID
	}
	return opp
}
