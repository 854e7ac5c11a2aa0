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

// DefaultStages is the pipeline every user starts with, in board order.
var DefaultStages = []string{
	"Not contacted",
	"Contacted",
	"Replied",
	"Meeting scheduled",
	"Interviewing",
	"Offer",
	"Closed",
}

type PipelineService struct {
	Stages        *repository.StageRepository
	Opportunities *repository.OpportunityRepository
	Log           *zap.Logger
}

func NewPipelineService(stages *repository.StageRepository, opps *repository.OpportunityRepository, log *zap.Logger) *PipelineService {
	return &PipelineService{Stages: stages, Opportunities: opps, Log: log}
}

// BoardColumn is one stage of the Kanban board with the opportunities in it.
type BoardColumn struct {
	Stage         models.Stage         `json:"stage"`
	Opportunities []models.Opportunity `json:"opportunities"`
}

// EnsureDefaultStages inserts whichever default stages the user is missing and
// returns the full, ordered set. Calling it again changes nothing.
func (s *PipelineService) EnsureDefaultStages(ctx context.Context, userID string) ([]models.Stage, error) {
	existing, err := s.Stages.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(existing))
	for i, st := range existing {
		names[i] = st.Name
	}
	missing := missingNames(names, DefaultStages)
	if len(missing) == 0 {
		return existing, nil
	}

	next, err := s.Stages.MaxOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	stages := make([]models.Stage, len(missing))
	for i, name := range missing {
		next++
		stages[i] = models.Stage{UserID: userID, Name: name, Order: next}
	}
	if err := s.Stages.CreateMany(ctx, stages); err != nil {
		return nil, err
	}
	s.Log.Info("seeded default stages", zap.String("user_id", userID), zap.Int("count", len(stages)))
	return s.Stages.All(ctx, userID)
}

// ListStages first adds any missing default stage when ensureDefaults is set.
func (s *PipelineService) ListStages(ctx context.Context, userID string, ensureDefaults bool) ([]models.Stage, error) {
	if ensureDefaults {
		return s.EnsureDefaultStages(ctx, userID)
	}
	return s.Stages.All(ctx, userID)
}

func (s *PipelineService) CreateStage(ctx context.Context, userID, name, color string) (*models.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if err := s.checkStageName(ctx, userID, "", name); err != nil {
		return nil, err
	}
	last, err := s.Stages.MaxOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	stage := &models.Stage{UserID: userID, Name: name, Color: color, Order: last + 1}
	if err := s.Stages.Create(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *PipelineService) UpdateStage(ctx context.Context, userID, id string, fields map[string]any) (*models.Stage, error) {
	if name, ok := fields["name"].(string); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.BadRequest("name is required")
		}
		if err := s.checkStageName(ctx, userID, id, name); err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	return s.Stages.Update(ctx, userID, id, fields)
}

// checkStageName rejects a name another stage (not selfID) already uses, ignoring case.
func (s *PipelineService) checkStageName(ctx context.Context, userID, selfID, name string) error {
	existing, err := s.Stages.All(ctx, userID)
	if err != nil {
		return err
	}
	for _, st := range existing {
		if st.ID != selfID && strings.EqualFold(st.Name, name) {
			return apperrors.BadRequest(fmt.Sprintf("stage %q already exists", name))
		}
	}
	return nil
}

// DeleteStage refuses to drop a stage that still holds opportunities.
func (s *PipelineService) DeleteStage(ctx context.Context, userID, id string) error {
	if _, err := s.Stages.Get(ctx, userID, id); err != nil {
		return err
	}
	count, err := s.Opportunities.CountInStage(ctx, userID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.BadRequest(fmt.Sprintf("stage still has %d opportunities", count))
	}
	return s.Stages.Delete(ctx, userID, id)
}

// Board returns every stage, seeding the defaults for a brand new user, with its opportunities.
func (s *PipelineService) Board(ctx context.Context, userID string) ([]BoardColumn, error) {
	stages, err := s.Stages.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		if stages, err = s.EnsureDefaultStages(ctx, userID); err != nil {
			return nil, err
		}
	}
	byStage, err := s.Opportunities.InStages(ctx, userID)
	if err != nil {
		return nil, err
	}
	board := make([]BoardColumn, len(stages))
	for i, st := range stages {
		opps := byStage[st.ID]
		if opps == nil {
			opps = []models.Opportunity{}
		}
		board[i] = BoardColumn{Stage: st, Opportunities: opps}
	}
	return board, nil
}

// Move puts the opportunity into stageID. The stage must belong to the same user.
func (s *PipelineService) Move(ctx context.Context, userID, opportunityID, stageID string) (*models.Opportunity, error) {
	if stageID == "" {
		return nil, apperrors.BadRequest("stageId is required")
	}
	opp, err := s.Opportunities.MoveToStage(ctx, userID, opportunityID, stageID)
	if err != nil {
		return nil, err
	}
	s.Log.Debug("opportunity moved",
		zap.String("user_id", userID),
		zap.String("opportunity_id", opportunityID),
		zap.String("stage_id", stageID))
	return opp, nil
}

// missingNames returns the defaults not present in existing, compared case-insensitively,
// keeping the defaults' order.
func missingNames(existing, defaults []string) []string {
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var missing []string
	for _, n := range defaults {
		if !have[strings.ToLower(n)] {
			missing = append(missing, n)
		}
	}
	return missing
}
