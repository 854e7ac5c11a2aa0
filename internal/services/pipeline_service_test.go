package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	httpErr, ok := apperrors.As(err)
	require.True(t, ok, "expected an HTTP error, got %v", err)
	assert.Equal(t, status, httpErr.Status)
}

func TestEnsureDefaultStages_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := r.pipeline()

	first, err := svc.EnsureDefaultStages(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultStages, stageNames(first))

	second, err := svc.EnsureDefaultStages(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, stageNames(first), stageNames(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	var count int64
	require.NoError(t, r.db.Model(&models.Stage{}).Where("user_id = ?", "u1").Count(&count).Error)
	assert.EqualValues(t, len(DefaultStages), count)
}

func TestEnsureDefaultStages_AddsOnlyMissing(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := r.pipeline()

	custom, err := svc.CreateStage(ctx, "u1", "Sourcing", "#ccc")
	require.NoError(t, err)
	_, err = svc.CreateStage(ctx, "u1", "contacted", "")
	require.NoError(t, err)

	stages, err := svc.ListStages(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, stages, len(DefaultStages)+1)
	assert.Equal(t, custom.ID, stages[0].ID)
	assert.Equal(t, "contacted", stages[1].Name)
	assert.Equal(t, "Not contacted", stages[2].Name)
}

func TestCreateStage_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newRepos(t).pipeline()

	_, err := svc.CreateStage(ctx, "u1", "   ", "")
	requireStatus(t, err, http.StatusBadRequest)

	first, err := svc.CreateStage(ctx, "u1", "Offer", "")
	require.NoError(t, err)
	second, err := svc.CreateStage(ctx, "u1", "Closed", "")
	require.NoError(t, err)
	assert.Greater(t, second.Order, first.Order)

	_, err = svc.CreateStage(ctx, "u1", "OFFER", "")
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.CreateStage(ctx, "u2", "Offer", "")
	assert.NoError(t, err)
}

func TestUpdateStage_RenameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	svc := newRepos(t).pipeline()
	stages, err := svc.EnsureDefaultStages(ctx, "u1")
	require.NoError(t, err)
	replied := stages[2]

	_, err = svc.UpdateStage(ctx, "u1", replied.ID, map[string]any{"name": "contacted"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.UpdateStage(ctx, "u1", replied.ID, map[string]any{"name": "  "})
	requireStatus(t, err, http.StatusBadRequest)

	renamed, err := svc.UpdateStage(ctx, "u1", replied.ID, map[string]any{"name": " REPLIED "})
	require.NoError(t, err)
	assert.Equal(t, "REPLIED", renamed.Name)

	recolored, err := svc.UpdateStage(ctx, "u1", replied.ID, map[string]any{"color": "#0f0"})
	require.NoError(t, err)
	assert.Equal(t, "#0f0", recolored.Color)
}

func TestDeleteStage_RefusesWhileInUse(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := r.pipeline()

	stage, err := svc.CreateStage(ctx, "u1", "Interviewing", "")
	require.NoError(t, err)
	opp := &models.Opportunity{UserID: "u1", Title: "Role", StageID: stage.ID}
	require.NoError(t, r.opportunities.Create(ctx, opp))

	requireStatus(t, svc.DeleteStage(ctx, "u1", stage.ID), http.StatusBadRequest)

	require.NoError(t, r.opportunities.Delete(ctx, "u1", opp.ID))
	require.NoError(t, svc.DeleteStage(ctx, "u1", stage.ID))
	requireStatus(t, svc.DeleteStage(ctx, "u1", stage.ID), http.StatusNotFound)
}

func TestBoard(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := r.pipeline()

	board, err := svc.Board(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, board, len(DefaultStages))
	for _, col := range board {
		assert.NotNil(t, col.Opportunities)
		assert.Empty(t, col.Opportunities)
	}

	target := board[2].Stage
	opp := &models.Opportunity{UserID: "u1", Title: "Platform role", StageID: board[0].Stage.ID}
	require.NoError(t, r.opportunities.Create(ctx, opp))

	moved, err := svc.Move(ctx, "u1", opp.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.StageID)

	board, err = svc.Board(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, board[0].Opportunities)
	require.Len(t, board[2].Opportunities, 1)
	assert.Equal(t, opp.ID, board[2].Opportunities[0].ID)
}

func TestMove_RejectsOtherUsersStage(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := r.pipeline()

	mine, err := svc.EnsureDefaultStages(ctx, "u1")
	require.NoError(t, err)
	theirs, err := svc.EnsureDefaultStages(ctx, "u2")
	require.NoError(t, err)

	opp := &models.Opportunity{UserID: "u1", Title: "Role", StageID: mine[0].ID}
	require.NoError(t, r.opportunities.Create(ctx, opp))

	_, err = svc.Move(ctx, "u1", opp.ID, theirs[1].ID)
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Move(ctx, "u1", opp.ID, "")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestEnsureDefaultCategories(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := NewCategoryService(r.categories, zap.NewNop())

	categories, err := svc.List(ctx, "u1", true)
	require.NoError(t, err)
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	assert.Equal(t, DefaultCategories, names)

	again, err := svc.EnsureDefaultCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, again, len(DefaultCategories))

	plain, err := svc.List(ctx, "u2", false)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestCategoryCreate_AppendsAfterDefaults(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := NewCategoryService(r.categories, zap.NewNop())

	_, err := svc.EnsureDefaultCategories(ctx, "u1")
	require.NoError(t, err)
	created, err := svc.Create(ctx, "u1", "Founders", "#f00")
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCategories), created.Position)

	_, err = svc.Create(ctx, "u1", "referral", "")
	requireStatus(t, err, http.StatusBadRequest)

	all, err := svc.List(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "Founders", all[len(all)-1].Name)
}

func TestCategoryUpdate_RenameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	svc := NewCategoryService(r.categories, zap.NewNop())
	categories, err := svc.EnsureDefaultCategories(ctx, "u1")
	require.NoError(t, err)
	other := categories[len(categories)-1]

	_, err = svc.Update(ctx, "u1", other.ID, map[string]any{"name": "REFERRAL"})
	requireStatus(t, err, http.StatusBadRequest)

	renamed, err := svc.Update(ctx, "u1", other.ID, map[string]any{"name": "Alumni"})
	require.NoError(t, err)
	assert.Equal(t, "Alumni", renamed.Name)
}
