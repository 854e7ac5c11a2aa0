package repository

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db            *gorm.DB
	contacts      *ContactRepository
	conversations *ConversationRepository
	opportunities *OpportunityRepository
	stages        *StageRepository
	tasks         *TaskRepository
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	return &fixture{
		db:            db,
		contacts:      NewContactRepository(db),
		conversations: NewConversationRepository(db),
		opportunities: NewOpportunityRepository(db),
		stages:        NewStageRepository(db),
		tasks:         NewTaskRepository(db),
	}
}

func (f *fixture) stage(t *testing.T, userID, name string) *models.Stage {
	t.Helper()
	s := &models.Stage{UserID: userID, Name: name}
	require.NoError(t, f.stages.Create(context.Background(), s))
	return s
}

func (f *fixture) contact(t *testing.T, userID, first string) *models.Contact {
	t.Helper()
	c := &models.Contact{UserID: userID, FirstName: first, Email: first + "@example.com"}
	require.NoError(t, f.contacts.Create(context.Background(), c))
	return c
}

func TestOpportunityDelete_RemovesLinkedConversations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stage := f.stage(t, "u1", "Contacted")
	contact := f.contact(t, "u1", "ada")

	opp := &models.Opportunity{UserID: "u1", Title: "Staff engineer", StageID: stage.ID}
	require.NoError(t, f.opportunities.Create(ctx, opp))

	linked := &models.Conversation{UserID: "u1", ContactID: contact.ID, OpportunityID: &opp.ID, Subject: "Intro"}
	require.NoError(t, f.conversations.Create(ctx, linked))
	require.NoError(t, f.conversations.AddMessage(ctx, &models.Message{
		UserID: "u1", ConversationID: linked.ID, Direction: models.DirectionOutbound, Body: "hi",
	}))
	other := &models.Conversation{UserID: "u1", ContactID: contact.ID, Subject: "Unrelated"}
	require.NoError(t, f.conversations.Create(ctx, other))

	task := &models.Task{UserID: "u1", Title: "Follow up", OpportunityID: &opp.ID, ConversationID: &linked.ID}
	require.NoError(t, f.tasks.Create(ctx, task))

	require.NoError(t, f.opportunities.Delete(ctx, "u1", opp.ID))

	_, err := f.opportunities.Get(ctx, "u1", opp.ID)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.conversations.Get(ctx, "u1", linked.ID)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.conversations.Get(ctx, "u1", other.ID)
	assert.NoError(t, err)

	var messages int64
	require.NoError(t, f.db.Model(&models.Message{}).Where("conversation_id = ?", linked.ID).Count(&messages).Error)
	assert.Zero(t, messages)

	kept, err := f.tasks.Get(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.OpportunityID)
	assert.Nil(t, kept.ConversationID)
}

func TestOpportunityDelete_OtherUserIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stage := f.stage(t, "u1", "Contacted")
	opp := &models.Opportunity{UserID: "u1", Title: "Role", StageID: stage.ID}
	require.NoError(t, f.opportunities.Create(ctx, opp))

	assertStatus(t, f.opportunities.Delete(ctx, "u2", opp.ID), http.StatusNotFound)
	_, err := f.opportunities.Get(ctx, "u1", opp.ID)
	assert.NoError(t, err)
}

func TestOpportunityCreate_RequiresOwnedReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	foreign := f.stage(t, "u2", "Contacted")

	err := f.opportunities.Create(ctx, &models.Opportunity{UserID: "u1", Title: "Role"})
	assertStatus(t, err, http.StatusBadRequest)

	err = f.opportunities.Create(ctx, &models.Opportunity{UserID: "u1", Title: "Role", StageID: foreign.ID})
	assertStatus(t, err, http.StatusNotFound)
}

func TestMoveToStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from := f.stage(t, "u1", "Contacted")
	to := f.stage(t, "u1", "Interviewing")
	foreign := f.stage(t, "u2", "Offer")

	opp := &models.Opportunity{UserID: "u1", Title: "Role", StageID: from.ID}
	require.NoError(t, f.opportunities.Create(ctx, opp))

	moved, err := f.opportunities.MoveToStage(ctx, "u1", opp.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.StageID)
	require.NotNil(t, moved.Stage)
	assert.Equal(t, "Interviewing", moved.Stage.Name)

	_, err = f.opportunities.MoveToStage(ctx, "u1", opp.ID, foreign.ID)
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.opportunities.MoveToStage(ctx, "u1", "missing", to.ID)
	assertStatus(t, err, http.StatusNotFound)

	current, err := f.opportunities.Get(ctx, "u1", opp.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, current.StageID)
}

func TestCreateForConversation_LinksOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stage := f.stage(t, "u1", "Contacted")
	contact := f.contact(t, "u1", "grace")
	conv := &models.Conversation{UserID: "u1", ContactID: contact.ID, Subject: "Hello"}
	require.NoError(t, f.conversations.Create(ctx, conv))

	first := &models.Opportunity{UserID: "u1", Title: "Hello", StageID: stage.ID}
	linked, err := f.opportunities.CreateForConversation(ctx, first, conv.ID)
	require.NoError(t, err)
	assert.True(t, linked)

	second := &models.Opportunity{UserID: "u1", Title: "Hello again", StageID: stage.ID}
	linked, err = f.opportunities.CreateForConversation(ctx, second, conv.ID)
	require.NoError(t, err)
	assert.False(t, linked)

	var count int64
	require.NoError(t, f.db.Model(&models.Opportunity{}).Where("user_id = ?", "u1").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := f.conversations.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OpportunityID)
	assert.Equal(t, first.ID, *got.OpportunityID)
}

func TestNextStepsDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stage := f.stage(t, "u1", "Contacted")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday, tomorrow := now.Add(-24*time.Hour), now.Add(24*time.Hour)

	for _, o := range []*models.Opportunity{
		{UserID: "u1", Title: "overdue", StageID: stage.ID, NextStepDate: &yesterday},
		{UserID: "u1", Title: "later", StageID: stage.ID, NextStepDate: &tomorrow},
		{UserID: "u1", Title: "undated", StageID: stage.ID},
	} {
		require.NoError(t, f.opportunities.Create(ctx, o))
	}

	due, err := f.opportunities.NextStepsDue(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "overdue", due[0].Title)
}
