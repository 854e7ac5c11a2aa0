package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type repos struct {
	db            *gorm.DB
	users         *repository.UserRepository
	companies     *repository.CompanyRepository
	contacts      *repository.ContactRepository
	conversations *repository.ConversationRepository
	opportunities *repository.OpportunityRepository
	stages        *repository.StageRepository
	categories    *repository.CategoryRepository
	tasks         *repository.TaskRepository
	challenges    *repository.ChallengeRepository
	jobPostings   *repository.JobPostingRepository
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	db := testutil.NewDB(t)
	return &repos{
		db:            db,
		users:         repository.NewUserRepository(db),
		companies:     repository.NewCompanyRepository(db),
		contacts:      repository.NewContactRepository(db),
		conversations: repository.NewConversationRepository(db),
		opportunities: repository.NewOpportunityRepository(db),
		stages:        repository.NewStageRepository(db),
		categories:    repository.NewCategoryRepository(db),
		tasks:         repository.NewTaskRepository(db),
		challenges:    repository.NewChallengeRepository(db),
		jobPostings:   repository.NewJobPostingRepository(db),
	}
}

func (r *repos) pipeline() *PipelineService {
	return NewPipelineService(r.stages, r.opportunities, zap.NewNop())
}

func (r *repos) company(t *testing.T, userID, name string) *models.Company {
	t.Helper()
	c := &models.Company{UserID: userID, Name: name}
	require.NoError(t, r.companies.Create(context.Background(), c))
	return c
}

func (r *repos) contact(t *testing.T, c *models.Contact) *models.Contact {
	t.Helper()
	require.NoError(t, r.contacts.Create(context.Background(), c))
	return c
}

func (r *repos) conversation(t *testing.T, c *models.Conversation) *models.Conversation {
	t.Helper()
	require.NoError(t, r.conversations.Create(context.Background(), c))
	return c
}

func stageNames(stages []models.Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}
