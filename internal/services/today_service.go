package services

import (
	"context"
	"time"
	_ "time/tzdata"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const followUpLimit = 20

type TodayService struct {
	Tasks         *repository.TaskRepository
	Conversations *repository.ConversationRepository
	Opportunities *repository.OpportunityRepository
	Challenges    *repository.ChallengeRepository
	Users         *repository.UserRepository
	Log           *zap.Logger
	Now           func() time.Time
}

func NewTodayService(
	tasks *repository.TaskRepository,
	conversations *repository.ConversationRepository,
	opps *repository.OpportunityRepository,
	challenges *repository.ChallengeRepository,
	users *repository.UserRepository,
	log *zap.Logger,
) *TodayService {
	return &TodayService{
		Tasks:         tasks,
		Conversations: conversations,
		Opportunities: opps,
		Challenges:    challenges,
		Users:         users,
		Log:           log,
		Now:           time.Now,
	}
}

type TodayView struct {
	Date          string               `json:"date"`
	Timezone      string               `json:"timezone"`
	DailyGoal     int                  `json:"dailyGoal"`
	Tasks         []models.Task        `json:"tasks"`
	FollowUps     []models.Message     `json:"followUps"`
	Opportunities []models.Opportunity `json:"opportunities"`
	Challenges    []models.Challenge   `json:"challenges"`
}

// Today gathers the dashboard. The four reads are independent and run concurrently.
func (s *TodayService) Today(ctx context.Context, userID string) (*TodayView, error) {
	settings, err := s.Users.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		s.Log.Warn("unknown timezone, falling back to UTC",
			zap.String("user_id", userID), zap.String("timezone", settings.Timezone))
		loc = time.UTC
	}
	now := s.Now().In(loc)
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc).UTC()

	view := &TodayView{
		Date:      now.Format(time.DateOnly),
		Timezone:  loc.String(),
		DailyGoal: settings.DailyOutreachGoal,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.Tasks.OpenDueBy(gctx, userID, endOfDay)
		view.Tasks = tasks
		return err
	})
	g.Go(func() error {
		msgs, err := s.Conversations.PendingMessages(gctx, userID, followUpLimit)
		view.FollowUps = msgs
		return err
	})
	g.Go(func() error {
		opps, err := s.Opportunities.NextStepsDue(gctx, userID, endOfDay)
		view.Opportunities = opps
		return err
	})
	g.Go(func() error {
		challenges, err := s.Challenges.Active(gctx, userID)
		view.Challenges = challenges
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
