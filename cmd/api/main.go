package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/auth"
	"github.com/justsurfingit/pipeline-crm/internal/config"
	"github.com/justsurfingit/pipeline-crm/internal/database"
	"github.com/justsurfingit/pipeline-crm/internal/handlers"
	"github.com/justsurfingit/pipeline-crm/internal/logger"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(db); err != nil {
			zl.Fatal("migration failed", zap.Error(err))
		}
	}

	// Repositories
	users := repository.NewUserRepository(db)
	companies := repository.NewCompanyRepository(db)
	contacts := repository.NewContactRepository(db)
	conversations := repository.NewConversationRepository(db)
	jobPostings := repository.NewJobPostingRepository(db)
	opportunities := repository.NewOpportunityRepository(db)
	stages := repository.NewStageRepository(db)
	categories := repository.NewCategoryRepository(db)
	tasks := repository.NewTaskRepository(db)
	challenges := repository.NewChallengeRepository(db)

	// Services
	ctx := context.Background()
	var llm *services.LLMService
	if cfg.AIEnabled() {
		llm, err = services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			zl.Fatal("gemini client failed", zap.Error(err))
		}
	} else {
		zl.Warn("GEMINI_API_KEY not set, AI features disabled")
	}

	pipeline := services.NewPipelineService(stages, opportunities, zl.Named("pipeline"))
	categoryService := services.NewCategoryService(categories, zl.Named("categories"))
	today := services.NewTodayService(tasks, conversations, opportunities, challenges, users, zl.Named("today"))
	analysis := services.NewAnalysisService(llm, conversations, zl.Named("analysis"))
	jobService := services.NewJobPostingService(jobPostings, companies, llm)
	contactService := services.NewContactService(contacts, companies)
	imports := services.NewImportService(contacts, companies, zl.Named("import"))
	matcher := services.NewMatcherService(contacts, companies)

	// Gmail
	var emailService *services.EmailService
	if cfg.GmailSyncEnabled() {
		emailService = connectGmail(ctx, cfg, zl, users, contacts, conversations, matcher)
	}
	if emailService != nil {
		watcher, err := emailService.StartWatcher(cfg.GmailSyncSchedule, cfg.GmailSyncUserID)
		if err != nil {
			zl.Fatal("gmail watcher failed", zap.Error(err))
		}
		if watcher != nil {
			defer func() { <-watcher.Stop().Done() }()
		}
	}

	// Handlers
	verifier := auth.NewVerifier(cfg.JWTSecret)
	h := handlers.Handlers{
		Auth:          handlers.NewAuthHandler(verifier, users, cfg.CookieName, cfg.CookieSecure, zl),
		Companies:     handlers.NewCompanyHandler(companies, zl),
		Contacts:      handlers.NewContactHandler(contacts, contactService, zl),
		Conversations: handlers.NewConversationHandler(conversations, analysis, zl),
		Jobs:          handlers.NewJobHandler(jobPostings, jobService, zl),
		Opportunities: handlers.NewOpportunityHandler(opportunities, zl),
		Pipeline:      handlers.NewPipelineHandler(pipeline, zl),
		Categories:    handlers.NewCategoryHandler(categoryService, zl),
		Tasks:         handlers.NewTaskHandler(tasks, zl),
		Challenges:    handlers.NewChallengeHandler(challenges, zl),
		Today:         handlers.NewTodayHandler(today, zl),
		Settings:      handlers.NewSettingsHandler(users, zl),
		Sync:          handlers.NewSyncHandler(users, emailService, cfg.GmailSyncUserID, zl),
		Imports:       handlers.NewImportHandler(imports, zl),
	}
	router := handlers.NewRouter(h, handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins(),
		CookieName:     cfg.CookieName,
		Verifier:       verifier,
		Metrics:        middleware.NewMetrics("pipeline_crm"),
	}, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// connectGmail returns nil when the mailbox is not authorised yet; the API runs without sync.
func connectGmail(
	ctx context.Context,
	cfg *config.Config,
	zl *zap.Logger,
	users *repository.UserRepository,
	contacts *repository.ContactRepository,
	conversations *repository.ConversationRepository,
	matcher *services.MatcherService,
) *services.EmailService {
	httpClient, err := auth.GmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
	if err != nil {
		zl.Warn("gmail sync disabled", zap.Error(err))
		return nil
	}
	client, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		zl.Warn("gmail service failed", zap.Error(err))
		return nil
	}
	zl.Info("gmail service connected")
	source := services.NewGmailSource(client, zl)
	return services.NewEmailService(source, users, contacts, conversations, matcher, zl)
}
