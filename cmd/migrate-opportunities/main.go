// Command migrate-opportunities creates an opportunity for every conversation
// that does not have one yet.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/justsurfingit/pipeline-crm/internal/config"
	"github.com/justsurfingit/pipeline-crm/internal/database"
	"github.com/justsurfingit/pipeline-crm/internal/logger"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would be created without writing")
	userID := flag.String("user", "", "only migrate this user's conversations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("schema migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opportunities := repository.NewOpportunityRepository(db)
	pipeline := services.NewPipelineService(repository.NewStageRepository(db), opportunities, zl.Named("pipeline"))
	migrator := services.NewConversationMigrator(
		repository.NewConversationRepository(db), opportunities, pipeline, zl.Named("migrate"))

	report, err := migrator.Run(ctx, *userID, *dryRun)
	if report != nil {
		zl.Info("migration finished",
			zap.Bool("dry_run", report.DryRun),
			zap.Int("scanned", report.Scanned),
			zap.Int("created", report.Created),
			zap.Int("skipped", report.Skipped))
	}
	if err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
}
