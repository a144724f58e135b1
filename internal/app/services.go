package app

import (
	"fmt"

	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
	"github.com/yungbote/neurogarden-backend/internal/services"
)

type Services struct {
	Retention services.RetentionService
	Pipeline  *retention.Pipeline
	Scheduler *retention.Scheduler
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	mode, err := retention.ParseConcurrencyMode(cfg.Retention.ConcurrentEnrich)
	if err != nil {
		return Services{}, fmt.Errorf("retention concurrency: %w", err)
	}
	scheduler, err := retention.NewScheduler(cfg.Retention.ReviewIntervals, nil)
	if err != nil {
		return Services{}, fmt.Errorf("retention scheduler: %w", err)
	}

	var leaser retention.Leaser
	if clients.Leases != nil {
		leaser = retention.NewRedisLeaser(clients.Leases)
	}

	store := retention.NewRepoStore(reposet.ContentItem)
	pipeline := retention.NewPipeline(log, clients.Gateway, store, retention.PipelineConfig{
		StageTimeout: cfg.Retention.StageTimeout,
		Concurrency:  mode,
		Leaser:       leaser,
	})
	recall := retention.NewRecall(log, clients.Gateway, retention.RecallConfig{
		VerifyTimeout:    cfg.Retention.VerifyTimeout,
		FallbackQuestion: cfg.Retention.FallbackQuestion,
	})
	notifier := services.NewRetentionNotifier(clients.Bus, log)

	return Services{
		Retention: services.NewRetentionService(log, reposet.ContentItem, store, pipeline, scheduler, recall, notifier),
		Pipeline:  pipeline,
		Scheduler: scheduler,
	}, nil
}
