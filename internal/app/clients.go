package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/domain"
	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/platform/db"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
	"github.com/yungbote/neurogarden-backend/internal/platform/openai"
	"github.com/yungbote/neurogarden-backend/internal/platform/redisx"
)

type Clients struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Bus     redisx.Bus
	Leases  *redisx.LeaseLocker
	Gateway retention.Gateway
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	theDB, err := db.Open(db.Options{
		PostgresDSN: cfg.DatabaseDSN,
		SQLitePath:  cfg.SQLitePath,
		MaxOpen:     cfg.DBMaxOpen,
		LogQueries:  cfg.LogQueries,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := theDB.AutoMigrate(domain.AutoMigrateModels()...); err != nil {
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}

	out := Clients{DB: theDB}

	// Redis is optional; without it locks stay in-process and events are dropped.
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb, err := redisx.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		out.Bus = redisx.NewBus(rdb, cfg.RedisChannel, log)
		out.Leases = redisx.NewLeaseLocker(rdb, "retention:", leaseTTL(cfg.Retention.StageTimeout))
	}

	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		log.Warn("OPENAI_API_KEY not set; study aid generation and recall grading will degrade")
		out.Gateway = retention.NewUnavailableGateway("no model provider configured")
		return out, nil
	}
	client, err := openai.NewClient(cfg.OpenAI, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	out.Gateway = retention.NewOpenAIGateway(client)
	return out, nil
}

// leaseTTL outlives a full study-aid run so a live holder never loses its lease.
func leaseTTL(stageTimeout time.Duration) time.Duration {
	if stageTimeout <= 0 {
		stageTimeout = 60 * time.Second
	}
	return 3*stageTimeout + 10*time.Second
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
