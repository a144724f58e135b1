package app

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/envutil"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
	"github.com/yungbote/neurogarden-backend/internal/platform/openai"
)

// RetentionConfig holds the engine knobs. It is the shape of the RETENTION_CONFIG_FILE document.
type RetentionConfig struct {
	ReviewIntervals  []int         `yaml:"review_intervals"`
	StageTimeout     time.Duration `yaml:"stage_timeout"`
	VerifyTimeout    time.Duration `yaml:"verify_timeout"`
	ConcurrentEnrich string        `yaml:"concurrent_enrich"`
	FallbackQuestion string        `yaml:"fallback_question"`
}

type Config struct {
	Env     string
	Port    string
	LogMode string

	DatabaseDSN string
	SQLitePath  string
	DBMaxOpen   int
	LogQueries  bool

	RedisAddr    string
	RedisChannel string

	OpenAI      openai.Config
	Otel        observability.OtelConfig
	CORSOrigins []string

	Retention RetentionConfig
}

func defaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		ReviewIntervals:  append([]int(nil), retention.DefaultIntervals...),
		StageTimeout:     60 * time.Second,
		VerifyTimeout:    60 * time.Second,
		ConcurrentEnrich: string(retention.ConcurrencyWait),
		FallbackQuestion: retention.DefaultFallbackQuestion,
	}
}

// LoadConfig reads defaults, then the optional YAML file, then environment overrides.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Env:          envutil.String("APP_ENV", "development"),
		Port:         envutil.String("PORT", "8080"),
		LogMode:      envutil.String("LOG_MODE", "development"),
		DatabaseDSN:  envutil.String("DATABASE_DSN", ""),
		SQLitePath:   envutil.String("SQLITE_PATH", "neurogarden.db"),
		DBMaxOpen:    envutil.Int("DB_MAX_OPEN_CONNS", 10),
		LogQueries:   envutil.Bool("DB_LOG_QUERIES", false),
		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", "neurogarden.events"),
		OpenAI:       openai.ConfigFromEnv(),
		Otel:         observability.OtelConfigFromEnv(),
		CORSOrigins:  splitList(envutil.String("CORS_ORIGINS", "")),
		Retention:    defaultRetentionConfig(),
	}

	if path := envutil.String("RETENTION_CONFIG_FILE", ""); path != "" {
		if err := loadRetentionFile(path, &cfg.Retention); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("retention config loaded", "path", path)
		}
	}

	cfg.Retention.StageTimeout = envutil.Seconds("RETENTION_STAGE_TIMEOUT_SECONDS", cfg.Retention.StageTimeout)
	cfg.Retention.VerifyTimeout = envutil.Seconds("RETENTION_VERIFY_TIMEOUT_SECONDS", cfg.Retention.VerifyTimeout)
	cfg.Retention.ConcurrentEnrich = envutil.String("RETENTION_CONCURRENT_ENRICH", cfg.Retention.ConcurrentEnrich)

	if _, err := retention.ParseConcurrencyMode(cfg.Retention.ConcurrentEnrich); err != nil {
		return Config{}, fmt.Errorf("concurrent_enrich: %w", err)
	}
	if cfg.Retention.StageTimeout < 0 || cfg.Retention.VerifyTimeout < 0 {
		return Config{}, fmt.Errorf("retention timeouts must not be negative")
	}
	return cfg, nil
}

func loadRetentionFile(path string, into *RetentionConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read retention config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("parse retention config %s: %w", path, err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
