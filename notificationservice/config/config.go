package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
	BackendMongo     = "mongo"

	defaultCollection = "notifications"
	defaultSQLitePath = "notifications.db"
	defaultCountTTL   = 30 * time.Second
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type StoreConfig struct {
	Backend       string
	Collection    string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID  string
	ListenAddr string

	// Timezone names the zone whose calendar days define "today" and
	// "yesterday". Location is resolved from it during validation.
	Timezone string
	Location *time.Location

	IdentityServiceURL string

	Store      StoreConfig
	CorsConfig middleware.CorsConfig
	Redis      RedisConfig

	TopicID                string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int
	// PubsubConsumerConfig carries the subscription and receive settings
	// handed to the Pub/Sub consumer. Set whenever ingestion is enabled.
	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// IngestionEnabled reports whether the Pub/Sub ingestion pipeline should run.
func (c *Config) IngestionEnabled() bool {
	return c.SubscriptionID != ""
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	override := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			logger.Debug("Overriding config value", "key", key, "source", "env")
			*dst = val
		}
	}

	override("PROJECT_ID", &cfg.ProjectID)
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	override("TIMEZONE", &cfg.Timezone)
	override("IDENTITY_SERVICE_URL", &cfg.IdentityServiceURL)

	// Store Overrides
	override("STORE_BACKEND", &cfg.Store.Backend)
	override("STORE_COLLECTION", &cfg.Store.Collection)
	override("SQLITE_PATH", &cfg.Store.SQLitePath)
	override("MONGO_URI", &cfg.Store.MongoURI)
	override("MONGO_DATABASE", &cfg.Store.MongoDatabase)

	// Ingestion Overrides
	override("TOPIC_ID", &cfg.TopicID)
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		if cfg.PubsubConsumerConfig != nil {
			cfg.PubsubConsumerConfig.SubscriptionID = val
		}
	}
	override("SUBSCRIPTION_DLQ_TOPIC_ID", &cfg.SubscriptionDLQTopicID)
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}
	cfg.Location = loc

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFirestore
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = defaultCollection
	}
	switch cfg.Store.Backend {
	case BackendFirestore:
	case BackendSQLite:
		if cfg.Store.SQLitePath == "" {
			cfg.Store.SQLitePath = defaultSQLitePath
		}
	case BackendMongo:
		if cfg.Store.MongoURI == "" || cfg.Store.MongoDatabase == "" {
			return nil, fmt.Errorf("mongo backend requires mongo_uri and mongo_database (or MONGO_URI / MONGO_DATABASE)")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %s, %s or %s)", cfg.Store.Backend, BackendFirestore, BackendSQLite, BackendMongo)
	}

	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = defaultCountTTL
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.IngestionEnabled() {
		if cfg.TopicID == "" {
			return nil, fmt.Errorf("topic_id is required when subscription_id is set (or TOPIC_ID env var)")
		}
		if cfg.PubsubConsumerConfig == nil {
			cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
		}
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
