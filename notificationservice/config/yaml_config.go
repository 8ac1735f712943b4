package config

import (
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Enabled    bool   `yaml:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type YamlStoreConfig struct {
	Backend       string `yaml:"backend"`
	Collection    string `yaml:"collection"`
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type YamlIngestionConfig struct {
	TopicID                string `yaml:"topic_id"`
	SubscriptionID         string `yaml:"subscription_id"`
	SubscriptionDLQTopicID string `yaml:"subscription_dlq_topic_id"`
	NumPipelineWorkers     int    `yaml:"num_pipeline_workers"`
	MaxOutstandingMessages int    `yaml:"max_outstanding_messages"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID          string              `yaml:"project_id"`
	ListenAddr         string              `yaml:"listen_addr"`
	Timezone           string              `yaml:"timezone"`
	IdentityServiceURL string              `yaml:"identity_service_url"`
	StoreConfig        YamlStoreConfig     `yaml:"store"`
	CorsConfig         YamlCorsConfig      `yaml:"cors"`
	RedisConfig        YamlRedisConfig     `yaml:"redis"`
	Ingestion          YamlIngestionConfig `yaml:"ingestion"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ProjectID:          baseCfg.ProjectID,
		ListenAddr:         baseCfg.ListenAddr,
		Timezone:           baseCfg.Timezone,
		IdentityServiceURL: baseCfg.IdentityServiceURL,
		Store: StoreConfig{
			Backend:       baseCfg.StoreConfig.Backend,
			Collection:    baseCfg.StoreConfig.Collection,
			SQLitePath:    baseCfg.StoreConfig.SQLitePath,
			MongoURI:      baseCfg.StoreConfig.MongoURI,
			MongoDatabase: baseCfg.StoreConfig.MongoDatabase,
		},
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
			TTL:      time.Duration(baseCfg.RedisConfig.TTLSeconds) * time.Second,
		},
		TopicID:                baseCfg.Ingestion.TopicID,
		SubscriptionID:         baseCfg.Ingestion.SubscriptionID,
		SubscriptionDLQTopicID: baseCfg.Ingestion.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.Ingestion.NumPipelineWorkers,
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
		if n := baseCfg.Ingestion.MaxOutstandingMessages; n > 0 {
			cfg.PubsubConsumerConfig.MaxOutstandingMessages = n
		}
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.Store.Backend,
		"subscription_id", cfg.SubscriptionID,
	)

	return cfg, nil
}
