package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	firebase "firebase.google.com/go/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-inbox/internal/platform/fcm"
	"github.com/tinywideclouds/go-notification-inbox/internal/storage/cache"
	fsStore "github.com/tinywideclouds/go-notification-inbox/internal/storage/firestore"
	"github.com/tinywideclouds/go-notification-inbox/internal/storage/mongostore"
	"github.com/tinywideclouds/go-notification-inbox/internal/storage/sqlstore"
	"github.com/tinywideclouds/go-notification-inbox/notificationservice"
	"github.com/tinywideclouds/go-notification-inbox/notificationservice/config"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-notification-inbox")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, err := config.NewConfigFromYaml(&yamlCfg, logger)
	if err != nil {
		logger.Error("Config mapping failed", "err", err)
		os.Exit(1)
	}
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Notification Store (Decorated) ---
	repo, closeStore, err := newRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("Notification store failed", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis Cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		repo = cache.NewCachedStore(repo, redisClient, cfg.Redis.TTL, logger)
		logger.Info("Notification store upgraded", "type", "redis_cached_"+cfg.Store.Backend)
	}

	// --- Auth ---
	authMiddleware := func(h http.Handler) http.Handler { return h }
	if cfg.IdentityServiceURL != "" {
		jwksURL, err := middleware.DiscoverAndValidateJWTConfig(cfg.IdentityServiceURL, middleware.RSA256, logger)
		if err != nil {
			logger.Error("JWT discovery failed", "identity_service_url", cfg.IdentityServiceURL, "err", err)
			os.Exit(1)
		}
		authMiddleware, err = middleware.NewJWKSAuthMiddleware(jwksURL, logger)
		if err != nil {
			logger.Error("Failed to create auth middleware", "err", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("IDENTITY_SERVICE_URL not set, routes are unauthenticated")
	}

	// --- Push Sender (FCM) ---
	var fbOpts []option.ClientOption
	if sa := os.Getenv("FIREBASE_SERVICE_ACCOUNT"); sa != "" {
		fbOpts = append(fbOpts, option.WithCredentialsJSON([]byte(sa)))
	}
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, fbOpts...)
	if err != nil {
		logger.Error("Failed to initialize Firebase App", "err", err)
		os.Exit(1)
	}
	fcmMessaging, err := fbApp.Messaging(ctx)
	if err != nil {
		logger.Error("Failed to create FCM messaging client", "err", err)
		os.Exit(1)
	}
	sender := fcm.NewSender(fcmMessaging, logger)

	// --- Ingestion Consumer (optional) ---
	var consumer messagepipeline.MessageConsumer
	if cfg.IngestionEnabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("PubSub client failed", "err", err)
			os.Exit(1)
		}
		defer psClient.Close()

		consumer, err = newIngestionConsumer(ctx, cfg, psClient, logger)
		if err != nil {
			logger.Error("Ingestion consumer failed", "err", err)
			os.Exit(1)
		}
	} else {
		logger.Info("No subscription configured, ingestion pipeline disabled")
	}

	service, err := notificationservice.New(cfg, repo, sender, consumer, authMiddleware, logger)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting service...", "addr", cfg.ListenAddr)
		errCh <- service.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Service stopped with error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := service.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", "err", err)
		}
	}
}

// newRepository opens the configured backend. The returned func releases it.
func newRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (inbox.Repository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		store, err := sqlstore.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Notification store initialized", "type", "sqlite", "path", cfg.Store.SQLitePath)
		return store, func() { _ = store.Close() }, nil

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		store := mongostore.NewStore(client.Database(cfg.Store.MongoDatabase), cfg.Store.Collection)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("Notification store initialized", "type", "mongo", "database", cfg.Store.MongoDatabase)
		return store, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		logger.Info("Notification store initialized", "type", "firestore", "collection", cfg.Store.Collection)
		return fsStore.NewFirestoreStore(client, cfg.Store.Collection), func() { _ = client.Close() }, nil
	}
}

func newIngestionConsumer(ctx context.Context, cfg *config.Config, psClient *pubsub.Client, logger *slog.Logger) (messagepipeline.MessageConsumer, error) {
	sub := convertPubsub(cfg.ProjectID, cfg.SubscriptionID, "subscriptions")
	topicID := convertPubsub(cfg.ProjectID, cfg.TopicID, "topics")

	subConfig := &pubsubpb.Subscription{
		Name:               sub,
		Topic:              topicID,
		AckDeadlineSeconds: 10,
	}
	if cfg.SubscriptionDLQTopicID != "" {
		subConfig.DeadLetterPolicy = &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     convertPubsub(cfg.ProjectID, cfg.SubscriptionDLQTopicID, "topics"),
			MaxDeliveryAttempts: 5,
		}
	}
	logger.Debug("Ensuring subscription exists", "sub", subConfig.Name, "topic", subConfig.Topic)
	_, err := psClient.SubscriptionAdminClient.CreateSubscription(ctx, subConfig)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logger.Debug("Subscription already exists, skipping creation", "sub", subConfig.Name)
		} else {
			logger.Error("Failed to create subscription", "sub", subConfig.Name, "err", err)
			return nil, fmt.Errorf("could not create sub %s: %w", sub, err)
		}
	}

	return messagepipeline.NewGooglePubsubConsumer(cfg.PubsubConsumerConfig, psClient, logger)
}

type PS string

func convertPubsub(project, id string, ps PS) string {
	return fmt.Sprintf("projects/%s/%s/%s", project, ps, id)
}
