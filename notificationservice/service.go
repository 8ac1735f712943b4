package notificationservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-inbox/internal/api"
	"github.com/tinywideclouds/go-notification-inbox/internal/engine"
	"github.com/tinywideclouds/go-notification-inbox/internal/pipeline"
	"github.com/tinywideclouds/go-notification-inbox/notificationservice/config"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

type Wrapper struct {
	*microservice.BaseServer
	// nil when ingestion is disabled
	pipelineService *messagepipeline.StreamingService[pipeline.IngestRequest]
	logger          *slog.Logger
}

// New assembles the service. consumer may be nil, in which case only the
// HTTP surface runs.
func New(
	cfg *config.Config,
	repo inbox.Repository,
	sender inbox.Sender,
	consumer messagepipeline.MessageConsumer,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Core
	inboxService := engine.NewService(repo, logger, engine.WithLocation(cfg.Location))
	dispatcher := engine.NewDispatcher(sender, logger)

	// 3. Pipeline (optional)
	var streamingService *messagepipeline.StreamingService[pipeline.IngestRequest]
	if consumer != nil {
		processor := pipeline.NewProcessor(repo, dispatcher, logger.With("component", "IngestProcessor"))

		var err error
		streamingService, err = messagepipeline.NewStreamingService[pipeline.IngestRequest](
			messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
			consumer,
			pipeline.IngestRequestTransformer,
			processor,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create streaming service: %w", err)
		}
	}

	// 4. API
	notificationAPI := api.NewNotificationAPI(inboxService, dispatcher, logger.With("component", "NotificationAPI"))

	// Register Routes
	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(authMiddleware(handlerFunc)))
	}

	handle("GET /notifications", notificationAPI.ListNotifications)
	handle("GET /notifications/unread_count", notificationAPI.UnreadCount)
	handle("POST /notifications/mark_read_by_filter", notificationAPI.MarkReadByFilter)
	handle("POST /send", notificationAPI.Send)

	// CORS preflight; the middleware writes the headers.
	preflight := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	mux.Handle("OPTIONS /notifications", preflight)
	mux.Handle("OPTIONS /notifications/", preflight)
	mux.Handle("OPTIONS /send", preflight)

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	if w.pipelineService != nil {
		w.logger.Info("Ingestion pipeline starting...")
		if err := w.pipelineService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start processing service: %w", err)
		}
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if w.pipelineService != nil {
		if err := w.pipelineService.Stop(ctx); err != nil {
			w.logger.Error("Processing pipeline shutdown failed.", "err", err)
			finalErr = err
		}
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
