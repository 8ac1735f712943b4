package pipeline

import (
	"context"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

// Pusher is satisfied by engine.Dispatcher.
type Pusher interface {
	Send(ctx context.Context, req inbox.SendRequest) (inbox.DeliveryResult, error)
}

// NewProcessor stores each request as an unread record and, when the request
// names a device, pushes it. A store failure is returned so the message is
// redelivered; a push failure is only logged.
func NewProcessor(
	writer inbox.Writer,
	pusher Pusher,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[IngestRequest] {

	return func(ctx context.Context, original messagepipeline.Message, request *IngestRequest) error {
		procLogger := logger.With(
			"recipient_id", request.RecipientID,
			"pubsub_msg_id", original.ID,
		)

		record := &inbox.Record{
			RecipientID: request.RecipientID,
			Title:       request.Title,
			Body:        request.Body,
			Data:        request.Data,
		}
		if err := writer.Create(ctx, record); err != nil {
			procLogger.Error("Failed to store notification", "err", err)
			return err
		}
		procLogger.Info("Notification stored", "notification_id", record.ID)

		if request.DeviceToken == "" {
			return nil
		}

		result, err := pusher.Send(ctx, inbox.SendRequest{
			DeviceToken: request.DeviceToken,
			Title:       request.Title,
			Body:        request.Body,
			Data:        request.Data,
		})
		if err != nil {
			procLogger.Warn("Push failed; record kept", "notification_id", record.ID, "err", err)
			return nil
		}
		procLogger.Info("Push dispatched", "notification_id", record.ID, "message_id", result.MessageID)
		return nil
	}
}
