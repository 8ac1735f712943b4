package engine

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

var errIncompleteSend = &inbox.ValidationError{Message: "deviceToken, title and body are required"}

// Dispatcher validates push requests and hands them to the Sender.
type Dispatcher struct {
	sender inbox.Sender
	logger *slog.Logger
}

func NewDispatcher(sender inbox.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		logger: logger.With("component", "Dispatcher"),
	}
}

func (d *Dispatcher) Send(ctx context.Context, req inbox.SendRequest) (inbox.DeliveryResult, error) {
	if req.DeviceToken == "" || req.Title == "" || req.Body == "" {
		return inbox.DeliveryResult{}, errIncompleteSend
	}

	content := notification.NotificationContent{Title: req.Title, Body: req.Body}
	messageID, err := d.sender.Send(ctx, req.DeviceToken, content, req.Data)
	if err != nil {
		d.logger.Error("Push delivery failed", "err", err)
		return inbox.DeliveryResult{}, &inbox.DeliveryError{Err: err}
	}

	d.logger.Info("Push delivered", "message_id", messageID)
	return inbox.DeliveryResult{MessageID: messageID}, nil
}
