package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// *messaging.Client satisfies it.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Sender pushes one notification to one FCM registration token.
type Sender struct {
	client MessagingClient
	logger *slog.Logger
}

func NewSender(client MessagingClient, logger *slog.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger.With("component", "FCMSender"),
	}
}

func (s *Sender) Send(ctx context.Context, deviceToken string, content notification.NotificationContent, data map[string]string) (string, error) {
	msg := &messaging.Message{
		Token: deviceToken,
		Data:  data,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
	}

	messageID, err := s.client.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("fcm send failed: %w", err)
	}

	s.logger.Debug("FCM message accepted", "message_id", messageID)
	return messageID, nil
}
