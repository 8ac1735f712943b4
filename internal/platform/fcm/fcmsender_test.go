package fcm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-inbox/internal/platform/fcm"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// MockClient satisfies the MessagingClient interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFCMSend(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()
	content := notification.NotificationContent{Title: "Test", Body: "Body"}
	data := map[string]string{"id": "1"}

	t.Run("Builds a single-token message", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)

		isExpected := mock.MatchedBy(func(msg *messaging.Message) bool {
			return msg.Token == "token-1" &&
				msg.Notification != nil &&
				msg.Notification.Title == "Test" &&
				msg.Notification.Body == "Body" &&
				msg.Data["id"] == "1"
		})
		mockClient.On("Send", ctx, isExpected).Return("projects/p/messages/42", nil)

		id, err := sender.Send(ctx, "token-1", content, data)

		require.NoError(t, err)
		assert.Equal(t, "projects/p/messages/42", id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Transport failure is returned", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)
		mockClient.On("Send", ctx, mock.Anything).Return("", errors.New("network down"))

		_, err := sender.Send(ctx, "token-1", content, data)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fcm send failed")
		assert.Contains(t, err.Error(), "network down")
	})

	t.Run("Every provider error takes the same path and keeps its cause", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)
		cause := errors.New("registration-token-not-registered")
		mockClient.On("Send", ctx, mock.Anything).Return("", cause)

		id, err := sender.Send(ctx, "stale-token", content, data)

		require.Error(t, err)
		assert.Empty(t, id)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "fcm send failed")
	})
}
