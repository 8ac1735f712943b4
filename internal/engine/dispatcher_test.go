package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-inbox/internal/engine"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, token string, content notification.NotificationContent, data map[string]string) (string, error) {
	args := m.Called(ctx, token, content, data)
	return args.String(0), args.Error(1)
}

func TestDispatcher_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivers a complete request", func(t *testing.T) {
		sender := new(mockSender)
		d := engine.NewDispatcher(sender, newTestLogger())

		content := notification.NotificationContent{Title: "Hi", Body: "There"}
		sender.On("Send", ctx, "device-1", content, map[string]string(nil)).Return("projects/p/messages/1", nil)

		res, err := d.Send(ctx, inbox.SendRequest{DeviceToken: "device-1", Title: "Hi", Body: "There"})
		require.NoError(t, err)
		assert.Equal(t, "projects/p/messages/1", res.MessageID)
		sender.AssertExpectations(t)
	})

	t.Run("Rejects incomplete requests without calling the sender", func(t *testing.T) {
		sender := new(mockSender)
		d := engine.NewDispatcher(sender, newTestLogger())

		for _, req := range []inbox.SendRequest{
			{Title: "Hi", Body: "There"},
			{DeviceToken: "d", Body: "There"},
			{DeviceToken: "d", Title: "Hi"},
		} {
			_, err := d.Send(ctx, req)
			require.ErrorIs(t, err, inbox.ErrValidation)
			assert.Equal(t, "deviceToken, title and body are required", err.Error())
		}
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Wraps provider failures", func(t *testing.T) {
		sender := new(mockSender)
		d := engine.NewDispatcher(sender, newTestLogger())
		sender.On("Send", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("fcm: unavailable"))

		_, err := d.Send(ctx, inbox.SendRequest{DeviceToken: "d", Title: "t", Body: "b"})
		var deliveryErr *inbox.DeliveryError
		require.ErrorAs(t, err, &deliveryErr)
		assert.Equal(t, "fcm: unavailable", err.Error())
	})
}
