// Package inbox contains the public interfaces and domain models for the
// notification inbox service.
package inbox

import (
	"context"

	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// Store is the persistence contract the query-and-state engine runs against.
// Each method is a single logical operation on the backend.
type Store interface {
	// Query returns the records matching the filter, newest first.
	Query(ctx context.Context, filter RecordFilter) ([]Record, error)

	// Count returns how many records match the recipient and read state.
	Count(ctx context.Context, filter CountFilter) (int, error)

	// UpdateIsRead sets is_read on every record matching the filter and returns
	// the IDs of the matched records, including those that already had the value.
	UpdateIsRead(ctx context.Context, filter RecordFilter, value bool) ([]string, error)
}

// Writer creates records. It is used by producers, never by the core engine.
type Writer interface {
	// Create assigns record.ID (and CreatedAt when zero) and persists the record.
	Create(ctx context.Context, record *Record) error
}

// Repository is what a storage backend provides.
type Repository interface {
	Store
	Writer
}

// Sender delivers a single push notification to one device.
type Sender interface {
	// Send returns the provider's message identifier.
	Send(ctx context.Context, deviceToken string, content notification.NotificationContent, data map[string]string) (string, error)
}
