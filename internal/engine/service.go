// Package engine holds the notification query-and-state logic: filtered
// listing, unread counting and bulk read marking over an inbox.Store.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

var errMissingRecipient = &inbox.ValidationError{Message: "recipient_id is required"}

// Service is stateless apart from its injected dependencies and is safe for
// concurrent use.
type Service struct {
	store  inbox.Store
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Service)

// WithLocation sets the zone whose calendar days define today and yesterday.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store inbox.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		loc:    time.Local,
		now:    time.Now,
		logger: logger.With("component", "InboxService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the recipient's records inside the filter window, newest first.
func (s *Service) List(ctx context.Context, recipientID string, filter inbox.Filter) ([]inbox.Record, error) {
	if recipientID == "" {
		return nil, errMissingRecipient
	}

	records, err := s.store.Query(ctx, s.recordFilter(recipientID, filter))
	if err != nil {
		s.logger.Error("Failed to query notifications", "recipient_id", recipientID, "filter", filter.String(), "err", err)
		return nil, &inbox.StoreError{Op: "query", Err: err}
	}
	if records == nil {
		records = []inbox.Record{}
	}
	return records, nil
}

// CountUnread counts all unread records of the recipient. No time window applies.
func (s *Service) CountUnread(ctx context.Context, recipientID string) (int, error) {
	if recipientID == "" {
		return 0, errMissingRecipient
	}

	n, err := s.store.Count(ctx, inbox.CountFilter{RecipientID: recipientID, IsRead: false})
	if err != nil {
		s.logger.Error("Failed to count unread notifications", "recipient_id", recipientID, "err", err)
		return 0, &inbox.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// MarkReadByFilter marks every record in the filter window as read and returns
// how many records matched. Records that were already read are counted too, so
// repeating the call returns the same number.
func (s *Service) MarkReadByFilter(ctx context.Context, recipientID string, filter inbox.Filter) (int, error) {
	if recipientID == "" {
		return 0, errMissingRecipient
	}

	ids, err := s.store.UpdateIsRead(ctx, s.recordFilter(recipientID, filter), true)
	if err != nil {
		s.logger.Error("Failed to mark notifications read", "recipient_id", recipientID, "filter", filter.String(), "err", err)
		return 0, &inbox.StoreError{Op: "update_is_read", Err: err}
	}

	s.logger.Debug("Marked notifications read", "recipient_id", recipientID, "filter", filter.String(), "updated", len(ids))
	return len(ids), nil
}

// recordFilter reads the clock exactly once.
func (s *Service) recordFilter(recipientID string, filter inbox.Filter) inbox.RecordFilter {
	return inbox.RecordFilter{
		RecipientID: recipientID,
		Range:       inbox.Resolve(filter, s.now(), s.loc),
	}
}
