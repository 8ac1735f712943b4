package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

// CacheClient defines the subset of Redis behaviour we need. Every write to a
// recipient's records bumps that recipient's generation; a count is only
// cached if the generation it was read under is still current.
type CacheClient interface {
	// Get returns the value or an error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Generation returns the value of genKey, 0 when unset.
	Generation(ctx context.Context, genKey string) (int64, error)
	// SetIfGeneration stores value with a TTL only while genKey equals gen.
	SetIfGeneration(ctx context.Context, key string, value interface{}, ttl time.Duration, genKey string, gen int64) (bool, error)
	// Bump increments genKey and removes keys atomically.
	Bump(ctx context.Context, genKey string, keys ...string) error
}

// CachedStore is a decorator that adds read-aside caching of counts to any
// inbox.Repository. Queries always go to the real store.
type CachedStore struct {
	realStore inbox.Repository
	cache     CacheClient
	ttl       time.Duration
	logger    *slog.Logger
}

func NewCachedStore(realStore inbox.Repository, cache CacheClient, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With("component", "CachedStore"),
	}
}

// --- READ PATHS ---

func (s *CachedStore) Query(ctx context.Context, filter inbox.RecordFilter) ([]inbox.Record, error) {
	return s.realStore.Query(ctx, filter)
}

func (s *CachedStore) Count(ctx context.Context, filter inbox.CountFilter) (int, error) {
	key := countKey(filter.RecipientID, filter.IsRead)

	var cached int
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	// The generation must be read before the store so a write landing in
	// between is detected.
	gen, genErr := s.cache.Generation(ctx, generationKey(filter.RecipientID))

	n, err := s.realStore.Count(ctx, filter)
	if err != nil {
		return 0, err
	}
	if genErr != nil {
		s.logger.Debug("Generation unavailable, count not cached", "recipient_id", filter.RecipientID, "err", genErr)
		return n, nil
	}

	stored, err := s.cache.SetIfGeneration(ctx, key, n, s.ttl, generationKey(filter.RecipientID), gen)
	switch {
	case err != nil:
		s.logger.Debug("Failed to cache count", "recipient_id", filter.RecipientID, "err", err)
	case !stored:
		s.logger.Debug("Records changed during count, not cached", "recipient_id", filter.RecipientID)
	}
	return n, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedStore) UpdateIsRead(ctx context.Context, filter inbox.RecordFilter, value bool) ([]string, error) {
	ids, err := s.realStore.UpdateIsRead(ctx, filter, value)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, filter.RecipientID)
	return ids, nil
}

func (s *CachedStore) Create(ctx context.Context, record *inbox.Record) error {
	if err := s.realStore.Create(ctx, record); err != nil {
		return err
	}
	s.invalidate(ctx, record.RecipientID)
	return nil
}

// --- Helpers ---

// invalidate bumps the recipient's generation and drops both counters. The
// write already committed, so a failure is logged and left to the TTL.
func (s *CachedStore) invalidate(ctx context.Context, recipientID string) {
	err := s.cache.Bump(ctx, generationKey(recipientID), countKey(recipientID, false), countKey(recipientID, true))
	if err != nil {
		s.logger.Warn("Failed to invalidate cached counts", "recipient_id", recipientID, "err", err)
	}
}

func countKey(recipientID string, isRead bool) string {
	state := "unread"
	if isRead {
		state = "read"
	}
	return fmt.Sprintf("notify:count:%s:%s", state, recipientID)
}

func generationKey(recipientID string) string {
	return "notify:count:gen:" + recipientID
}
