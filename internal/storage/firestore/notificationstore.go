package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"

	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

const DefaultCollection = "notifications"

// FirestoreStore implements inbox.Repository using Google Cloud Firestore.
//
// Range queries need the composite index (recipient_id ASC, created_at DESC),
// and unread counts need (recipient_id, is_read).
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

// notificationDoc is the internal DB representation.
type notificationDoc struct {
	RecipientID string            `firestore:"recipient_id"`
	Title       string            `firestore:"title"`
	Body        string            `firestore:"body"`
	Data        map[string]string `firestore:"data,omitempty"`
	IsRead      bool              `firestore:"is_read"`
	CreatedAt   time.Time         `firestore:"created_at"`
}

func (s *FirestoreStore) Create(ctx context.Context, record *inbox.Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	ref := s.client.Collection(s.collection).NewDoc()
	doc := notificationDoc{
		RecipientID: record.RecipientID,
		Title:       record.Title,
		Body:        record.Body,
		Data:        record.Data,
		IsRead:      record.IsRead,
		CreatedAt:   record.CreatedAt,
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore create failed: %w", err)
	}
	record.ID = ref.ID
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, filter inbox.RecordFilter) ([]inbox.Record, error) {
	iter := s.filtered(filter).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	records := make([]inbox.Record, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var doc notificationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding notification %s: %w", snap.Ref.ID, err)
		}
		records = append(records, doc.toRecord(snap.Ref.ID))
	}
	return records, nil
}

func (s *FirestoreStore) Count(ctx context.Context, filter inbox.CountFilter) (int, error) {
	q := s.client.Collection(s.collection).
		Where("recipient_id", "==", filter.RecipientID).
		Where("is_read", "==", filter.IsRead)

	res, err := q.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("firestore count failed: %w", err)
	}

	v, ok := res["count"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("firestore count: unexpected result type %T", res["count"])
	}
	return int(v.GetIntegerValue()), nil
}

// UpdateIsRead reads and updates the matching documents in one transaction.
func (s *FirestoreStore) UpdateIsRead(ctx context.Context, filter inbox.RecordFilter, value bool) ([]string, error) {
	var ids []string

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// The function may be retried; start from scratch each attempt.
		ids = make([]string, 0)

		snaps, err := tx.Documents(s.filtered(filter)).GetAll()
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			if err := tx.Update(snap.Ref, []firestore.Update{{Path: "is_read", Value: value}}); err != nil {
				return err
			}
			ids = append(ids, snap.Ref.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore update failed: %w", err)
	}
	return ids, nil
}

// --- Helpers ---

func (s *FirestoreStore) filtered(filter inbox.RecordFilter) firestore.Query {
	q := s.client.Collection(s.collection).Where("recipient_id", "==", filter.RecipientID)
	if filter.Range != nil {
		q = q.Where("created_at", ">=", filter.Range.GTE).Where("created_at", "<", filter.Range.LT)
	}
	return q
}

func (d notificationDoc) toRecord(id string) inbox.Record {
	return inbox.Record{
		ID:          id,
		RecipientID: d.RecipientID,
		Title:       d.Title,
		Body:        d.Body,
		Data:        d.Data,
		IsRead:      d.IsRead,
		CreatedAt:   d.CreatedAt,
	}
}
