// Package mongostore implements the notification store on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

const DefaultCollection = "notifications"

type Store struct {
	coll *mongo.Collection
}

type notificationDoc struct {
	ID          string            `bson:"_id"`
	RecipientID string            `bson:"recipient_id"`
	Title       string            `bson:"title"`
	Body        string            `bson:"body"`
	Data        map[string]string `bson:"data,omitempty"`
	IsRead      bool              `bson:"is_read"`
	CreatedAt   time.Time         `bson:"created_at"`
}

func NewStore(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{coll: db.Collection(collection)}
}

// EnsureIndexes creates the indexes the query shapes rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating notification indexes: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, record *inbox.Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	doc := notificationDoc{
		ID:          record.ID,
		RecipientID: record.RecipientID,
		Title:       record.Title,
		Body:        record.Body,
		Data:        record.Data,
		IsRead:      record.IsRead,
		CreatedAt:   record.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting notification %s: %w", record.ID, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, filter inbox.RecordFilter) ([]inbox.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.coll.Find(ctx, RecordFilterDoc(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding notifications: %w", err)
	}

	records := make([]inbox.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, inbox.Record{
			ID:          d.ID,
			RecipientID: d.RecipientID,
			Title:       d.Title,
			Body:        d.Body,
			Data:        d.Data,
			IsRead:      d.IsRead,
			CreatedAt:   d.CreatedAt,
		})
	}
	return records, nil
}

func (s *Store) Count(ctx context.Context, filter inbox.CountFilter) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"recipient_id": filter.RecipientID, "is_read": filter.IsRead})
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return int(n), nil
}

// UpdateIsRead collects the matching IDs first and then updates exactly those
// documents, so the returned IDs and the update agree even if new records
// arrive in between.
func (s *Store) UpdateIsRead(ctx context.Context, filter inbox.RecordFilter, value bool) ([]string, error) {
	cursor, err := s.coll.Find(ctx, RecordFilterDoc(filter), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("selecting notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var matched []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &matched); err != nil {
		return nil, fmt.Errorf("decoding notification ids: %w", err)
	}

	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.ID)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	_, err = s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"is_read": value}},
	)
	if err != nil {
		return nil, fmt.Errorf("updating is_read: %w", err)
	}
	return ids, nil
}

// RecordFilterDoc builds the Mongo filter document for a RecordFilter.
func RecordFilterDoc(filter inbox.RecordFilter) bson.M {
	doc := bson.M{"recipient_id": filter.RecipientID}
	if filter.Range != nil {
		doc["created_at"] = bson.M{"$gte": filter.Range.GTE, "$lt": filter.Range.LT}
	}
	return doc
}
