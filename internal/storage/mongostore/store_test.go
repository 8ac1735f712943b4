package mongostore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tinywideclouds/go-notification-inbox/internal/storage/mongostore"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

func TestRecordFilterDoc(t *testing.T) {
	gte := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	lt := gte.AddDate(0, 0, 1)

	t.Run("Recipient only", func(t *testing.T) {
		doc := mongostore.RecordFilterDoc(inbox.RecordFilter{RecipientID: "u1"})
		assert.Equal(t, bson.M{"recipient_id": "u1"}, doc)
	})

	t.Run("With range", func(t *testing.T) {
		doc := mongostore.RecordFilterDoc(inbox.RecordFilter{
			RecipientID: "u1",
			Range:       &inbox.TimeRange{GTE: gte, LT: lt},
		})
		assert.Equal(t, bson.M{
			"recipient_id": "u1",
			"created_at":   bson.M{"$gte": gte, "$lt": lt},
		}, doc)
	})
}
