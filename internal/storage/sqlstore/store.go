// Package sqlstore implements the notification store on an embedded SQLite
// database.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

// Store implements inbox.Repository. created_at is stored as UTC unix
// nanoseconds so range comparisons are numeric.
type Store struct {
	db *sqlx.DB
}

// row is the database representation of a record.
type row struct {
	ID          string `db:"id"`
	RecipientID string `db:"recipient_id"`
	Title       string `db:"title"`
	Body        string `db:"body"`
	Data        string `db:"data"`
	IsRead      bool   `db:"is_read"`
	CreatedAt   int64  `db:"created_at"`
}

// NewStore opens (or creates) the database at dbPath and applies pending
// migrations. Use ":memory:" for a throwaway database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
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

	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("marshaling data for notification %s: %w", record.ID, err)
	}

	const query = `
		INSERT INTO notifications (id, recipient_id, title, body, data, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.RecipientID, record.Title, record.Body,
		string(data), record.IsRead, record.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting notification %s: %w", record.ID, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, filter inbox.RecordFilter) ([]inbox.Record, error) {
	where, args := whereClause(filter)
	query := "SELECT * FROM notifications WHERE " + where + " ORDER BY created_at DESC, id DESC"

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	records := make([]inbox.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) Count(ctx context.Context, filter inbox.CountFilter) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = ?",
		filter.RecipientID, filter.IsRead,
	)
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateIsRead(ctx context.Context, filter inbox.RecordFilter, value bool) ([]string, error) {
	where, args := whereClause(filter)
	query := "UPDATE notifications SET is_read = ? WHERE " + where + " RETURNING id"

	ids := make([]string, 0)
	if err := s.db.SelectContext(ctx, &ids, query, append([]interface{}{value}, args...)...); err != nil {
		return nil, fmt.Errorf("updating is_read: %w", err)
	}
	return ids, nil
}

func whereClause(filter inbox.RecordFilter) (string, []interface{}) {
	conditions := []string{"recipient_id = ?"}
	args := []interface{}{filter.RecipientID}

	if filter.Range != nil {
		conditions = append(conditions, "created_at >= ?", "created_at < ?")
		args = append(args, filter.Range.GTE.UTC().UnixNano(), filter.Range.LT.UTC().UnixNano())
	}
	return strings.Join(conditions, " AND "), args
}

func (r row) toRecord() (inbox.Record, error) {
	rec := inbox.Record{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		Title:       r.Title,
		Body:        r.Body,
		IsRead:      r.IsRead,
		CreatedAt:   time.Unix(0, r.CreatedAt),
	}
	if r.Data != "" && r.Data != "null" {
		if err := json.Unmarshal([]byte(r.Data), &rec.Data); err != nil {
			return inbox.Record{}, fmt.Errorf("unmarshaling data for notification %s: %w", r.ID, err)
		}
	}
	return rec, nil
}
