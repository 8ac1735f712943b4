package sqlstore

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	recipient_id TEXT    NOT NULL,
	title        TEXT    NOT NULL DEFAULT '',
	body         TEXT    NOT NULL DEFAULT '',
	data         TEXT    NOT NULL DEFAULT '{}',
	is_read      INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created
	ON notifications (recipient_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient_read
	ON notifications (recipient_id, is_read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
