package identity

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. The profile table
// holds at most one row, keyed by a generated device id so the same database
// file could later carry per-device rows without a migration.
type SQLiteStore struct {
	db       *sql.DB
	deviceID string
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profile (
	device_id  TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// NewSQLite opens (or creates) the identity database at the given path and
// configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "identity: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "identity: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "identity: migrate")
	}

	s := &SQLiteStore{db: db}
	if err := s.loadDeviceID(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) loadDeviceID() error {
	var id string
	err := s.db.QueryRow(`SELECT device_id FROM profile LIMIT 1`).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		s.deviceID = uuid.New().String()
		return nil
	case err != nil:
		return eris.Wrap(err, "identity: load device id")
	default:
		s.deviceID = id
		return nil
	}
}

func (s *SQLiteStore) Participant(ctx context.Context) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT username FROM profile WHERE device_id = ?`, s.deviceID).Scan(&username)
	switch {
	case err == sql.ErrNoRows:
		return "", ErrNoParticipant
	case err != nil:
		return "", eris.Wrap(err, "identity: read participant")
	}
	if username == "" {
		return "", ErrNoParticipant
	}
	return username, nil
}

func (s *SQLiteStore) SetParticipant(ctx context.Context, username string) error {
	if username == "" {
		return eris.New("identity: empty username")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (device_id, username) VALUES (?, ?)
		ON CONFLICT (device_id) DO UPDATE SET username = excluded.username, updated_at = datetime('now')`,
		s.deviceID, username,
	)
	return eris.Wrap(err, "identity: set participant")
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profile WHERE device_id = ?`, s.deviceID)
	return eris.Wrap(err, "identity: clear")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
