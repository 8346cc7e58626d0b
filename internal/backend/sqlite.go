package backend

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/storypath/storypath-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
// Use ":memory:" for throwaway servers.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "backend: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "backend: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS project (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	is_published        INTEGER NOT NULL DEFAULT 0,
	participant_scoring TEXT NOT NULL DEFAULT 'Not Scored',
	username            TEXT NOT NULL DEFAULT '',
	instructions        TEXT NOT NULL DEFAULT '',
	initial_clue        TEXT NOT NULL DEFAULT '',
	homescreen_display  TEXT NOT NULL DEFAULT 'Display initial clue'
);

CREATE TABLE IF NOT EXISTS location (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id        INTEGER NOT NULL REFERENCES project(id),
	location_name     TEXT NOT NULL,
	location_trigger  TEXT NOT NULL DEFAULT 'QR Code',
	location_position TEXT NOT NULL,
	score_points      INTEGER NOT NULL DEFAULT 0,
	clue              TEXT NOT NULL DEFAULT '',
	location_content  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tracking (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id           INTEGER NOT NULL REFERENCES project(id),
	location_id          INTEGER NOT NULL REFERENCES location(id),
	points               INTEGER NOT NULL DEFAULT 0,
	username             TEXT NOT NULL DEFAULT '',
	participant_username TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_location_project ON location(project_id);
CREATE INDEX IF NOT EXISTS idx_tracking_project ON tracking(project_id);
CREATE INDEX IF NOT EXISTS idx_tracking_participant ON tracking(project_id, participant_username);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "backend: migrate sqlite")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListProjects(ctx context.Context, publishedOnly bool) ([]model.Project, error) {
	query := `SELECT id, title, description, is_published, participant_scoring, username, instructions, initial_clue, homescreen_display FROM project`
	if publishedOnly {
		query += ` WHERE is_published = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "backend: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.IsPublished, &p.ParticipantScoring,
			&p.Username, &p.Instructions, &p.InitialClue, &p.HomescreenDisplay); err != nil {
			return nil, eris.Wrap(err, "backend: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "backend: iterate projects")
}

func (s *SQLiteStore) GetProject(ctx context.Context, id int) (*model.Project, error) {
	var p model.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, is_published, participant_scoring, username, instructions, initial_clue, homescreen_display FROM project WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.IsPublished, &p.ParticipantScoring,
		&p.Username, &p.Instructions, &p.InitialClue, &p.HomescreenDisplay)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, eris.Wrap(err, "backend: get project")
	}
	return &p, nil
}

func (s *SQLiteStore) InsertProject(ctx context.Context, p model.Project) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO project (title, description, is_published, participant_scoring, username, instructions, initial_clue, homescreen_display)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Description, p.IsPublished, string(p.ParticipantScoring),
		p.Username, p.Instructions, p.InitialClue, string(p.HomescreenDisplay),
	)
	if err != nil {
		return 0, eris.Wrap(err, "backend: insert project")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "backend: project id")
	}
	return int(id), nil
}

func (s *SQLiteStore) ListLocations(ctx context.Context, projectID int) ([]model.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, location_name, location_trigger, location_position, score_points, clue, location_content
		 FROM location WHERE project_id = ? ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "backend: list locations")
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var loc model.Location
		if err := rows.Scan(&loc.ID, &loc.ProjectID, &loc.LocationName, &loc.LocationTrigger,
			&loc.LocationPosition, &loc.ScorePoints, &loc.Clue, &loc.LocationContent); err != nil {
			return nil, eris.Wrap(err, "backend: scan location")
		}
		locations = append(locations, loc)
	}
	return locations, eris.Wrap(rows.Err(), "backend: iterate locations")
}

func (s *SQLiteStore) InsertLocation(ctx context.Context, loc model.Location) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO location (project_id, location_name, location_trigger, location_position, score_points, clue, location_content)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		loc.ProjectID, loc.LocationName, string(loc.LocationTrigger), loc.LocationPosition,
		loc.ScorePoints, loc.Clue, loc.LocationContent,
	)
	if err != nil {
		return 0, eris.Wrap(err, "backend: insert location")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "backend: location id")
	}
	return int(id), nil
}

func (s *SQLiteStore) ListTracking(ctx context.Context, filter TrackingFilter) ([]model.Tracking, error) {
	query := `SELECT id, project_id, location_id, points, username, participant_username FROM tracking WHERE project_id = ?`
	args := []any{filter.ProjectID}
	if filter.Participant != "" {
		query += ` AND participant_username = ?`
		args = append(args, filter.Participant)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "backend: list tracking")
	}
	defer rows.Close()

	var tracking []model.Tracking
	for rows.Next() {
		var t model.Tracking
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.LocationID, &t.Points, &t.Username, &t.ParticipantUsername); err != nil {
			return nil, eris.Wrap(err, "backend: scan tracking")
		}
		tracking = append(tracking, t)
	}
	return tracking, eris.Wrap(rows.Err(), "backend: iterate tracking")
}

func (s *SQLiteStore) InsertTracking(ctx context.Context, t model.Tracking) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tracking (project_id, location_id, points, username, participant_username) VALUES (?, ?, ?, ?, ?)`,
		t.ProjectID, t.LocationID, t.Points, t.Username, t.ParticipantUsername,
	)
	if err != nil {
		return 0, eris.Wrap(err, "backend: insert tracking")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "backend: tracking id")
	}
	return int(id), nil
}
