package backend

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/storypath/storypath-cli/internal/model"
)

// Pool abstracts pgxpool.Pool for testing with pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "backend: connect postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS project (
	id                  SERIAL PRIMARY KEY,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	is_published        BOOLEAN NOT NULL DEFAULT FALSE,
	participant_scoring TEXT NOT NULL DEFAULT 'Not Scored',
	username            TEXT NOT NULL DEFAULT '',
	instructions        TEXT NOT NULL DEFAULT '',
	initial_clue        TEXT NOT NULL DEFAULT '',
	homescreen_display  TEXT NOT NULL DEFAULT 'Display initial clue'
);

CREATE TABLE IF NOT EXISTS location (
	id                SERIAL PRIMARY KEY,
	project_id        INTEGER NOT NULL REFERENCES project(id),
	location_name     TEXT NOT NULL,
	location_trigger  TEXT NOT NULL DEFAULT 'QR Code',
	location_position TEXT NOT NULL,
	score_points      INTEGER NOT NULL DEFAULT 0,
	clue              TEXT NOT NULL DEFAULT '',
	location_content  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tracking (
	id                   SERIAL PRIMARY KEY,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "backend: migrate postgres")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, publishedOnly bool) ([]model.Project, error) {
	query := `SELECT id, title, description, is_published, participant_scoring, username, instructions, initial_clue, homescreen_display FROM project`
	if publishedOnly {
		query += ` WHERE is_published = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
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

func (s *PostgresStore) GetProject(ctx context.Context, id int) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, is_published, participant_scoring, username, instructions, initial_clue, homescreen_display FROM project WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.IsPublished, &p.ParticipantScoring,
		&p.Username, &p.Instructions, &p.InitialClue, &p.HomescreenDisplay)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, eris.Wrap(err, "backend: get project")
	}
	return &p, nil
}

func (s *PostgresStore) InsertProject(ctx context.Context, p model.Project) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO project (title, description, is_published, participant_scoring, username, instructions, initial_clue, homescreen_display)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.Title, p.Description, p.IsPublished, string(p.ParticipantScoring),
		p.Username, p.Instructions, p.InitialClue, string(p.HomescreenDisplay),
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "backend: insert project")
	}
	return id, nil
}

func (s *PostgresStore) ListLocations(ctx context.Context, projectID int) ([]model.Location, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, location_name, location_trigger, location_position, score_points, clue, location_content
		 FROM location WHERE project_id = $1 ORDER BY id`,
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

func (s *PostgresStore) InsertLocation(ctx context.Context, loc model.Location) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO location (project_id, location_name, location_trigger, location_position, score_points, clue, location_content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		loc.ProjectID, loc.LocationName, string(loc.LocationTrigger), loc.LocationPosition,
		loc.ScorePoints, loc.Clue, loc.LocationContent,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "backend: insert location")
	}
	return id, nil
}

func (s *PostgresStore) ListTracking(ctx context.Context, filter TrackingFilter) ([]model.Tracking, error) {
	query := `SELECT id, project_id, location_id, points, username, participant_username FROM tracking WHERE project_id = $1`
	args := []any{filter.ProjectID}
	if filter.Participant != "" {
		query += ` AND participant_username = $2`
		args = append(args, filter.Participant)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) InsertTracking(ctx context.Context, t model.Tracking) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tracking (project_id, location_id, points, username, participant_username) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.ProjectID, t.LocationID, t.Points, t.Username, t.ParticipantUsername,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "backend: insert tracking")
	}
	return id, nil
}
