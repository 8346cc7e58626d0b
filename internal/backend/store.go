// Package backend is a self-contained development stand-in for the StoryPath
// REST backend: the same PostgREST-shaped surface the real service exposes,
// over a local store. It exists so the client can be exercised end to end
// without network access to the hosted API.
package backend

import (
	"context"

	"github.com/storypath/storypath-cli/internal/model"
)

// TrackingFilter narrows a tracking list query.
type TrackingFilter struct {
	ProjectID   int
	Participant string
}

// Store is the persistence interface behind the dev server.
type Store interface {
	ListProjects(ctx context.Context, publishedOnly bool) ([]model.Project, error)
	GetProject(ctx context.Context, id int) (*model.Project, error)
	InsertProject(ctx context.Context, p model.Project) (int, error)

	ListLocations(ctx context.Context, projectID int) ([]model.Location, error)
	InsertLocation(ctx context.Context, loc model.Location) (int, error)

	ListTracking(ctx context.Context, filter TrackingFilter) ([]model.Tracking, error)
	InsertTracking(ctx context.Context, t model.Tracking) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}
