// Package engine is the single authority for unlock and progress state. It
// reconciles a project's location set against raw tracking rows into
// ParticipantProgress, enforces the duplicate-visit policy ahead of the one
// mutating backend call, and applies the display-mode policy every view
// shares. Screens render engine output; they never compute points or unlock
// membership themselves.
package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/identity"
	"github.com/storypath/storypath-cli/internal/model"
	"github.com/storypath/storypath-cli/internal/refresh"
	"github.com/storypath/storypath-cli/pkg/storypath"
)

var (
	// ErrAlreadyVisited is returned when the participant already holds a
	// tracking record for the scanned location. The check runs locally
	// against freshly fetched rows; no network write happens.
	ErrAlreadyVisited = errors.New("location already visited")
	// ErrLocationNotFound is returned when a scan claim does not resolve to
	// a location of the current project.
	ErrLocationNotFound = errors.New("location not found in project")
	// ErrScanInFlight is returned while a previous scan submission has not
	// completed. Scans are serialized per engine instance.
	ErrScanInFlight = errors.New("scan already in flight")
)

// Engine reconciles progress for one device. It holds no derived state:
// every computation is a pure re-fetch-and-recompute against the backend.
type Engine struct {
	client   storypath.Client
	identity identity.Provider
	refresh  *refresh.Coordinator
	log      *zap.Logger

	scanBusy atomic.Bool
}

// New creates an Engine. The identity provider is injected so tests can
// substitute participants.
func New(client storypath.Client, id identity.Provider, coord *refresh.Coordinator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{client: client, identity: id, refresh: coord, log: log}
}

// ProjectState is one reconciliation pass: the project, its locations and the
// participant's derived progress, fetched together so a single render cycle
// sees a consistent snapshot.
type ProjectState struct {
	Project   model.Project
	Locations []model.Location
	Progress  model.ParticipantProgress
}

// Reconcile fetches the project, its locations and its full tracking set and
// derives the participant's progress. The three reads are independent and run
// concurrently; nothing is cached beyond the returned snapshot.
func (e *Engine) Reconcile(ctx context.Context, projectID int) (*ProjectState, error) {
	participant, err := e.identity.Participant(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "engine: resolve participant")
	}

	var (
		project   *model.Project
		locations []model.Location
		tracking  []model.Tracking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = e.client.GetProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = e.client.ListLocations(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		tracking, err = e.client.ListTracking(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := derive(projectID, participant, locations, tracking)
	return &ProjectState{Project: *project, Locations: locations, Progress: progress}, nil
}

// derive computes every progress quantity in one pass over the project's
// full tracking set. Participant-scoped values filter client-side.
func derive(projectID int, participant string, locations []model.Location, tracking []model.Tracking) model.ParticipantProgress {
	unlocked := storypath.UniqueVisitedLocationIDs(tracking, participant)
	return model.ParticipantProgress{
		ProjectID:               projectID,
		ParticipantUsername:     participant,
		UnlockedLocationIDs:     unlocked,
		TotalPoints:             storypath.SumPoints(tracking, participant),
		TotalPossiblePoints:     storypath.TotalPossiblePoints(locations),
		VisitedLocationCount:    len(unlocked),
		LocationCount:           len(locations),
		PerLocationParticipants: storypath.CountUniqueParticipantsPerLocation(tracking),
		TotalParticipants:       storypath.CountUniqueParticipants(tracking),
	}
}

// VisibleLocations applies the display-mode policy: a project set to display
// all locations surfaces the full list regardless of unlock state; any other
// mode surfaces only unlocked locations. The home screen and the map must
// both go through here.
func VisibleLocations(project model.Project, locations []model.Location, progress model.ParticipantProgress) []model.Location {
	if project.ShouldDisplayAllLocations() {
		return locations
	}
	visible := make([]model.Location, 0, len(locations))
	for _, loc := range locations {
		if progress.Unlocked(loc.ID) {
			visible = append(visible, loc)
		}
	}
	return visible
}

// ScanResult reports a successful scan submission.
type ScanResult struct {
	Location      model.Location
	PointsAwarded int
}

// SubmitScan handles one decoded QR payload end to end: parse, resolve the
// location against the project, duplicate-check against tracking rows fetched
// no earlier than this call, then submit and bump the refresh coordinator.
// Points always come from the location row; a points value embedded in the
// payload is ignored.
//
// A busy flag rejects re-entrant scans while one submission is in flight.
// Two scans racing from different devices can still both pass the duplicate
// check; the backend keeps both rows and reconciliation counts the location
// once, which is the accepted resolution.
func (e *Engine) SubmitScan(ctx context.Context, projectID int, rawPayload string) (*ScanResult, error) {
	if !e.scanBusy.CompareAndSwap(false, true) {
		return nil, ErrScanInFlight
	}
	defer e.scanBusy.Store(false)

	claim, err := codec.ParseScanPayload(rawPayload)
	if err != nil {
		return nil, err
	}
	if claim.ProjectID != projectID {
		return nil, eris.Wrapf(ErrLocationNotFound, "payload targets project %d", claim.ProjectID)
	}

	participant, err := e.identity.Participant(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "engine: resolve participant")
	}

	// Read then validate then write. Both reads are independent.
	var (
		locations []model.Location
		visits    []model.Tracking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locations, err = e.client.ListLocations(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		visits, err = e.client.ListParticipantTracking(gctx, projectID, participant)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	location, ok := findLocation(locations, claim.LocationID)
	if !ok {
		return nil, eris.Wrapf(ErrLocationNotFound, "location %d", claim.LocationID)
	}

	if storypath.UniqueVisitedLocationIDs(visits, participant)[claim.LocationID] {
		return nil, eris.Wrapf(ErrAlreadyVisited, "location %d", claim.LocationID)
	}

	if claim.HasPoints && claim.Points != location.ScorePoints {
		e.log.Warn("scan payload points differ from location record, using record",
			zap.Int("location_id", location.ID),
			zap.Int("payload_points", claim.Points),
			zap.Int("record_points", location.ScorePoints))
	}

	err = e.client.SubmitTracking(ctx, model.Tracking{
		ProjectID:           projectID,
		LocationID:          location.ID,
		Points:              location.ScorePoints,
		ParticipantUsername: participant,
	})
	if err != nil {
		return nil, err
	}

	if e.refresh != nil {
		e.refresh.Bump()
	}

	e.log.Info("location unlocked",
		zap.Int("project_id", projectID),
		zap.Int("location_id", location.ID),
		zap.Int("points", location.ScorePoints),
		zap.String("participant", participant))

	return &ScanResult{Location: location, PointsAwarded: location.ScorePoints}, nil
}

func findLocation(locations []model.Location, id int) (model.Location, bool) {
	for _, loc := range locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return model.Location{}, false
}
