package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/identity"
	"github.com/storypath/storypath-cli/internal/model"
	"github.com/storypath/storypath-cli/internal/refresh"
	"github.com/storypath/storypath-cli/pkg/storypath"
)

// fakeClient is an in-memory storypath.Client.
type fakeClient struct {
	mu        sync.Mutex
	project   model.Project
	locations []model.Location
	tracking  []model.Tracking
	submitted []model.Tracking

	submitErr     error
	submitGate    chan struct{} // if set, SubmitTracking blocks until closed
	submitEntered chan struct{} // if set, closed when SubmitTracking is reached
}

func (f *fakeClient) ListPublishedProjects(ctx context.Context) ([]model.Project, error) {
	return []model.Project{f.project}, nil
}

func (f *fakeClient) GetProject(ctx context.Context, projectID int) (*model.Project, error) {
	if f.project.ID != projectID {
		return nil, storypath.ErrProjectNotFound
	}
	p := f.project
	return &p, nil
}

func (f *fakeClient) ListLocations(ctx context.Context, projectID int) ([]model.Location, error) {
	var out []model.Location
	for _, loc := range f.locations {
		if loc.ProjectID == projectID {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f *fakeClient) ListTracking(ctx context.Context, projectID int) ([]model.Tracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Tracking
	for _, t := range f.tracking {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeClient) ListParticipantTracking(ctx context.Context, projectID int, participant string) ([]model.Tracking, error) {
	all, _ := f.ListTracking(ctx, projectID)
	var out []model.Tracking
	for _, t := range all {
		if t.ParticipantUsername == participant {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeClient) SubmitTracking(ctx context.Context, tracking model.Tracking) error {
	if f.submitEntered != nil {
		close(f.submitEntered)
		f.submitEntered = nil
	}
	if f.submitGate != nil {
		<-f.submitGate
	}
	if f.submitErr != nil {
		return f.submitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, tracking)
	f.tracking = append(f.tracking, tracking)
	return nil
}

func newFixtureClient() *fakeClient {
	return &fakeClient{
		project: model.Project{
			ID:                2,
			Title:             "Campus Tour",
			IsPublished:       true,
			HomescreenDisplay: model.DisplayInitialClue,
		},
		locations: []model.Location{
			{ID: 1, ProjectID: 2, LocationName: "L1", LocationPosition: "(-27.49,153.01)", ScorePoints: 10},
			{ID: 4, ProjectID: 2, LocationName: "L2", LocationPosition: "(-27.50,153.02)", ScorePoints: 15},
		},
	}
}

func newTestEngine(client *fakeClient) (*Engine, *refresh.Coordinator) {
	coord := refresh.NewCoordinator()
	return New(client, identity.Static("alice"), coord, nil), coord
}

func TestReconcile_ScanScenario(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	client.tracking = []model.Tracking{
		{ProjectID: 2, LocationID: 1, Points: 10, ParticipantUsername: "alice"},
	}
	e, _ := newTestEngine(client)

	state, err := e.Reconcile(context.Background(), 2)
	require.NoError(t, err)

	p := state.Progress
	assert.Equal(t, 1, p.VisitedLocationCount)
	assert.Equal(t, 10, p.TotalPoints)
	assert.Equal(t, 25, p.TotalPossiblePoints)
	assert.Equal(t, 2, p.LocationCount)
	assert.True(t, p.Unlocked(1))
	assert.False(t, p.Unlocked(4))
}

func TestReconcile_IgnoresOtherParticipants(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	client.tracking = []model.Tracking{
		{ProjectID: 2, LocationID: 1, Points: 10, ParticipantUsername: "alice"},
		{ProjectID: 2, LocationID: 1, Points: 10, ParticipantUsername: "bob"},
		{ProjectID: 2, LocationID: 4, Points: 15, ParticipantUsername: "bob"},
	}
	e, _ := newTestEngine(client)

	state, err := e.Reconcile(context.Background(), 2)
	require.NoError(t, err)

	p := state.Progress
	assert.Equal(t, 10, p.TotalPoints, "bob's rows must not change alice's points")
	assert.Equal(t, 1, p.VisitedLocationCount)
	assert.Equal(t, 2, p.TotalParticipants)
	assert.Equal(t, 2, p.PerLocationParticipants[1])
	assert.Equal(t, 1, p.PerLocationParticipants[4])
}

func TestReconcile_ProjectNotFound(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(newFixtureClient())

	_, err := e.Reconcile(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storypath.ErrProjectNotFound))
}

func TestVisibleLocations_DisplayModes(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	progress := model.ParticipantProgress{UnlockedLocationIDs: map[int]bool{1: true}}

	clueProject := client.project
	visible := VisibleLocations(clueProject, client.locations, progress)
	require.Len(t, visible, 1)
	assert.Equal(t, 1, visible[0].ID)

	allProject := client.project
	allProject.HomescreenDisplay = model.DisplayAllLocations
	visible = VisibleLocations(allProject, client.locations, progress)
	assert.Len(t, visible, 2)
}

func TestSubmitScan_Success(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	e, coord := newTestEngine(client)

	result, err := e.SubmitScan(context.Background(), 2, "location_id:4,project_id:2")
	require.NoError(t, err)

	assert.Equal(t, 4, result.Location.ID)
	assert.Equal(t, 15, result.PointsAwarded)
	require.Len(t, client.submitted, 1)
	assert.Equal(t, "alice", client.submitted[0].ParticipantUsername)
	assert.Equal(t, 15, client.submitted[0].Points)
	assert.Equal(t, uint64(1), coord.Version(), "refresh coordinator bumped")
}

func TestSubmitScan_PayloadPointsNeverTrusted(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	e, _ := newTestEngine(client)

	result, err := e.SubmitScan(context.Background(), 2, "location_id:4,project_id:2,points:9999")
	require.NoError(t, err)

	assert.Equal(t, 15, result.PointsAwarded)
	require.Len(t, client.submitted, 1)
	assert.Equal(t, 15, client.submitted[0].Points)
}

func TestSubmitScan_DuplicateRejectedLocally(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	e, coord := newTestEngine(client)
	ctx := context.Background()

	_, err := e.SubmitScan(ctx, 2, "location_id:1,project_id:2")
	require.NoError(t, err)

	_, err = e.SubmitScan(ctx, 2, "location_id:1,project_id:2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyVisited))
	assert.Len(t, client.submitted, 1, "second attempt must not write")
	assert.Equal(t, uint64(1), coord.Version(), "no bump on rejection")

	state, err := e.Reconcile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Progress.VisitedLocationCount, "exactly one counted visit")
}

func TestSubmitScan_InvalidPayload(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(newFixtureClient())

	_, err := e.SubmitScan(context.Background(), 2, "garbage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrInvalidPayload))
}

func TestSubmitScan_WrongProject(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(newFixtureClient())

	_, err := e.SubmitScan(context.Background(), 2, "location_id:1,project_id:5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocationNotFound))
}

func TestSubmitScan_UnknownLocation(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	e, _ := newTestEngine(client)

	_, err := e.SubmitScan(context.Background(), 2, "location_id:77,project_id:2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocationNotFound))
	assert.Empty(t, client.submitted)
}

func TestSubmitScan_ReentrancyGuard(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	client.submitGate = make(chan struct{})
	client.submitEntered = make(chan struct{})
	entered := client.submitEntered
	e, _ := newTestEngine(client)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.SubmitScan(ctx, 2, "location_id:1,project_id:2")
		done <- err
	}()

	// Wait until the first scan is blocked inside SubmitTracking.
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first scan never reached SubmitTracking")
	}

	_, err := e.SubmitScan(ctx, 2, "location_id:4,project_id:2")
	assert.True(t, errors.Is(err, ErrScanInFlight))

	close(client.submitGate)
	require.NoError(t, <-done)

	// Guard released after completion.
	_, err = e.SubmitScan(ctx, 2, "location_id:4,project_id:2")
	require.NoError(t, err)
}

func TestSubmitScan_SubmitErrorPropagates(t *testing.T) {
	t.Parallel()

	client := newFixtureClient()
	client.submitErr = errors.New("backend down")
	e, coord := newTestEngine(client)

	_, err := e.SubmitScan(context.Background(), 2, "location_id:1,project_id:2")
	require.Error(t, err)
	assert.Equal(t, uint64(0), coord.Version(), "no bump on failed submit")
}
