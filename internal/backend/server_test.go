package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storypath/storypath-cli/internal/model"
	"github.com/storypath/storypath-cli/pkg/storypath"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "backend.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTestData(t *testing.T, store *SQLiteStore) (projectID int, locationIDs []int) {
	t.Helper()
	ctx := context.Background()

	projectID, err := store.InsertProject(ctx, model.Project{
		Title:             "Campus Tour",
		IsPublished:       true,
		HomescreenDisplay: model.DisplayAllLocations,
	})
	require.NoError(t, err)

	_, err = store.InsertProject(ctx, model.Project{Title: "Draft", IsPublished: false})
	require.NoError(t, err)

	for _, loc := range []model.Location{
		{ProjectID: projectID, LocationName: "Fountain", LocationPosition: "(-27.4975,153.0137)", ScorePoints: 10},
		{ProjectID: projectID, LocationName: "Library", LocationPosition: "(-27.4965,153.0140)", ScorePoints: 15},
	} {
		id, err := store.InsertLocation(ctx, loc)
		require.NoError(t, err)
		locationIDs = append(locationIDs, id)
	}
	return projectID, locationIDs
}

// newTestServer wires the real gateway client against the dev server so the
// two sides of the REST contract are tested together.
func newTestServer(t *testing.T, store *SQLiteStore) storypath.Client {
	t.Helper()
	srv := httptest.NewServer(NewServer(store, nil).Routes())
	t.Cleanup(srv.Close)
	return storypath.NewClient("dev-jwt", storypath.WithBaseURL(srv.URL), storypath.WithUsername("author"))
}

func TestServer_ListPublishedProjects(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedTestData(t, store)
	client := newTestServer(t, store)

	projects, err := client.ListPublishedProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1, "unpublished project filtered out")
	assert.Equal(t, "Campus Tour", projects[0].Title)
}

func TestServer_GetProject_UnpublishedHidden(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedTestData(t, store)
	client := newTestServer(t, store)

	_, err := client.GetProject(context.Background(), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, storypath.ErrProjectNotFound)
}

func TestServer_ListLocations(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	projectID, _ := seedTestData(t, store)
	client := newTestServer(t, store)

	locations, err := client.ListLocations(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Fountain", locations[0].LocationName)
	assert.Equal(t, 25, storypath.TotalPossiblePoints(locations))
}

func TestServer_TrackingRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	projectID, locationIDs := seedTestData(t, store)
	client := newTestServer(t, store)
	ctx := context.Background()

	err := client.SubmitTracking(ctx, model.Tracking{
		ProjectID:           projectID,
		LocationID:          locationIDs[0],
		Points:              10,
		ParticipantUsername: "alice",
	})
	require.NoError(t, err, "empty 204 body must be treated as success")

	tracking, err := client.ListParticipantTracking(ctx, projectID, "alice")
	require.NoError(t, err)
	require.Len(t, tracking, 1)
	assert.Equal(t, locationIDs[0], tracking[0].LocationID)
	assert.Equal(t, "author", tracking[0].Username)

	other, err := client.ListParticipantTracking(ctx, projectID, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestServer_TrackingSelectProjection(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	projectID, locationIDs := seedTestData(t, store)
	ctx := context.Background()

	_, err := store.InsertTracking(ctx, model.Tracking{
		ProjectID: projectID, LocationID: locationIDs[1], Points: 15, ParticipantUsername: "alice",
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(store, nil).Routes())
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet,
		srv.URL+"/tracking?project_id=eq.1&participant_username=eq.alice&select=location_id", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer dev-jwt")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])
	assert.Contains(t, body, "location_id")
	assert.NotContains(t, body, "participant_username", "projection strips other columns")
}

func TestServer_MissingBearerRejected(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	srv := httptest.NewServer(NewServer(store, nil).Routes())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/project?is_published=eq.true")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_CreateTracking_Validation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	srv := httptest.NewServer(NewServer(store, nil).Routes())
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/tracking",
		strings.NewReader(`{"project_id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer dev-jwt")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_BadFilterRejected(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	srv := httptest.NewServer(NewServer(store, nil).Routes())
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/location?project_id=bogus", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer dev-jwt")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
