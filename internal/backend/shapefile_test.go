package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/model"
)

func writePointShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poi.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	w.SetFields([]shp.Field{shp.StringField("NAME", 25)})

	w.Write(&shp.Point{X: 153.0137, Y: -27.4975})
	w.WriteAttribute(0, 0, "Fountain")

	w.Write(&shp.Point{X: 153.0140, Y: -27.4965})
	w.WriteAttribute(1, 0, "")

	w.Close()
	return path
}

func TestImportShapefile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	projectID, err := store.InsertProject(ctx, model.Project{Title: "Imported Walk"})
	require.NoError(t, err)

	path := writePointShapefile(t)

	inserted, err := ImportShapefile(ctx, store, path, projectID, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	locations, err := store.ListLocations(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, "Fountain", locations[0].LocationName)
	assert.Equal(t, "POI 2", locations[1].LocationName, "unnamed feature gets a fallback label")
	assert.Equal(t, model.TriggerEntry, locations[0].LocationTrigger)
	assert.Equal(t, 5, locations[0].ScorePoints)

	// Positions round-trip through the codec as (lat,lng).
	coord, err := codec.ParseLocationPosition(locations[0].LocationPosition)
	require.NoError(t, err)
	assert.InDelta(t, -27.4975, coord.Latitude, 1e-9)
	assert.InDelta(t, 153.0137, coord.Longitude, 1e-9)
}

func TestImportShapefile_MissingFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := ImportShapefile(context.Background(), store, "/nonexistent/poi.shp", 1, 0, nil)
	require.Error(t, err)
}
