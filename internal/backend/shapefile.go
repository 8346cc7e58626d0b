package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/storypath/storypath-cli/internal/model"
)

// ImportShapefile loads point features from a WGS84 shapefile as locations of
// the given project. A character attribute named "name" (any case) labels the
// location when present; non-point shapes are skipped and logged. Returns the
// number of locations inserted.
func ImportShapefile(ctx context.Context, store Store, path string, projectID, points int, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reader, err := shp.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "backend: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameField := -1
	for i, field := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(field.String(), "\x00"), "name") {
			nameField = i
			break
		}
	}

	inserted := 0
	for reader.Next() {
		n, shape := reader.Shape()

		point, ok := shape.(*shp.Point)
		if !ok {
			log.Warn("skipping non-point feature", zap.Int("feature", n))
			continue
		}

		// Shapefiles store X=longitude, Y=latitude.
		g := geom.NewPointFlat(geom.XY, []float64{point.X, point.Y}).SetSRID(4326)
		coords := g.FlatCoords()

		name := ""
		if nameField >= 0 {
			name = strings.TrimSpace(reader.ReadAttribute(n, nameField))
		}
		if name == "" {
			name = fmt.Sprintf("POI %d", n+1)
		}

		if _, err := store.InsertLocation(ctx, model.Location{
			ProjectID:        projectID,
			LocationName:     name,
			LocationTrigger:  model.TriggerEntry,
			LocationPosition: fmt.Sprintf("(%g,%g)", coords[1], coords[0]),
			ScorePoints:      points,
		}); err != nil {
			return inserted, err
		}
		inserted++
	}

	return inserted, nil
}
