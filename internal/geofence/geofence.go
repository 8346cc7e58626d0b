// Package geofence visualizes proximity between the live user position and a
// project's visible locations. It renders marker state only; unlocking flows
// through submitted tracking records like everything else.
package geofence

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/model"
)

// RadiusMeters is the fixed geofence radius drawn around each visible location.
const RadiusMeters = 200.0

// Marker is the render state for one visible location.
type Marker struct {
	Location       model.Location
	Coordinate     codec.Coordinate
	Unlocked       bool
	Inside         bool
	DistanceMeters float64
}

// Evaluator derives marker state from a position and a visible location set.
// It holds no state; every position update recomputes from scratch.
type Evaluator struct {
	log *zap.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log}
}

// Evaluate computes a marker for every visible location with a parseable
// position. Locations whose position does not parse are skipped and logged;
// a bad row must never take down the map.
func (e *Evaluator) Evaluate(user codec.Coordinate, visible []model.Location, progress model.ParticipantProgress) []Marker {
	markers := make([]Marker, 0, len(visible))
	for _, loc := range visible {
		coord, err := codec.ParseLocationPosition(loc.LocationPosition)
		if err != nil {
			e.log.Warn("skipping location with malformed position",
				zap.Int("location_id", loc.ID),
				zap.String("position", loc.LocationPosition))
			continue
		}

		distance := DistanceMeters(user, coord)
		markers = append(markers, Marker{
			Location:       loc,
			Coordinate:     coord,
			Unlocked:       progress.Unlocked(loc.ID),
			Inside:         distance <= RadiusMeters,
			DistanceMeters: distance,
		})
	}
	return markers
}

// GeoJSON encodes the user position and markers as a FeatureCollection for
// map rendering. Each marker feature carries its unlock and proximity state
// plus the fence radius as properties.
func GeoJSON(user codec.Coordinate, markers []Marker) ([]byte, error) {
	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				ID:       "user",
				Geometry: geom.NewPointFlat(geom.XY, []float64{user.Longitude, user.Latitude}),
				Properties: map[string]any{
					"kind": "user",
				},
			},
		},
	}

	for _, m := range markers {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{m.Coordinate.Longitude, m.Coordinate.Latitude}),
			Properties: map[string]any{
				"kind":         "location",
				"location_id":  m.Location.ID,
				"name":         m.Location.LocationName,
				"unlocked":     m.Unlocked,
				"inside":       m.Inside,
				"distance_m":   m.DistanceMeters,
				"radius_m":     RadiusMeters,
				"score_points": m.Location.ScorePoints,
				"trigger":      string(m.Location.LocationTrigger),
			},
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "geofence: encode geojson")
	}
	return data, nil
}

const earthRadiusM = 6371000.0

// DistanceMeters returns the haversine great-circle distance between two
// WGS84 coordinates.
func DistanceMeters(a, b codec.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
