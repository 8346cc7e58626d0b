// Package codec parses the two wire formats project authors produce: the
// "(lat,lng)" location position string stored on location rows, and the
// comma-separated key:value payload embedded in a location's QR code.
package codec

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Sentinel errors for the two parse failures. Callers branch with errors.Is;
// both are user-recoverable, never fatal.
var (
	ErrMalformedCoordinate = errors.New("malformed coordinate")
	ErrInvalidPayload      = errors.New("invalid scan payload")
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// ScanClaim is the decoded content of a scanned QR code. Points is carried
// only because some authored codes embed it; it is informational and must
// never be used for scoring; authoritative points come from the location row.
type ScanClaim struct {
	LocationID int
	ProjectID  int
	Points     int
	HasPoints  bool
}

// ParseLocationPosition parses a backend location_position string of the form
// "(lat,lng)". Whitespace around either component is tolerated. Returns
// ErrMalformedCoordinate unless both components parse to finite floats.
func ParseLocationPosition(raw string) (Coordinate, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, eris.Wrapf(ErrMalformedCoordinate, "position %q", raw)
	}

	lat, err := parseFinite(parts[0])
	if err != nil {
		return Coordinate{}, eris.Wrapf(ErrMalformedCoordinate, "latitude in %q", raw)
	}
	lng, err := parseFinite(parts[1])
	if err != nil {
		return Coordinate{}, eris.Wrapf(ErrMalformedCoordinate, "longitude in %q", raw)
	}

	return Coordinate{Latitude: lat, Longitude: lng}, nil
}

// ParseScanPayload parses a QR payload of comma-separated key:value pairs,
// e.g. "location_id:4,project_id:2". location_id and project_id are required
// integers; points is optional; unknown keys are ignored. There is no
// escaping or nesting in this format.
func ParseScanPayload(raw string) (ScanClaim, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ScanClaim{}, eris.Wrap(ErrInvalidPayload, "empty payload")
	}

	var claim ScanClaim
	var haveLocation, haveProject bool

	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return ScanClaim{}, eris.Wrapf(ErrInvalidPayload, "pair %q", pair)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "location_id":
			id, err := strconv.Atoi(value)
			if err != nil {
				return ScanClaim{}, eris.Wrapf(ErrInvalidPayload, "location_id %q", value)
			}
			claim.LocationID = id
			haveLocation = true
		case "project_id":
			id, err := strconv.Atoi(value)
			if err != nil {
				return ScanClaim{}, eris.Wrapf(ErrInvalidPayload, "project_id %q", value)
			}
			claim.ProjectID = id
			haveProject = true
		case "points":
			pts, err := strconv.Atoi(value)
			if err != nil {
				return ScanClaim{}, eris.Wrapf(ErrInvalidPayload, "points %q", value)
			}
			claim.Points = pts
			claim.HasPoints = true
		}
	}

	if !haveLocation {
		return ScanClaim{}, eris.Wrap(ErrInvalidPayload, "missing location_id")
	}
	if !haveProject {
		return ScanClaim{}, eris.Wrap(ErrInvalidPayload, "missing project_id")
	}

	return claim, nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("non-finite value %q", s)
	}
	return f, nil
}
