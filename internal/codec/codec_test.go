package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocationPosition_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		lat, lng float64
	}{
		{"(-27.4975,153.0137)", -27.4975, 153.0137},
		{"( -27.4975 , 153.0137 )", -27.4975, 153.0137},
		{"(0,0)", 0, 0},
		{"(90,-180)", 90, -180},
	}

	for _, tt := range tests {
		coord, err := ParseLocationPosition(tt.raw)
		require.NoError(t, err, "raw %q", tt.raw)
		assert.InDelta(t, tt.lat, coord.Latitude, 1e-9)
		assert.InDelta(t, tt.lng, coord.Longitude, 1e-9)
	}
}

func TestParseLocationPosition_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"", "(,)", "abc", "(1)", "(1,2,3)", "(NaN,1)", "(Inf,1)", "(1,)", "(x,y)",
	} {
		_, err := ParseLocationPosition(raw)
		require.Error(t, err, "raw %q", raw)
		assert.True(t, errors.Is(err, ErrMalformedCoordinate), "raw %q: %v", raw, err)
	}
}

func TestParseScanPayload_Valid(t *testing.T) {
	t.Parallel()

	claim, err := ParseScanPayload("location_id:4,project_id:2")
	require.NoError(t, err)
	assert.Equal(t, 4, claim.LocationID)
	assert.Equal(t, 2, claim.ProjectID)
	assert.False(t, claim.HasPoints)
}

func TestParseScanPayload_OptionalPointsAndUnknownKeys(t *testing.T) {
	t.Parallel()

	claim, err := ParseScanPayload("points:10,location_id:7,project_id:3,color:blue")
	require.NoError(t, err)
	assert.Equal(t, 7, claim.LocationID)
	assert.Equal(t, 3, claim.ProjectID)
	assert.True(t, claim.HasPoints)
	assert.Equal(t, 10, claim.Points)
}

func TestParseScanPayload_Whitespace(t *testing.T) {
	t.Parallel()

	claim, err := ParseScanPayload(" location_id: 4 , project_id: 2 ")
	require.NoError(t, err)
	assert.Equal(t, 4, claim.LocationID)
	assert.Equal(t, 2, claim.ProjectID)
}

func TestParseScanPayload_Invalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"location_id:4",
		"project_id:2",
		"location_id:abc,project_id:2",
		"location_id:4,project_id:xyz",
		"not a payload",
		"location_id:4,project_id:2,points:many",
	} {
		_, err := ParseScanPayload(raw)
		require.Error(t, err, "raw %q", raw)
		assert.True(t, errors.Is(err, ErrInvalidPayload), "raw %q: %v", raw, err)
	}
}
