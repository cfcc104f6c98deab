package mapview

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var copacabana = domain.Coordinates{Latitude: -22.9711, Longitude: -43.1822}

func TestSurface_NewSurfaceHasNoPin(t *testing.T) {
	v := NewSurface().Snapshot()

	assert.Equal(t, domain.DefaultCoordinates, v.Center)
	assert.Equal(t, domain.DefaultZoom, v.Zoom)
	assert.Empty(t, v.Markers.Features)
}

func TestSurface_PlaceAndMove(t *testing.T) {
	s := NewSurface()
	s.SetView(copacabana, 15)
	s.PlaceMarker(copacabana, true)

	v := s.Snapshot()
	require.Len(t, v.Markers.Features, 1)
	f := v.Markers.Features[0]
	require.True(t, f.Geometry.IsPoint())
	assert.Equal(t, []float64{-43.1822, -22.9711}, f.Geometry.Point)
	draggable, err := f.PropertyBool("draggable")
	require.NoError(t, err)
	assert.True(t, draggable)

	s.MoveMarker(domain.DefaultCoordinates)
	v = s.Snapshot()
	assert.Equal(t, []float64{-43.1729, -22.9068}, v.Markers.Features[0].Geometry.Point)
	assert.Equal(t, copacabana, v.Center, "moving the pin does not move the view")
}

func TestSurface_RemoveMarker(t *testing.T) {
	s := NewSurface()
	s.PlaceMarker(copacabana, false)
	s.RemoveMarker()
	s.MoveMarker(domain.DefaultCoordinates)

	assert.Empty(t, s.Snapshot().Markers.Features)
}

func TestSurface_MarshalJSON(t *testing.T) {
	s := NewSurface()
	s.SetView(copacabana, 15)
	s.PlaceMarker(copacabana, false)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out struct {
		Center  domain.Coordinates `json:"center"`
		Zoom    int                `json:"zoom"`
		Markers json.RawMessage    `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, copacabana, out.Center)
	assert.Equal(t, 15, out.Zoom)

	fc, err := geojson.UnmarshalFeatureCollection(out.Markers)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	draggable, err := fc.Features[0].PropertyBool("draggable")
	require.NoError(t, err)
	assert.False(t, draggable)
}
