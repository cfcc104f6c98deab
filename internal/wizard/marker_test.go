package wizard

import (
	"fmt"
	"testing"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	ops []string
}

func (s *recordingSurface) SetView(c domain.Coordinates, zoom int) {
	s.ops = append(s.ops, fmt.Sprintf("view %.4f,%.4f z%d", c.Latitude, c.Longitude, zoom))
}

func (s *recordingSurface) PlaceMarker(c domain.Coordinates, draggable bool) {
	s.ops = append(s.ops, fmt.Sprintf("place %.4f,%.4f drag=%t", c.Latitude, c.Longitude, draggable))
}

func (s *recordingSurface) MoveMarker(c domain.Coordinates) {
	s.ops = append(s.ops, fmt.Sprintf("move %.4f,%.4f", c.Latitude, c.Longitude))
}

func (s *recordingSurface) RemoveMarker() {
	s.ops = append(s.ops, "remove")
}

func TestNewMarker_FirstRenderSyncs(t *testing.T) {
	s := &recordingSurface{}
	m := NewMarker(s, domain.DefaultCoordinates, func(domain.Coordinates) {})

	assert.Equal(t, []string{
		"place -22.9068,-43.1729 drag=true",
		"view -22.9068,-43.1729 z15",
		"move -22.9068,-43.1729",
	}, s.ops)
	assert.True(t, m.Draggable())
	assert.Equal(t, domain.DefaultCoordinates, m.Position())
}

func TestMarker_SyncPositionAlwaysRedraws(t *testing.T) {
	s := &recordingSurface{}
	m := NewMarker(s, domain.DefaultCoordinates, nil)
	s.ops = nil

	m.SyncPosition(domain.DefaultCoordinates)
	m.SyncPosition(domain.DefaultCoordinates)

	assert.Len(t, s.ops, 4, "no short-circuit for an unchanged position")
}

func TestMarker_DragReportsPosition(t *testing.T) {
	s := &recordingSurface{}
	var got []domain.Coordinates
	m := NewMarker(s, domain.DefaultCoordinates, func(c domain.Coordinates) { got = append(got, c) })

	pos := domain.Coordinates{Latitude: 91, Longitude: 200}
	require.NoError(t, m.Drag(pos))

	assert.Equal(t, []domain.Coordinates{pos}, got, "no validation on drag")
	assert.Equal(t, pos, m.Position())
}

func TestMarker_ReadOnly(t *testing.T) {
	m := NewMarker(&recordingSurface{}, domain.DefaultCoordinates, nil)

	assert.False(t, m.Draggable())
	assert.ErrorIs(t, m.Drag(domain.Coordinates{}), ErrMarkerReadOnly)
}

func TestMarker_DisposeIsIdempotent(t *testing.T) {
	s := &recordingSurface{}
	called := false
	m := NewMarker(s, domain.DefaultCoordinates, func(domain.Coordinates) { called = true })
	s.ops = nil

	m.Dispose()
	m.Dispose()
	m.SyncPosition(domain.Coordinates{Latitude: 1, Longitude: 1})

	assert.Equal(t, []string{"remove"}, s.ops)
	assert.ErrorIs(t, m.Drag(domain.Coordinates{}), ErrMarkerDisposed)
	assert.False(t, called)
	assert.False(t, m.Draggable())
}

func TestNewMarker_NilSurface(t *testing.T) {
	m := NewMarker(nil, domain.DefaultCoordinates, nil)
	m.SyncPosition(domain.Coordinates{Latitude: 2, Longitude: 3})
	m.Dispose()
}
