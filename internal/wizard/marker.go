package wizard

import (
	"errors"

	"github.com/couchcryptid/civic-report-service/internal/domain"
)

var (
	// ErrMarkerReadOnly is returned when dragging a marker that has no
	// position callback.
	ErrMarkerReadOnly = errors.New("marker is read-only")

	// ErrMarkerDisposed is returned when dragging a marker after Dispose.
	ErrMarkerDisposed = errors.New("marker disposed")
)

// MapSurface is where a Marker draws its pin.
type MapSurface interface {
	SetView(center domain.Coordinates, zoom int)
	PlaceMarker(position domain.Coordinates, draggable bool)
	MoveMarker(position domain.Coordinates)
	RemoveMarker()
}

type nopSurface struct{}

func (nopSurface) SetView(domain.Coordinates, int) {}
func (nopSurface) PlaceMarker(domain.Coordinates, bool) {}
func (nopSurface) MoveMarker(domain.Coordinates) {}
func (nopSurface) RemoveMarker() {}
func (nopSurface) MarshalJSON() ([]byte, error) { return []byte("{}"), nil }

// Marker owns one pin on a MapSurface. It is not safe for concurrent use;
// the Controller serializes access.
type Marker struct {
	surface  MapSurface
	onMove   func(domain.Coordinates)
	position domain.Coordinates
	disposed bool
}

// NewMarker places a pin at position and centres the view on it. The pin is
// draggable only when onMove is non-nil.
func NewMarker(surface MapSurface, position domain.Coordinates, onMove func(domain.Coordinates)) *Marker {
	if surface == nil {
		surface = nopSurface{}
	}
	m := &Marker{surface: surface, onMove: onMove, position: position}
	surface.PlaceMarker(position, onMove != nil)
	m.SyncPosition(position)
	return m
}

// SyncPosition re-centres the view and moves the pin. It always redraws,
// even when position is unchanged.
func (m *Marker) SyncPosition(position domain.Coordinates) {
	if m.disposed {
		return
	}
	m.position = position
	m.surface.SetView(position, domain.DefaultZoom)
	m.surface.MoveMarker(position)
}

// Drag handles a drag release at position and reports it to the owner.
func (m *Marker) Drag(position domain.Coordinates) error {
	if m.disposed {
		return ErrMarkerDisposed
	}
	if m.onMove == nil {
		return ErrMarkerReadOnly
	}
	m.position = position
	m.surface.MoveMarker(position)
	m.onMove(position)
	return nil
}

func (m *Marker) Position() domain.Coordinates { return m.position }

func (m *Marker) Draggable() bool { return m.onMove != nil && !m.disposed }

// Dispose removes the pin. Later calls are no-ops.
func (m *Marker) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.surface.RemoveMarker()
}
