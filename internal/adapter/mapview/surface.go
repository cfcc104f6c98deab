// Package mapview renders a report's map state (view centre, zoom, pin) as
// GeoJSON for clients that draw the actual tiles.
package mapview

import (
	"encoding/json"
	"sync"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	geojson "github.com/paulmach/go.geojson"
)

// Surface is an in-memory map surface. It implements wizard.MapSurface.
type Surface struct {
	mu     sync.Mutex
	center domain.Coordinates
	zoom   int
	pin    *pin
}

type pin struct {
	position  domain.Coordinates
	draggable bool
}

// NewSurface returns a surface centred on the default coordinates.
func NewSurface() *Surface {
	return &Surface{center: domain.DefaultCoordinates, zoom: domain.DefaultZoom}
}

func (s *Surface) SetView(center domain.Coordinates, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = center
	s.zoom = zoom
}

func (s *Surface) PlaceMarker(position domain.Coordinates, draggable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = &pin{position: position, draggable: draggable}
}

func (s *Surface) MoveMarker(position domain.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pin != nil {
		s.pin.position = position
	}
}

func (s *Surface) RemoveMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = nil
}

// View is the JSON shape of a surface.
type View struct {
	Center  domain.Coordinates         `json:"center"`
	Zoom    int                        `json:"zoom"`
	Markers *geojson.FeatureCollection `json:"markers"`
}

// Snapshot returns the current view. The marker collection is empty once the
// pin has been removed.
func (s *Surface) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	if s.pin != nil {
		// GeoJSON positions are [lon, lat].
		f := geojson.NewPointFeature([]float64{s.pin.position.Longitude, s.pin.position.Latitude})
		f.SetProperty("draggable", s.pin.draggable)
		f.SetProperty("zoom", s.zoom)
		fc.AddFeature(f)
	}
	return View{Center: s.center, Zoom: s.zoom, Markers: fc}
}

func (s *Surface) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
