package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/golang/geo/s2"
)

// DashboardStats counts reports by status and by category name.
func (s *Store) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	stats := domain.DashboardStats{ByCategory: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("scan status count: %w", err)
		}
		stats.Total += n
		switch domain.ReportStatus(status) {
		case domain.StatusPending:
			stats.Pending = n
		case domain.StatusInProgress:
			stats.InProgress = n
		case domain.StatusResolved:
			stats.Resolved = n
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("count by status: %w", err)
	}

	catRows, err := s.db.QueryContext(ctx, `SELECT category_name, COUNT(*) FROM reports GROUP BY category_name`)
	if err != nil {
		return stats, fmt.Errorf("count by category: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var (
			name string
			n    int
		)
		if err := catRows.Scan(&name, &n); err != nil {
			return stats, fmt.Errorf("scan category count: %w", err)
		}
		stats.ByCategory[name] = n
	}
	if err := catRows.Err(); err != nil {
		return stats, fmt.Errorf("count by category: %w", err)
	}
	return stats, nil
}

// AreaCounts buckets every report into the S2 cell containing it at the
// given level, busiest cells first.
func (s *Store) AreaCounts(ctx context.Context, level int) ([]domain.AreaCount, error) {
	if level < 0 || level > s2.MaxLevel {
		return nil, &domain.ValidationError{Field: "level", Message: fmt.Sprintf("level must be between 0 and %d", s2.MaxLevel)}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT latitude, longitude FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("list coordinates: %w", err)
	}
	defer rows.Close()

	counts := make(map[s2.CellID]int)
	for rows.Next() {
		var lat, lon float64
		if err := rows.Scan(&lat, &lon); err != nil {
			return nil, fmt.Errorf("scan coordinates: %w", err)
		}
		cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(level)
		counts[cell]++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list coordinates: %w", err)
	}

	areas := make([]domain.AreaCount, 0, len(counts))
	for cell, n := range counts {
		ll := cell.LatLng()
		areas = append(areas, domain.AreaCount{
			CellID: cell.ToToken(),
			Level:  level,
			Center: domain.Coordinates{Latitude: ll.Lat.Degrees(), Longitude: ll.Lng.Degrees()},
			Count:  n,
		})
	}
	sort.Slice(areas, func(i, j int) bool {
		if areas[i].Count != areas[j].Count {
			return areas[i].Count > areas[j].Count
		}
		return areas[i].CellID < areas[j].CellID
	})
	return areas, nil
}
