package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/civic-report-service/internal/domain"
)

// InsertReport persists a report.
func (s *Store) InsertReport(ctx context.Context, r domain.Report) error {
	refs := r.MediaReferences
	if refs == nil {
		refs = []string{}
	}
	media, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("encode media references: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, category_id, category_name, address, postal_code,
			latitude, longitude, manifestation_type, description, media_references, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.CategoryID, r.CategoryName, r.Address, r.PostalCode,
		r.Coordinates.Latitude, r.Coordinates.Longitude, string(r.ManifestationType),
		r.Description, string(media), string(r.Status), r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	return nil
}

// ListReportsByUser returns a user's reports, newest first.
func (s *Store) ListReportsByUser(ctx context.Context, userID string) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, category_name, address, postal_code,
			latitude, longitude, manifestation_type, description, media_references, status, created_at
		FROM reports
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		var (
			r      domain.Report
			mt     string
			status string
			media  string
		)
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.CategoryID, &r.CategoryName, &r.Address, &r.PostalCode,
			&r.Coordinates.Latitude, &r.Coordinates.Longitude, &mt, &r.Description,
			&media, &status, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(media), &r.MediaReferences); err != nil {
			return nil, fmt.Errorf("decode media references for %s: %w", r.ID, err)
		}
		r.ManifestationType = domain.ManifestationType(mt)
		r.Status = domain.ReportStatus(status)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}
