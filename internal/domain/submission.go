package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the immutable record produced when a draft is finalized.
type Submission struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId"`
	CategoryID        string            `json:"categoryId"`
	Address           string            `json:"address"`
	PostalCode        string            `json:"postalCode"`
	Coordinates       Coordinates       `json:"coordinates"`
	ManifestationType ManifestationType `json:"manifestationType"`
	Description       string            `json:"description"`
	MediaReferences   []string          `json:"mediaReferences"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// NewSubmission snapshots a draft into a submission with a fresh id and the
// current clock time. MediaReferences start as the staged file names in
// attachment order; the uploader replaces them at submit.
func NewSubmission(userID, categoryID string, d Draft) Submission {
	refs := make([]string, len(d.Files))
	for i, f := range d.Files {
		refs[i] = f.Name
	}
	return Submission{
		ID:                uuid.NewString(),
		UserID:            userID,
		CategoryID:        categoryID,
		Address:           d.Address,
		PostalCode:        d.PostalCode,
		Coordinates:       d.Coordinates,
		ManifestationType: d.ManifestationType,
		Description:       d.Description,
		MediaReferences:   refs,
		CreatedAt:         Now(),
	}
}

// ReportStatus tracks a persisted report through triage.
type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusInProgress ReportStatus = "in_progress"
	StatusResolved   ReportStatus = "resolved"
)

// Report is a persisted submission.
type Report struct {
	Submission
	Status       ReportStatus `json:"status"`
	CategoryName string       `json:"categoryName"`
}

// DashboardStats aggregates reports for the admin dashboard.
type DashboardStats struct {
	Total      int            `json:"total"`
	Pending    int            `json:"pending"`
	InProgress int            `json:"inProgress"`
	Resolved   int            `json:"resolved"`
	ByCategory map[string]int `json:"byCategory"`
}

// AreaCount is the number of reports whose coordinates fall inside one S2
// cell at the requested level.
type AreaCount struct {
	CellID string      `json:"cellId"`
	Level  int         `json:"level"`
	Center Coordinates `json:"center"`
	Count  int         `json:"count"`
}
