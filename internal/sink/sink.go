// Package sink records finished submissions: the database row is the source
// of truth, the Kafka event is best effort.
package sink

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/observability"
)

// Repository persists reports.
type Repository interface {
	InsertReport(ctx context.Context, r domain.Report) error
}

// Publisher announces a stored report to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, r domain.Report) error
}

// Sink stores submissions and publishes them.
type Sink struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Sink. publisher may be nil when event publication is disabled.
func New(repo Repository, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Sink {
	return &Sink{repo: repo, publisher: publisher, logger: logger, metrics: metrics}
}

// Submit persists s as a pending report and publishes it. A storage failure
// is returned as a *domain.TransportError; a publish failure is only logged.
func (k *Sink) Submit(ctx context.Context, s domain.Submission) (domain.Report, error) {
	report := domain.Report{Submission: s, Status: domain.StatusPending}
	if cat, err := domain.LookupCategory(s.CategoryID); err == nil {
		report.CategoryName = cat.Name
	} else {
		report.CategoryName = s.CategoryID
	}

	if err := k.repo.InsertReport(ctx, report); err != nil {
		k.metrics.Submissions.WithLabelValues("error").Inc()
		return domain.Report{}, &domain.TransportError{Op: "store report", Err: err}
	}
	k.metrics.Submissions.WithLabelValues("success").Inc()
	k.logger.Info("report stored", "report_id", report.ID, "category_id", report.CategoryID, "user_id", report.UserID)

	if k.publisher != nil {
		if err := k.publisher.Publish(ctx, report); err != nil {
			k.metrics.PublishErrors.Inc()
			k.logger.Error("report publish failed", "report_id", report.ID, "error", err)
		}
	}
	return report, nil
}
