package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type registryEntry struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry holds the live drafts, keyed by draft id. Drafts idle for longer
// than the TTL are closed by the sweeper.
type Registry struct {
	mu     sync.RWMutex
	drafts map[string]*registryEntry

	deps    Deps
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRegistry creates an empty registry. A nil clock uses the real clock.
func NewRegistry(deps Deps, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics
	}
	return &Registry{
		drafts:  make(map[string]*registryEntry),
		deps:    deps,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Open starts a wizard for userID in the given category.
func (r *Registry) Open(userID, categoryID string) (*Controller, error) {
	category, err := domain.LookupCategory(categoryID)
	if err != nil {
		return nil, err
	}

	c := New(uuid.NewString(), userID, category, r.deps)

	r.mu.Lock()
	r.drafts[c.ID()] = &registryEntry{controller: c, lastSeen: r.clock.Now()}
	r.mu.Unlock()

	r.metrics.DraftsActive.Inc()
	r.logger.Debug("draft opened", "draft_id", c.ID(), "category_id", categoryID, "user_id", userID)
	return c, nil
}

// Get returns the draft owned by userID and marks it as recently used.
// Drafts owned by someone else are reported as not found.
func (r *Registry) Get(userID, draftID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.drafts[draftID]
	if !ok || e.controller.UserID() != userID {
		return nil, fmt.Errorf("draft %q: %w", draftID, domain.ErrNotFound)
	}
	e.lastSeen = r.clock.Now()
	return e.controller, nil
}

// Discard closes and forgets a draft.
func (r *Registry) Discard(userID, draftID string) error {
	c, err := r.Get(userID, draftID)
	if err != nil {
		return err
	}
	if r.remove(draftID) {
		c.Close()
	}
	return nil
}

// Submit submits a draft and forgets it on success. A failed submission
// leaves the draft in place for a retry.
func (r *Registry) Submit(ctx context.Context, userID, draftID string) (domain.Report, error) {
	c, err := r.Get(userID, draftID)
	if err != nil {
		return domain.Report{}, err
	}
	report, err := c.Submit(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	r.remove(draftID)
	return report, nil
}

func (r *Registry) remove(draftID string) bool {
	r.mu.Lock()
	_, ok := r.drafts[draftID]
	delete(r.drafts, draftID)
	r.mu.Unlock()

	if ok {
		r.metrics.DraftsActive.Dec()
	}
	return ok
}

// Sweep closes every draft idle for longer than the TTL and returns how
// many were expired.
func (r *Registry) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	var expired []*Controller
	for id, e := range r.drafts {
		if now.Sub(e.lastSeen) > r.ttl {
			expired = append(expired, e.controller)
			delete(r.drafts, id)
		}
	}
	r.mu.Unlock()

	for _, c := range expired {
		c.Close()
		r.metrics.DraftsActive.Dec()
		r.metrics.DraftsExpired.Inc()
		r.logger.Info("draft expired", "draft_id", c.ID(), "user_id", c.UserID())
	}
	return len(expired)
}

// Run sweeps expired drafts until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.sweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			r.Sweep()
		}
	}
}

func (r *Registry) sweepInterval() time.Duration {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Len reports the number of live drafts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}

// Close closes every live draft.
func (r *Registry) Close() {
	r.mu.Lock()
	drafts := r.drafts
	r.drafts = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range drafts {
		e.controller.Close()
		r.metrics.DraftsActive.Dec()
	}
}
