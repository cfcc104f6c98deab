// Package wizard drives a single incident report from location capture
// through details and preview to submission.
//
// Every draft is owned by one Controller. All operations on a controller,
// including the completion of asynchronous postal code lookups, run under
// the controller's mutex, so a draft is never observed half-updated.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/media"
	"github.com/couchcryptid/civic-report-service/internal/observability"
)

// ErrClosed is returned by operations on a controller that has been
// submitted, discarded or expired.
var ErrClosed = fmt.Errorf("draft closed: %w", domain.ErrNotFound)

const maxNotifications = 20

// Submitter records a finished submission.
type Submitter interface {
	Submit(ctx context.Context, s domain.Submission) (domain.Report, error)
}

// Uploader moves staged files to permanent storage and returns their
// references in order.
type Uploader interface {
	Upload(ctx context.Context, submissionID string, files []media.File) ([]string, error)
	Remove(submissionID string) error
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Resolver   domain.AddressResolver
	Sink       Submitter
	Uploader   Uploader
	NewSurface func() MapSurface
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Upload is a file received from the client.
type Upload struct {
	Name string
	Data []byte
}

// Controller owns one report draft.
type Controller struct {
	mu sync.Mutex

	id       string
	userID   string
	category domain.Category
	draft    domain.Draft
	notes    []domain.Notification

	resolver domain.AddressResolver
	media    *media.Store
	surface  MapSurface
	marker   *Marker
	sink     Submitter
	uploader Uploader
	logger   *slog.Logger
	metrics  *observability.Metrics

	// lifetime bounds in-flight lookups; cancelled by Close.
	lifetime context.Context
	cancel   context.CancelFunc
	lookups  sync.WaitGroup

	submitting bool
	closed     bool
}

// New creates a controller for a fresh draft in category.
func New(id, userID string, category domain.Category, deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	var surface MapSurface = nopSurface{}
	if deps.NewSurface != nil {
		surface = deps.NewSurface()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:       id,
		userID:   userID,
		category: category,
		draft:    domain.NewDraft(),
		resolver: deps.Resolver,
		media:    media.NewStore(),
		surface:  surface,
		sink:     deps.Sink,
		uploader: deps.Uploader,
		logger:   logger.With("draft_id", id),
		metrics:  metrics,
		lifetime: ctx,
		cancel:   cancel,
	}
	c.resetMarker()
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) UserID() string { return c.userID }

func (c *Controller) Category() domain.Category { return c.category }

// UpdateField sets one draft field from user input.
func (c *Controller) UpdateField(name, value string) error {
	if name == domain.FieldPostalCode {
		_, err := c.SetPostalCode(value)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	switch name {
	case domain.FieldAddress:
		c.draft.Address = value
	case domain.FieldDescription:
		c.draft.Description = value
	case domain.FieldManifestationType:
		m, err := domain.ParseManifestationType(value)
		if err != nil {
			return err
		}
		c.draft.ManifestationType = m
	default:
		return &domain.ValidationError{Field: name, Message: "campo desconhecido"}
	}
	return nil
}

// SetPostalCode stores the normalized postal code and, once it has all
// eight digits, starts a lookup in the background. It returns the stored
// value.
func (c *Controller) SetPostalCode(value string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}

	code := domain.NormalizePostalCode(value)
	c.draft.PostalCode = code
	if domain.IsCompletePostalCode(code) && c.resolver != nil {
		c.lookups.Add(1)
		go c.lookup(code)
	}
	return code, nil
}

// lookup resolves code and applies the outcome. Results are applied in
// arrival order; a slow lookup for an older code can overwrite a newer one.
func (c *Controller) lookup(code string) {
	defer c.lookups.Done()

	addr, err := c.resolver.Resolve(c.lifetime, code)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch {
	case err == nil:
		c.draft.Address = addr.Format()
		c.notify(domain.LevelSuccess, domain.KindAddressFound, domain.MsgAddressFound)
	case errors.Is(err, domain.ErrLookupNotFound):
		c.notify(domain.LevelWarning, domain.KindLookupNotFound, domain.MsgLookupNotFound)
	default:
		c.logger.Warn("postal code lookup failed", "cep", code, "error", err)
		c.notify(domain.LevelError, domain.KindLookupFailed, domain.MsgLookupFailed)
	}
}

// SetCoordinates moves the draft's pin from outside the map (for example a
// device location). Any pair is accepted.
func (c *Controller) SetCoordinates(pos domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.applyCoordinates(pos)
	return nil
}

// DragMarker applies a drag release on the map. Only the location step has
// a draggable marker.
func (c *Controller) DragMarker(pos domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.marker.Drag(pos); err != nil {
		if errors.Is(err, ErrMarkerReadOnly) {
			c.notify(domain.LevelWarning, domain.KindMarkerReadOnly, domain.MsgMarkerReadOnly)
		}
		return err
	}
	return nil
}

func (c *Controller) applyCoordinates(pos domain.Coordinates) {
	c.draft.Coordinates = pos
	c.marker.SyncPosition(pos)
}

// Advance moves to the next step when the current step is complete.
func (c *Controller) Advance() (domain.Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}

	var (
		next domain.Step
		err  error
	)
	switch c.draft.Step {
	case domain.StepLocation:
		next, err = domain.StepDetails, c.draft.CheckLocation()
	case domain.StepDetails:
		next, err = domain.StepPreview, c.draft.CheckDetails()
	default:
		err = &domain.ValidationError{Field: "step", Message: "Revise e envie a ocorrência"}
	}
	if err != nil {
		c.metrics.StepTransitions.WithLabelValues("advance", "rejected").Inc()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.notify(domain.LevelError, domain.KindValidation, verr.Message)
		}
		return c.draft.Step, err
	}

	c.draft.Step = next
	c.metrics.StepTransitions.WithLabelValues("advance", "ok").Inc()
	c.resetMarker()
	return next, nil
}

// Retreat moves back one step without touching any field. From the first
// step it reports ok=false; the caller decides whether to leave the wizard.
func (c *Controller) Retreat() (step domain.Step, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", false, ErrClosed
	}

	switch c.draft.Step {
	case domain.StepDetails:
		c.draft.Step = domain.StepLocation
	case domain.StepPreview:
		c.draft.Step = domain.StepDetails
	default:
		c.metrics.StepTransitions.WithLabelValues("retreat", "rejected").Inc()
		return c.draft.Step, false, nil
	}
	c.metrics.StepTransitions.WithLabelValues("retreat", "ok").Inc()
	c.resetMarker()
	return c.draft.Step, true, nil
}

// resetMarker replaces the pin so its draggability matches the current step.
func (c *Controller) resetMarker() {
	if c.marker != nil {
		c.marker.Dispose()
	}
	var onMove func(domain.Coordinates)
	if c.draft.Step == domain.StepLocation {
		onMove = c.applyCoordinates
	}
	c.marker = NewMarker(c.surface, c.draft.Coordinates, onMove)
}

// AttachFiles stages uploads and appends them to the draft in order. No
// deduplication or type validation is applied.
func (c *Controller) AttachFiles(uploads ...Upload) ([]domain.FileHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	handles := make([]domain.FileHandle, 0, len(uploads))
	for _, u := range uploads {
		h, err := c.media.Stage(u.Name, u.Data)
		if err != nil {
			return handles, fmt.Errorf("stage %s: %w", u.Name, err)
		}
		c.draft.Files = append(c.draft.Files, h)
		handles = append(handles, h)
		c.metrics.MediaStaged.Inc()
	}
	if len(handles) > 0 {
		c.notify(domain.LevelSuccess, domain.KindFilesAttached, fmt.Sprintf("%d arquivo(s) anexado(s)", len(handles)))
	}
	return handles, nil
}

// RemoveFile drops the file at index. An out-of-range index is ignored.
func (c *Controller) RemoveFile(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(c.draft.Files) {
		return nil
	}
	h := c.draft.Files[index]
	c.draft.Files = slices.Delete(c.draft.Files, index, index+1)
	c.media.Discard(h.ID)
	return nil
}

// Preview returns the preview of a staged file.
func (c *Controller) Preview(fileID string) (media.Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return media.Preview{}, ErrClosed
	}
	return c.media.Preview(fileID)
}

// Finalize returns the submission the draft would produce. It is only
// valid on the preview step and leaves the draft untouched.
func (c *Controller) Finalize() (domain.Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.Submission{}, ErrClosed
	}
	return c.finalizeLocked()
}

func (c *Controller) finalizeLocked() (domain.Submission, error) {
	if c.draft.Step != domain.StepPreview {
		return domain.Submission{}, &domain.ValidationError{Field: "step", Message: "A ocorrência só pode ser enviada na pré-visualização"}
	}
	return domain.NewSubmission(c.userID, c.category.ID, c.draft.Clone()), nil
}

// Submit finalizes the draft, uploads its files and hands the submission to
// the sink. The lock is released while the sink runs. On failure the draft
// is kept so the user can retry; on success the controller is closed.
func (c *Controller) Submit(ctx context.Context) (domain.Report, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.Report{}, ErrClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return domain.Report{}, &domain.ValidationError{Field: "step", Message: "Envio já em andamento"}
	}
	sub, err := c.finalizeLocked()
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.notify(domain.LevelError, domain.KindValidation, verr.Message)
		}
		c.mu.Unlock()
		return domain.Report{}, err
	}
	files, err := c.media.Files(c.draft.Files)
	if err != nil {
		c.mu.Unlock()
		return domain.Report{}, err
	}
	c.submitting = true
	c.mu.Unlock()

	report, err := c.deliver(ctx, sub, files)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.logger.Error("submission failed", "error", err)
		c.notify(domain.LevelError, domain.KindSubmitFailed, domain.MsgSubmitFailed)
		c.mu.Unlock()
		return domain.Report{}, err
	}
	c.mu.Unlock()

	c.logger.Info("report submitted", "report_id", report.ID, "files", len(files))
	c.Close()
	return report, nil
}

func (c *Controller) deliver(ctx context.Context, sub domain.Submission, files []media.File) (domain.Report, error) {
	uploaded := false
	if c.uploader != nil && len(files) > 0 {
		refs, err := c.uploader.Upload(ctx, sub.ID, files)
		if err != nil {
			return domain.Report{}, &domain.TransportError{Op: "upload media", Err: err}
		}
		sub.MediaReferences = refs
		uploaded = true
	}

	var (
		report domain.Report
		err    error
	)
	if c.sink == nil {
		err = &domain.TransportError{Op: "submit", Err: errors.New("no sink configured")}
	} else if report, err = c.sink.Submit(ctx, sub); err != nil {
		var terr *domain.TransportError
		if !errors.As(err, &terr) {
			err = &domain.TransportError{Op: "submit", Err: err}
		}
	}
	if err != nil {
		// A retry mints a new submission id, so these files would be orphaned.
		if uploaded {
			if rerr := c.uploader.Remove(sub.ID); rerr != nil {
				c.logger.Warn("remove uploaded media failed", "submission_id", sub.ID, "error", rerr)
			}
		}
		return domain.Report{}, err
	}
	return report, nil
}

// Snapshot returns a copy of the draft.
func (c *Controller) Snapshot() domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Notifications drains the pending notifications, oldest first.
func (c *Controller) Notifications() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drainLocked()
}

func (c *Controller) drainLocked() []domain.Notification {
	notes := c.notes
	c.notes = nil
	if notes == nil {
		notes = []domain.Notification{}
	}
	return notes
}

// View is the client representation of a draft.
type View struct {
	ID            string                `json:"id"`
	Category      domain.Category       `json:"category"`
	Draft         domain.Draft          `json:"draft"`
	StepTitle     string                `json:"stepTitle"`
	StepIndex     int                   `json:"stepIndex"`
	Manifestation string                `json:"manifestationLabel,omitempty"`
	Draggable     bool                  `json:"markerDraggable"`
	Map           MapSurface            `json:"map"`
	Notifications []domain.Notification `json:"notifications"`
}

// View renders the draft and drains its notifications.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		ID:            c.id,
		Category:      c.category,
		Draft:         c.draft.Clone(),
		StepTitle:     c.draft.Step.Title(),
		StepIndex:     c.draft.Step.Index(),
		Manifestation: c.draft.ManifestationType.Label(),
		Draggable:     c.marker.Draggable(),
		Map:           c.surface,
		Notifications: c.drainLocked(),
	}
}

func (c *Controller) notify(level domain.NotificationLevel, kind, message string) {
	if len(c.notes) >= maxNotifications {
		c.notes = c.notes[1:]
	}
	c.notes = append(c.notes, domain.Notification{Level: level, Kind: kind, Message: message})
}

// Wait blocks until in-flight lookups have finished.
func (c *Controller) Wait() {
	c.lookups.Wait()
}

// Close releases the marker and staged media and waits for in-flight
// lookups. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.marker.Dispose()
	c.media.Close()
	c.mu.Unlock()

	c.lookups.Wait()
}

// Closed reports whether the controller has been closed.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
