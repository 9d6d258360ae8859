package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/domain"
	"github.com/DCloudHub/station-onboarding/internal/infra/tracer"
)

// WizardStep is one of the five registration steps.
type WizardStep int

const (
	StepConsent WizardStep = iota + 1
	StepInfo
	StepPhoto
	StepLocation
	StepReview
)

func (s WizardStep) String() string {
	switch s {
	case StepConsent:
		return "consent"
	case StepInfo:
		return "information"
	case StepPhoto:
		return "photo"
	case StepLocation:
		return "location"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// WizardSession holds one visitor's progress through the registration flow.
type WizardSession struct {
	ID           string
	Step         WizardStep
	ConsentGiven bool
	Info         domain.StationInfo
	HasInfo      bool
	Photo        []byte
	PhotoMeta    *domain.PhotoMeta
	Location     *domain.CaptureResult // nil until a reading is accepted
	CaptureID    string                // current bridge request id, if any
	Failures     int                   // consecutive capture failures on this session
	CreatedAt    time.Time
	UpdatedAt    time.Time

	failedCaptureID string // last capture id already counted as a failure
}

// Wizard drives registration sessions: a linear consent->info->photo->
// location->review machine whose location step is the capture bridge's only
// in-process consumer. Session state is in-memory and keyed by ULID; the
// janitor prunes sessions that stop progressing.
type Wizard struct {
	mu       sync.Mutex
	sessions map[string]*WizardSession
	bridge   *Bridge
	store    domain.SubmissionStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewWizard creates the registration flow service.
func NewWizard(bridge *Bridge, store domain.SubmissionStore, logger *slog.Logger) *Wizard {
	return &Wizard{
		sessions: make(map[string]*WizardSession),
		bridge:   bridge,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// StartSession creates a fresh session at the consent step.
func (w *Wizard) StartSession() *WizardSession {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	s := &WizardSession{
		ID:        generateULID(now),
		Step:      StepConsent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.sessions[s.ID] = s
	w.logger.Debug("wizard session started", "session_id", s.ID)
	return s
}

// Session returns the session with the given id.
func (w *Wizard) Session(id string) (*WizardSession, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionLocked(id)
}

func (w *Wizard) sessionLocked(id string) (*WizardSession, error) {
	s, ok := w.sessions[id]
	if !ok {
		return nil, domain.NewDomainError("Wizard.Session", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// GiveConsent records consent and advances to the information step.
func (w *Wizard) GiveConsent(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.sessionLocked(id)
	if err != nil {
		return err
	}
	s.ConsentGiven = true
	if s.Step == StepConsent {
		s.Step = StepInfo
	}
	s.UpdatedAt = w.now()
	return nil
}

// SubmitInfo validates and stores the owner/station fields, advancing to the
// photo step. Re-submitting from a later step updates the fields in place.
func (w *Wizard) SubmitInfo(id string, info domain.StationInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.sessionLocked(id)
	if err != nil {
		return err
	}
	if !s.ConsentGiven {
		return domain.NewDomainError("Wizard.SubmitInfo", domain.ErrConsentRequired, id)
	}
	s.Info = info
	s.HasInfo = true
	if s.Step == StepInfo {
		s.Step = StepPhoto
	}
	s.UpdatedAt = w.now()
	return nil
}

// AttachPhoto stores the station photo and advances to the location step.
func (w *Wizard) AttachPhoto(id string, photo []byte, meta *domain.PhotoMeta) error {
	if len(photo) == 0 {
		return domain.NewDomainError("Wizard.AttachPhoto", domain.ErrInvalidInput, "photo is empty")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.sessionLocked(id)
	if err != nil {
		return err
	}
	if !s.HasInfo {
		return domain.NewDomainError("Wizard.AttachPhoto", domain.ErrStepOrder, "information step not completed")
	}
	s.Photo = photo
	s.PhotoMeta = meta
	if s.Step == StepPhoto {
		s.Step = StepLocation
	}
	s.UpdatedAt = w.now()
	return nil
}

// RequestLocation begins a capture for the session, using the session id as
// the bridge slot so a retry implicitly abandons the previous attempt.
func (w *Wizard) RequestLocation(ctx context.Context, id string, opts domain.CaptureOptions) (string, error) {
	w.mu.Lock()
	s, err := w.sessionLocked(id)
	if err != nil {
		w.mu.Unlock()
		return "", err
	}
	if s.Step < StepLocation {
		w.mu.Unlock()
		return "", domain.NewDomainError("Wizard.RequestLocation", domain.ErrStepOrder, "photo step not completed")
	}
	w.mu.Unlock()

	reqID, err := w.bridge.BeginCapture(ctx, id, opts)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	s.CaptureID = reqID
	s.UpdatedAt = w.now()
	w.mu.Unlock()
	return reqID, nil
}

// LocationStatus polls the session's capture. It returns (nil, true, nil)
// while pending. On success the reading is copied into the session; on
// failure the session's consecutive-failure count increases once per capture
// attempt, which the UI uses to offer the manual fallback.
func (w *Wizard) LocationStatus(id string) (*domain.CaptureResult, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.sessionLocked(id)
	if err != nil {
		return nil, false, err
	}
	if s.CaptureID == "" {
		return nil, false, domain.NewDomainError("Wizard.LocationStatus", domain.ErrRequestNotFound, "no capture in flight")
	}

	res, err := w.bridge.Poll(s.CaptureID)
	if err != nil {
		return nil, false, err
	}
	if res == nil {
		return nil, true, nil
	}

	if res.OK {
		s.Location = res
		s.Failures = 0
	} else if s.failedCaptureID != s.CaptureID {
		s.failedCaptureID = s.CaptureID
		s.Failures++
	}
	s.UpdatedAt = w.now()
	return res, false, nil
}

// SetManualLocation records user-typed coordinates, the fallback path around
// the capture agent. The same range validation applies.
func (w *Wizard) SetManualLocation(id string, lat, lon float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.sessionLocked(id)
	if err != nil {
		return err
	}
	if s.Step < StepLocation {
		return domain.NewDomainError("Wizard.SetManualLocation", domain.ErrStepOrder, "photo step not completed")
	}

	reading, err := domain.ManualReading(lat, lon, w.now())
	if err != nil {
		return err
	}
	s.Location = reading
	s.Failures = 0
	s.UpdatedAt = w.now()
	return nil
}

// ConfirmLocation advances to the review step once a reading is held.
func (w *Wizard) ConfirmLocation(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.sessionLocked(id)
	if err != nil {
		return err
	}
	if s.Location == nil {
		return domain.NewDomainError("Wizard.ConfirmLocation", domain.ErrStepOrder, "no location captured")
	}
	if s.Step == StepLocation {
		s.Step = StepReview
	}
	s.UpdatedAt = w.now()
	return nil
}

// Submit assembles and persists the registration, then retires the session.
// confirmed is the reviewer's final checkbox; without it nothing is stored.
func (w *Wizard) Submit(ctx context.Context, id string, confirmed bool) (*domain.Submission, error) {
	ctx, span := tracer.StartSpan(ctx, "wizard.submit")
	defer span.End()

	if !confirmed {
		return nil, domain.NewDomainError("Wizard.Submit", domain.ErrInvalidInput, "final confirmation not given")
	}

	w.mu.Lock()
	s, err := w.sessionLocked(id)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if s.Step != StepReview || s.Location == nil || !s.HasInfo {
		w.mu.Unlock()
		return nil, domain.NewDomainError("Wizard.Submit", domain.ErrStepOrder, "review step not reached")
	}

	sub := &domain.Submission{
		ID:             domain.NewSubmissionID(),
		Info:           s.Info,
		Latitude:       s.Location.Latitude,
		Longitude:      s.Location.Longitude,
		AccuracyMeters: s.Location.AccuracyMeters,
		LocationSource: s.Location.Source,
		SubmittedAt:    w.now(),
		Status:         domain.StatusPending,
		Photo:          s.Photo,
		PhotoMeta:      s.PhotoMeta,
	}
	w.mu.Unlock()

	if err := w.store.Create(ctx, sub); err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("Wizard.Submit", err)
	}

	w.mu.Lock()
	delete(w.sessions, id)
	w.mu.Unlock()

	span.SetAttributes(tracer.StringAttr("submission.id", sub.ID))
	tracer.SetOK(span)
	w.logger.Info("registration submitted",
		"submission_id", sub.ID,
		"zone", sub.Info.Zone,
		"location_source", sub.LocationSource,
	)
	return sub, nil
}

// Sweep drops sessions idle longer than maxIdle and returns how many.
func (w *Wizard) Sweep(maxIdle time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-maxIdle)
	removed := 0
	for id, s := range w.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(w.sessions, id)
			removed++
		}
	}
	return removed
}
