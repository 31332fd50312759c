// Package flow drives the Montana ID verification sequence: role selection,
// credential or federated identity capture, profile validation, terms
// acknowledgement, location acquisition and biometric capture, ending in a
// finalized identity record handed to the embedding caller.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidState       = errors.New("operation not allowed in current flow state")
	ErrInvalidCredentials = errors.New("identifier or passphrase does not match")
	ErrTermsNotRead       = errors.New("terms must be scrolled to the end before accepting")
	ErrProfileIncomplete  = errors.New("full name and phone number are required")
	ErrSubmitBlocked      = errors.New("submission gate not satisfied")
	ErrCaptureFailed      = errors.New("failed to capture biometric still")
	ErrCameraDenied       = errors.New("camera permission is required")
	ErrFlowFinished       = errors.New("flow already finished")
)

// Config wires the controller's collaborators. Location, Camera and Tokens
// must be provided; everything else has defaults.
type Config struct {
	Location LocationProvider
	Camera   CameraProvider
	Tokens   TokenVerifier

	Credentials Credentials
	Policy      Policy
	Timings     Timings
	Logger      *slog.Logger

	// OnVerified receives the finalized record after the settle delay.
	// OnCancelled fires when the flow is abandoned. Both are invoked
	// outside the controller lock.
	OnVerified  func(VerifiedIdentity)
	OnCancelled func()
}

type Controller struct {
	mu  sync.Mutex
	cfg Config
	log *slog.Logger

	state State
	draft Draft

	// Generation counters distinguish successive acquisition attempts for
	// the same resource; only results matching the current generation are
	// applied.
	locGen uint64
	camGen uint64

	stream CameraStream

	authErrTimer *time.Timer
	autoLocTimer *time.Timer
	settleTimer  *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config) (*Controller, error) {
	if cfg.Location == nil || cfg.Camera == nil || cfg.Tokens == nil {
		return nil, fmt.Errorf("flow: location, camera and token providers are all required")
	}
	if cfg.Credentials == (Credentials{}) {
		cfg.Credentials = DefaultCredentials()
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:    cfg,
		log:    cfg.Logger,
		state:  StateRoleSelect,
		draft:  newDraft(),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the session draft for display purposes.
func (c *Controller) Snapshot() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	if c.draft.Biometric.ImageData != nil {
		d.Biometric.ImageData = append([]byte(nil), c.draft.Biometric.ImageData...)
	}
	return d
}

// ChooseAdminPath advances from role selection to the credential screen.
func (c *Controller) ChooseAdminPath() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRoleSelect {
		return fmt.Errorf("%w: choose admin path in %s", ErrInvalidState, c.state)
	}
	c.state = StateCredentialAuth
	c.log.Debug("flow: administrator path chosen")
	return nil
}

// SubmitCredentials handles one atomic username/password attempt. Failures
// raise a transient error flag and are not rate-limited.
func (c *Controller) SubmitCredentials(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCredentialAuth {
		return fmt.Errorf("%w: credentials in %s", ErrInvalidState, c.state)
	}
	if !c.cfg.Credentials.Check(username, password) {
		c.draft.AuthError = true
		if c.authErrTimer != nil {
			c.authErrTimer.Stop()
		}
		c.authErrTimer = time.AfterFunc(c.cfg.Timings.AuthErrorDisplay, c.clearAuthError)
		c.log.Debug("flow: credential attempt rejected")
		return ErrInvalidCredentials
	}
	c.draft.AuthError = false
	c.draft.Role = RoleAdmin
	c.state = StateProfileForm
	c.log.Info("flow: administrator authenticated", "role", RoleAdmin)
	return nil
}

func (c *Controller) clearAuthError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.AuthError = false
}

// AcceptIdentityToken consumes a federated identity token. A token arriving
// after the role is already committed is ignored, as is a parse failure;
// neither surfaces an error to the caller.
func (c *Controller) AcceptIdentityToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRoleSelect {
		c.log.Debug("flow: identity token ignored, role already committed", "state", c.state)
		return nil
	}
	claims, err := c.cfg.Tokens.Verify(token)
	if err != nil {
		c.log.Debug("flow: identity token rejected", "error", err)
		return nil
	}
	c.draft.Identity.DisplayName = cleanField(claims.Name)
	c.draft.Identity.Email = cleanField(claims.Email)
	c.draft.Role = RoleGuest
	c.state = StateProfileForm
	c.log.Info("flow: federated identity accepted", "role", RoleGuest)
	return nil
}

// SetProfile updates the identity fields. Email stays optional; it is
// pre-filled when the federated path was used.
func (c *Controller) SetProfile(name, phone, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || c.draft.Submission != SubmissionEditing {
		return fmt.Errorf("%w: profile update in %s", ErrInvalidState, c.state)
	}
	c.draft.Identity.DisplayName = cleanField(name)
	c.draft.Identity.Phone = cleanField(phone)
	c.draft.Identity.Email = cleanField(email)
	return nil
}

func cleanField(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ReportTermsScroll feeds the scroll-position probe. Reaching the bottom
// threshold unlocks the acknowledgement checkbox permanently for this
// session; scrolling back up does not re-lock it.
func (c *Controller) ReportTermsScroll(scrollTop, viewportHeight, contentHeight float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm {
		return
	}
	if scrollTop+viewportHeight >= contentHeight-TermsBottomThreshold {
		c.draft.ScrolledToEnd = true
	}
}

// SetTermsAccepted toggles the acknowledgement checkbox. Accepting is only
// possible after the terms were scrolled to the end; unchecking is always
// allowed. The first acceptance schedules the automatic location request.
func (c *Controller) SetTermsAccepted(accepted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || c.draft.Submission != SubmissionEditing {
		return fmt.Errorf("%w: terms toggle in %s", ErrInvalidState, c.state)
	}
	if accepted && !c.draft.ScrolledToEnd {
		return ErrTermsNotRead
	}
	c.draft.TermsAccepted = accepted
	if accepted && c.draft.Location.Status == LocationIdle && c.autoLocTimer == nil {
		// Small delay so acquisition does not race the UI transition.
		c.autoLocTimer = time.AfterFunc(c.cfg.Timings.LocationAutoDelay, c.autoRequestLocation)
	}
	return nil
}

func (c *Controller) autoRequestLocation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoLocTimer = nil
	if c.state != StateProfileForm || c.draft.Location.Status != LocationIdle || !c.draft.TermsAccepted {
		return
	}
	c.startLocationLocked()
}

// RequestLocation starts (or restarts) the acquisition chain. Starting a new
// attempt supersedes any prior in-flight attempt for the resource.
func (c *Controller) RequestLocation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || c.draft.Submission != SubmissionEditing {
		return fmt.Errorf("%w: location request in %s", ErrInvalidState, c.state)
	}
	c.startLocationLocked()
	return nil
}

func (c *Controller) startLocationLocked() {
	c.locGen++
	gen := c.locGen
	c.draft.Location = LocationState{Status: LocationSearching}
	c.log.Debug("flow: location acquisition started", "generation", gen)
	go c.runLocationChain(gen)
}

func (c *Controller) runLocationChain(gen uint64) {
	t := c.cfg.Timings
	attempts := []LocationOptions{
		{Timeout: t.FastTimeout, MaxAge: t.FastMaxAge},
		{HighAccuracy: true, Timeout: t.PreciseTimeout},
		{Timeout: t.RelaxedTimeout, MaxAge: t.RelaxedMaxAge},
	}
	for i, opts := range attempts {
		pos, err := c.cfg.Location.CurrentPosition(c.ctx, opts)
		if err == nil {
			c.applyLocation(gen, pos)
			return
		}
		c.log.Debug("flow: location attempt failed", "attempt", i+1, "generation", gen, "error", err)
		if !c.locationStillWanted(gen) {
			return
		}
	}
	c.failLocation(gen)
}

// QuickLocation races a coarse cache-tolerant request against the precise
// chain while it is searching; whichever settles first wins.
func (c *Controller) QuickLocation() error {
	c.mu.Lock()
	if c.state != StateProfileForm || c.draft.Location.Status != LocationSearching {
		c.mu.Unlock()
		return fmt.Errorf("%w: quick location while not searching", ErrInvalidState)
	}
	gen := c.locGen
	t := c.cfg.Timings
	c.mu.Unlock()

	go func() {
		pos, err := c.cfg.Location.CurrentPosition(c.ctx, LocationOptions{
			Timeout: t.QuickTimeout,
			MaxAge:  t.QuickMaxAge,
		})
		if err != nil {
			// The precise chain is still running; a failed quick
			// request never degrades the sub-state.
			c.log.Debug("flow: quick location failed", "generation", gen, "error", err)
			return
		}
		c.applyLocation(gen, pos)
	}()
	return nil
}

func (c *Controller) locationStillWanted(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateProfileForm && gen == c.locGen && c.draft.Location.Status == LocationSearching
}

func (c *Controller) applyLocation(gen uint64, pos Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || gen != c.locGen || c.draft.Location.Status != LocationSearching {
		c.log.Debug("flow: stale location result ignored", "generation", gen)
		return
	}
	c.draft.Location = LocationState{
		Latitude:       pos.Latitude,
		Longitude:      pos.Longitude,
		AccuracyMeters: pos.AccuracyMeters,
		SignalScore:    SignalScore(pos.AccuracyMeters),
		Status:         LocationLocked,
	}
	c.log.Info("flow: location locked", "accuracy_m", pos.AccuracyMeters, "score", c.draft.Location.SignalScore)
}

func (c *Controller) failLocation(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || gen != c.locGen || c.draft.Location.Status != LocationSearching {
		return
	}
	c.draft.Location.Status = LocationError
	c.log.Warn("flow: location chain exhausted", "generation", gen)
}

// EnableCamera requests camera access. On grant the stream becomes the
// controller's exclusively-owned resource; on denial the toggle reverts and
// a permission notice is surfaced.
func (c *Controller) EnableCamera() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || c.draft.Submission != SubmissionEditing {
		return fmt.Errorf("%w: camera toggle in %s", ErrInvalidState, c.state)
	}
	if c.stream != nil {
		return nil
	}
	c.camGen++
	gen := c.camGen
	c.draft.CameraNotice = ""
	go c.openCamera(gen)
	return nil
}

func (c *Controller) openCamera(gen uint64) {
	stream, err := c.cfg.Camera.Open(c.ctx, FacingUser)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.camGen || c.state != StateProfileForm {
		// A grant for a superseded attempt still holds the device.
		if err == nil {
			stream.Stop()
		}
		return
	}
	if err != nil {
		c.draft.Biometric = BiometricState{}
		c.draft.CameraNotice = ErrCameraDenied.Error()
		c.log.Warn("flow: camera access denied", "error", err)
		return
	}
	c.stream = stream
	c.draft.Biometric.Captured = true
	c.log.Info("flow: camera stream live")
}

// DisableCamera releases the stream and discards any captured frame.
func (c *Controller) DisableCamera() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm {
		return fmt.Errorf("%w: camera toggle in %s", ErrInvalidState, c.state)
	}
	c.camGen++
	c.stopStreamLocked()
	c.draft.Biometric = BiometricState{}
	return nil
}

// Submit finalizes the attempt. It captures the biometric still if needed,
// releases the camera, and after the settle delay hands the finalized record
// to the completion callback.
func (c *Controller) Submit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProfileForm || c.draft.Submission != SubmissionEditing {
		return fmt.Errorf("%w: submit in %s", ErrInvalidState, c.state)
	}
	if c.draft.Identity.DisplayName == "" || c.draft.Identity.Phone == "" {
		return ErrProfileIncomplete
	}
	if err := c.submitGateLocked(); err != nil {
		return err
	}
	if c.draft.Biometric.ImageData == nil {
		if c.stream == nil {
			c.revertBiometricLocked()
			return fmt.Errorf("%w: stream not available", ErrCaptureFailed)
		}
		frame, err := c.stream.Snapshot()
		if err != nil {
			c.revertBiometricLocked()
			return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
		c.draft.Biometric.ImageData = frame
	}
	c.draft.Submission = SubmissionSubmitting
	c.stopStreamLocked()
	c.settleTimer = time.AfterFunc(c.cfg.Timings.SubmitSettle, c.finishSubmit)
	c.log.Info("flow: submission started", "role", c.draft.Role)
	return nil
}

func (c *Controller) submitGateLocked() error {
	if !c.draft.TermsAccepted {
		return fmt.Errorf("%w: terms not accepted", ErrSubmitBlocked)
	}
	if !c.draft.Biometric.Captured {
		return fmt.Errorf("%w: biometric scanner not active", ErrSubmitBlocked)
	}
	if c.cfg.Policy.RequireLocation && c.draft.Location.Status != LocationLocked {
		return fmt.Errorf("%w: location not locked", ErrSubmitBlocked)
	}
	return nil
}

func (c *Controller) revertBiometricLocked() {
	c.camGen++
	c.stopStreamLocked()
	c.draft.Biometric = BiometricState{}
}

func (c *Controller) finishSubmit() {
	c.mu.Lock()
	if c.state != StateProfileForm || c.draft.Submission != SubmissionSubmitting {
		c.mu.Unlock()
		return
	}
	record := VerifiedIdentity{
		ID:        uuid.NewString(),
		Name:      c.draft.Identity.DisplayName,
		Role:      c.draft.Role,
		Phone:     c.draft.Identity.Phone,
		Email:     c.draft.Identity.Email,
		JobTitle:  jobTitleFor(c.draft.Role),
		Biometric: c.draft.Biometric.ImageData,
	}
	if c.draft.Location.Status == LocationLocked {
		record.Location = &Position{
			Latitude:       c.draft.Location.Latitude,
			Longitude:      c.draft.Location.Longitude,
			AccuracyMeters: c.draft.Location.AccuracyMeters,
		}
	}
	c.draft.Submission = SubmissionCompleted
	c.state = StateCompleted
	c.stopTimersLocked()
	c.cancel()
	cb := c.cfg.OnVerified
	c.log.Info("flow: verification completed", "record_id", record.ID, "role", record.Role)
	c.mu.Unlock()

	if cb != nil {
		cb(record)
	}
}

// Back returns to role selection and discards the entire draft, including
// any held camera stream.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCredentialAuth && c.state != StateProfileForm {
		return fmt.Errorf("%w: back in %s", ErrInvalidState, c.state)
	}
	if c.draft.Submission == SubmissionSubmitting {
		return fmt.Errorf("%w: back while submitting", ErrInvalidState)
	}
	c.resetLocked()
	c.state = StateRoleSelect
	c.log.Debug("flow: returned to role selection, draft discarded")
	return nil
}

// Cancel exits the flow with no result from any non-terminal state. A second
// cancel is a no-op.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.state == StateCancelled {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateCompleted {
		c.mu.Unlock()
		return ErrFlowFinished
	}
	c.resetLocked()
	c.state = StateCancelled
	c.cancel()
	cb := c.cfg.OnCancelled
	c.log.Info("flow: cancelled")
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

func (c *Controller) resetLocked() {
	c.locGen++
	c.camGen++
	c.stopStreamLocked()
	c.stopTimersLocked()
	c.draft = newDraft()
}

func (c *Controller) stopStreamLocked() {
	if c.stream != nil {
		s := c.stream
		c.stream = nil
		s.Stop()
	}
}

func (c *Controller) stopTimersLocked() {
	for _, t := range []*time.Timer{c.authErrTimer, c.autoLocTimer, c.settleTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.authErrTimer, c.autoLocTimer, c.settleTimer = nil, nil, nil
}
