package checkin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/camera"
	"github.com/ttatard/attendance-frontend/internal/decoder"
	"github.com/ttatard/attendance-frontend/internal/journal"
	"github.com/ttatard/attendance-frontend/internal/metrics"
	"github.com/ttatard/attendance-frontend/internal/models"
	"github.com/ttatard/attendance-frontend/internal/scanner"
)

const (
	DefaultCooldown       = 3 * time.Second
	DefaultSuccessDisplay = 3 * time.Second
	journalTimeout        = 2 * time.Second
)

var (
	// ErrNotAllowed is returned for operator commands the current state ignores.
	ErrNotAllowed = errors.New("not allowed in current state")
	// ErrEmptyName is returned when the submitted attendee name is blank.
	ErrEmptyName = errors.New("attendee name is required")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("check-in closed")
)

// Camera is the session manager the machine acquires the device through.
type Camera interface {
	Acquire(ctx context.Context, c camera.Constraints) (*camera.Session, error)
	Release(s *camera.Session)
}

// Checker validates and submits a decoded payload.
type Checker interface {
	Check(ctx context.Context, eventID int64, attendeeName, payload string) models.Outcome
}

// Recorder persists resolved outcomes.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Options configures a Machine.
type Options struct {
	EventID        int64
	Constraints    camera.Constraints
	ScanInterval   time.Duration
	Cooldown       time.Duration
	SuccessDisplay time.Duration
}

// Deps are the machine's collaborators. Journal and Metrics may be nil.
type Deps struct {
	Camera  Camera
	Decoder decoder.Decoder
	Checker Checker
	Journal Recorder
	Metrics *metrics.Collectors
	Logger  *zap.Logger
}

// Snapshot is the externally visible state of the flow.
type Snapshot struct {
	Version         uint64          `json:"version"`
	EventID         int64           `json:"event_id"`
	State           State           `json:"state"`
	AttendeeName    string          `json:"attendee_name,omitempty"`
	Outcome         *models.Outcome `json:"outcome,omitempty"`
	Message         string          `json:"message,omitempty"`
	CameraErrorKind string          `json:"camera_error_kind,omitempty"`
	CameraOn        bool            `json:"camera_on"`
	SessionID       string          `json:"session_id,omitempty"`
	AttemptID       string          `json:"attempt_id,omitempty"`
	Exit            bool            `json:"exit,omitempty"`
}

// Machine runs one kiosk's check-in flow. Every asynchronous continuation
// (acquisition, decode, submission, timers) carries the generation it was
// started in and is discarded once the generation has moved on.
type Machine struct {
	opts    Options
	deps    Deps
	logger  *zap.Logger
	metrics *metrics.Collectors

	mu        sync.Mutex
	state     State
	gen       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	version   uint64
	attendee  *models.AttendeeSession
	session   *camera.Session
	loop      *scanner.Loop
	attempt   *models.ScanAttempt
	outcome   *models.Outcome
	camErr    *camera.Error
	exit      bool
	timer     *time.Timer
	closed    bool
	listeners []func(Snapshot)
}

// NewMachine creates a machine in Idle.
func NewMachine(opts Options, deps Deps) *Machine {
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = scanner.DefaultInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.SuccessDisplay <= 0 {
		opts.SuccessDisplay = DefaultSuccessDisplay
	}
	if opts.Constraints == (camera.Constraints{}) {
		opts.Constraints = camera.DefaultConstraints()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	m := &Machine{
		opts:    opts,
		deps:    deps,
		logger:  deps.Logger.With(zap.Int64("event_id", opts.EventID)),
		metrics: deps.Metrics,
		state:   Idle,
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.gen = 1
	return m
}

// Subscribe registers fn to receive a snapshot after every transition.
// Listeners run outside the machine lock, so snapshots from racing transitions
// may arrive out of order; Snapshot.Version orders them.
func (m *Machine) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Start begins a new check-in.
func (m *Machine) Start() error {
	return m.command(Event{Kind: EventStart})
}

// SubmitName records the attendee's name and acquires the camera.
func (m *Machine) SubmitName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return m.command(Event{Kind: EventSubmitName, Name: name})
}

// CancelNameEntry abandons name entry.
func (m *Machine) CancelNameEntry() error {
	return m.command(Event{Kind: EventCancelNameEntry})
}

// CheckInAnother answers the prompt shown after a success.
func (m *Machine) CheckInAnother(yes bool) error {
	return m.command(Event{Kind: EventCheckInAnother, Yes: yes})
}

// Cancel returns to Idle from any state. The camera is released before Cancel returns.
func (m *Machine) Cancel() error {
	return m.command(Event{Kind: EventCancel})
}

// Close cancels the flow and ignores every later event.
func (m *Machine) Close() {
	_ = m.Cancel()
	m.mu.Lock()
	m.closed = true
	m.cancel()
	m.mu.Unlock()
}

func (m *Machine) command(ev Event) error {
	return m.handle(0, ev)
}

// handle applies ev. gen 0 means "current generation" and is used for operator commands.
func (m *Machine) handle(gen uint64, ev Event) error {
	m.mu.Lock()
	if m.closed || (gen != 0 && gen != m.gen) {
		closed := m.closed
		m.mu.Unlock()
		m.discard(ev)
		if closed {
			return ErrClosed
		}
		return nil
	}
	from := m.state
	to, ok := Next(from, ev)
	if !ok {
		m.mu.Unlock()
		m.discard(ev)
		return ErrNotAllowed
	}

	var cleanup []func()
	m.enter(from, to, ev, &cleanup)
	m.state = to
	m.version++
	snap := m.snapshotLocked()
	listeners := append([]func(Snapshot){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range cleanup {
		fn()
	}
	m.metrics.Transition(string(from), string(to))
	m.logger.Info("check-in transition", zap.String("from", string(from)), zap.String("to", string(to)), zap.String("event", string(ev.Kind)))
	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

// discard drops an event that arrived too late, releasing anything it carried.
func (m *Machine) discard(ev Event) {
	m.logger.Debug("event discarded", zap.String("event", string(ev.Kind)))
	if ev.Kind == EventCameraReady && ev.Session != nil {
		m.deps.Camera.Release(ev.Session)
	}
}

// enter performs the entry actions for to. Blocking teardown goes into cleanup,
// which runs after the lock is released.
func (m *Machine) enter(from, to State, ev Event, cleanup *[]func()) {
	switch to {
	case Idle:
		m.nextGeneration()
		m.teardown(cleanup)
		m.attendee = nil
		m.attempt = nil
		m.camErr = nil
		m.exit = false
		switch ev.Kind {
		case EventCameraError:
			m.camErr = ev.Err
			m.outcome = nil
			m.metrics.CameraError(string(ev.Err.Kind))
			m.logger.Warn("camera unavailable", zap.String("kind", string(ev.Err.Kind)), zap.Error(ev.Err))
		case EventCheckInAnother:
			m.exit = true
		default:
			m.outcome = nil
		}

	case NameEntry:
		m.nextGeneration()
		m.teardown(cleanup)
		m.attendee = nil
		m.attempt = nil
		m.outcome = nil
		m.camErr = nil
		m.exit = false

	case AwaitingCamera:
		m.attendee = &models.AttendeeSession{FullName: strings.TrimSpace(ev.Name)}
		go m.acquire(m.ctx, m.gen)

	case Scanning:
		m.attempt = nil
		m.outcome = nil
		if from == AwaitingCamera {
			m.session = ev.Session
			gen := m.gen
			m.loop = scanner.NewLoop(ev.Session, m.deps.Decoder, m.opts.ScanInterval, func(payload string) {
				_ = m.handle(gen, Event{Kind: EventDecodeResult, Payload: payload})
			}, func(err *camera.Error) {
				// leaving Scanning stops this loop, which waits for the calling sample
				go func() { _ = m.handle(gen, Event{Kind: EventCameraError, Err: err}) }()
			}, m.logger, m.metrics)
			m.loop.Start()
			return
		}
		m.loop.Resume()

	case Submitting:
		m.attempt = models.NewScanAttempt(ev.Payload, time.Now())
		go m.submit(m.ctx, m.gen, m.attempt.RawPayload, m.attendee.FullName)

	case Success, RecoverableError:
		o := ev.Outcome
		m.outcome = &o
		if m.attempt != nil {
			m.attempt.Submission = &o
		}
		m.metrics.Outcome(string(o.Kind), string(journal.PathCamera))
		*cleanup = append(*cleanup, func() { m.journal(o) })
		if to == Success {
			m.teardown(cleanup)
			m.schedule(m.opts.SuccessDisplay, EventSuccessDisplayElapsed)
			m.logger.Info("attendee checked in", zap.String("attendee", o.AttendeeName))
			return
		}
		m.schedule(m.opts.Cooldown, EventCooldownElapsed)
		m.logger.Info("check-in attempt failed", zap.String("kind", string(o.Kind)), zap.String("message", o.Message))

	case CheckInAnother:
	}
}

// nextGeneration invalidates every continuation started so far.
func (m *Machine) nextGeneration() {
	m.cancel()
	m.gen++
	m.ctx, m.cancel = context.WithCancel(context.Background())
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// teardown stops sampling and releases the camera.
func (m *Machine) teardown(cleanup *[]func()) {
	loop, session := m.loop, m.session
	m.loop, m.session = nil, nil
	if loop == nil && session == nil {
		return
	}
	*cleanup = append(*cleanup, func() {
		if loop != nil {
			loop.Stop()
		}
		m.deps.Camera.Release(session)
	})
}

func (m *Machine) schedule(d time.Duration, kind EventKind) {
	gen := m.gen
	m.timer = time.AfterFunc(d, func() {
		_ = m.handle(gen, Event{Kind: kind})
	})
}

func (m *Machine) acquire(ctx context.Context, gen uint64) {
	s, err := m.deps.Camera.Acquire(ctx, m.opts.Constraints)
	if err != nil {
		_ = m.handle(gen, Event{Kind: EventCameraError, Err: camera.AsError(err)})
		return
	}
	_ = m.handle(gen, Event{Kind: EventCameraReady, Session: s})
}

func (m *Machine) submit(ctx context.Context, gen uint64, payload, attendeeName string) {
	o := m.deps.Checker.Check(ctx, m.opts.EventID, attendeeName, payload)
	_ = m.handle(gen, Event{Kind: EventSubmitResult, Outcome: o})
}

func (m *Machine) journal(o models.Outcome) {
	if m.deps.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := m.deps.Journal.Record(ctx, journal.NewEntry(m.opts.EventID, journal.PathCamera, o)); err != nil {
		m.logger.Warn("journal record failed", zap.Error(err))
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:  m.version,
		EventID:  m.opts.EventID,
		State:    m.state,
		CameraOn: m.session != nil,
		Exit:     m.exit,
	}
	if m.attendee != nil {
		s.AttendeeName = m.attendee.FullName
	}
	if m.session != nil {
		s.SessionID = m.session.ID.String()
	}
	if m.attempt != nil {
		s.AttemptID = m.attempt.ID.String()
	}
	if m.outcome != nil {
		o := *m.outcome
		s.Outcome = &o
		s.Message = o.DisplayMessage()
		if o.IsSuccess() && o.AttendeeName != "" {
			s.AttendeeName = o.AttendeeName
		}
	}
	if m.camErr != nil {
		s.CameraErrorKind = string(m.camErr.Kind)
		s.Message = cameraMessage(m.camErr)
	}
	return s
}

func cameraMessage(e *camera.Error) string {
	switch e.Kind {
	case camera.PermissionDenied:
		return "Camera permission denied. Allow camera access and try again."
	case camera.DeviceUnavailable:
		if errors.Is(e, camera.ErrCameraBusy) {
			return "Camera is still in use. Try again in a moment."
		}
		return "No camera available. Connect a camera and try again."
	}
	if e.Message != "" {
		return "Camera error: " + e.Message
	}
	return "Camera error"
}
