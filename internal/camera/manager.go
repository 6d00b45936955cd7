package camera

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is an acquired stream. Only the Manager opens or closes it.
type Session struct {
	ID       uuid.UUID
	OpenedAt time.Time
	stream   Stream
	released bool
	mgr      *Manager
}

// ReadFrame samples one frame from the session's stream.
func (s *Session) ReadFrame(ctx context.Context) (Frame, error) {
	s.mgr.mu.Lock()
	released := s.released
	s.mgr.mu.Unlock()
	if released {
		return Frame{}, ErrSessionReleased
	}
	return s.stream.ReadFrame(ctx)
}

// Manager hands out at most one live session at a time.
type Manager struct {
	device    Device
	logger    *zap.Logger
	mu        sync.Mutex
	active    *Session
	opening   chan struct{}
	indicator func(on bool)
}

// NewManager creates a session manager for device.
func NewManager(device Device, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{device: device, logger: logger}
}

// SetIndicator registers a callback fired when the camera turns on or off.
func (m *Manager) SetIndicator(fn func(on bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indicator = fn
}

// Acquire opens the device. It returns either a ready session or a *Error, never both.
// An open still in progress for an abandoned acquisition is waited out rather than reported as busy.
func (m *Manager) Acquire(ctx context.Context, c Constraints) (*Session, error) {
	m.mu.Lock()
	for m.opening != nil {
		pending := m.opening
		m.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return nil, &Error{Kind: Unknown, Message: "acquisition cancelled", Err: ctx.Err()}
		}
		m.mu.Lock()
	}
	if m.active != nil {
		m.mu.Unlock()
		return nil, &Error{Kind: DeviceUnavailable, Message: ErrCameraBusy.Error(), Err: ErrCameraBusy}
	}
	done := make(chan struct{})
	m.opening = done
	m.mu.Unlock()

	stream, err := m.device.Open(ctx, c)

	m.mu.Lock()
	m.opening = nil
	close(done)
	if err != nil {
		m.mu.Unlock()
		camErr := AsError(err)
		m.logger.Warn("camera acquisition failed", zap.String("kind", string(camErr.Kind)), zap.Error(err))
		return nil, camErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		m.mu.Unlock()
		_ = stream.Close()
		return nil, &Error{Kind: Unknown, Message: "acquisition cancelled", Err: ctxErr}
	}
	s := &Session{ID: uuid.New(), OpenedAt: time.Now(), stream: stream, mgr: m}
	m.active = s
	indicator := m.indicator
	m.mu.Unlock()

	if indicator != nil {
		indicator(true)
	}
	m.logger.Info("camera acquired", zap.String("session_id", s.ID.String()))
	return s, nil
}

// Release stops the session's stream. Releasing nil or an already released session is a no-op.
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}
	m.mu.Lock()
	if s.released {
		m.mu.Unlock()
		return
	}
	s.released = true
	if m.active == s {
		m.active = nil
	}
	indicator := m.indicator
	m.mu.Unlock()

	if err := s.stream.Close(); err != nil {
		m.logger.Warn("camera close failed", zap.String("session_id", s.ID.String()), zap.Error(err))
	}
	if indicator != nil {
		indicator(false)
	}
	m.logger.Info("camera released", zap.String("session_id", s.ID.String()))
}

// Active reports whether a session currently owns the device.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}
