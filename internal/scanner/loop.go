// Package scanner samples a camera session and reports decoded payloads.
package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/camera"
	"github.com/ttatard/attendance-frontend/internal/decoder"
	"github.com/ttatard/attendance-frontend/internal/metrics"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// FrameSource is the live stream the loop samples. *camera.Session satisfies it.
type FrameSource interface {
	ReadFrame(ctx context.Context) (camera.Frame, error)
}

// PayloadFunc receives a decoded payload. It must not call Stop on the loop that invoked it.
type PayloadFunc func(payload string)

// ErrorFunc receives the camera failure that ended sampling. Like PayloadFunc it
// runs on the sampling goroutine and must not call Stop.
type ErrorFunc func(err *camera.Error)

// Loop samples frames on a fixed interval while no attempt is in flight.
// A decode slower than the interval causes the next tick to be skipped, never queued.
type Loop struct {
	source    FrameSource
	decoder   decoder.Decoder
	onPayload PayloadFunc
	onError   ErrorFunc
	interval  time.Duration
	logger    *zap.Logger
	metrics   *metrics.Collectors

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending sync.WaitGroup

	inFlight atomic.Bool
	busy     atomic.Bool
	failed   atomic.Bool
}

// NewLoop creates a scan loop. It does not sample until Start. onError may be nil.
// A typed camera error stops sampling for good and is reported once.
func NewLoop(source FrameSource, dec decoder.Decoder, interval time.Duration, onPayload PayloadFunc, onError ErrorFunc, logger *zap.Logger, m *metrics.Collectors) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		source:    source,
		decoder:   dec,
		onPayload: onPayload,
		onError:   onError,
		interval:  interval,
		logger:    logger,
		metrics:   m,
	}
}

// Start begins sampling. Starting a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
	l.logger.Debug("scan loop started", zap.Duration("interval", l.interval))
}

// Stop halts sampling and waits for any in-progress sample to finish.
// No payload is delivered once Stop returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.cancel = nil
	<-l.done
	l.pending.Wait()
	l.logger.Debug("scan loop stopped")
}

// Running reports whether the loop is sampling.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// InFlight reports whether a payload was delivered and not yet resumed.
func (l *Loop) InFlight() bool {
	return l.inFlight.Load()
}

// Resume clears the in-flight mark so sampling continues.
func (l *Loop) Resume() {
	l.inFlight.Store(false)
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.failed.Load() || l.inFlight.Load() || !l.busy.CompareAndSwap(false, true) {
				continue
			}
			l.pending.Add(1)
			go l.sample(ctx)
		}
	}
}

func (l *Loop) sample(ctx context.Context) {
	defer l.pending.Done()
	defer l.busy.Store(false)

	frame, err := l.source.ReadFrame(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		l.readFailed(err)
		return
	}
	l.metrics.Sampled()

	payload, found, err := l.decoder.Decode(frame)
	switch {
	case err != nil:
		l.metrics.Decoded("error")
		l.logger.Debug("frame decode failed", zap.Error(err))
		return
	case !found:
		l.metrics.Decoded("empty")
		return
	}
	l.metrics.Decoded("found")

	if ctx.Err() != nil || !l.inFlight.CompareAndSwap(false, true) {
		return
	}
	l.onPayload(payload)
}

func (l *Loop) readFailed(err error) {
	if errors.Is(err, camera.ErrSessionReleased) {
		return
	}
	var camErr *camera.Error
	if !errors.As(err, &camErr) {
		l.logger.Warn("frame read failed", zap.Error(err))
		return
	}
	if !l.failed.CompareAndSwap(false, true) {
		return
	}
	l.logger.Warn("camera failed while scanning", zap.String("kind", string(camErr.Kind)), zap.Error(err))
	if l.onError != nil {
		l.onError(camErr)
	}
}
