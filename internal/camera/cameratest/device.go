// Package cameratest provides in-memory camera devices for tests.
package cameratest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ttatard/attendance-frontend/internal/camera"
)

// Device is a scriptable camera.Device.
type Device struct {
	// OpenErr, when set, is returned by every Open.
	OpenErr error
	// Frame is returned by every ReadFrame.
	Frame camera.Frame
	// OpenDelay blocks Open until it elapses or ctx is done.
	OpenDelay time.Duration
	// Block, when set, holds Open until it is closed, ignoring ctx.
	Block chan struct{}
	// ReadErr, when set, is returned by every ReadFrame of streams opened afterwards.
	ReadErr error

	mu      sync.Mutex
	streams []*Stream
	opens   atomic.Int32
}

// Open implements camera.Device.
func (d *Device) Open(ctx context.Context, _ camera.Constraints) (camera.Stream, error) {
	d.opens.Add(1)
	if d.Block != nil {
		<-d.Block
	}
	if d.OpenDelay > 0 {
		select {
		case <-time.After(d.OpenDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	s := &Stream{frame: d.Frame, err: d.ReadErr}
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

// Opens counts Open calls, successful or not.
func (d *Device) Opens() int { return int(d.opens.Load()) }

// Streams returns every stream opened so far.
func (d *Device) Streams() []*Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Stream, len(d.streams))
	copy(out, d.streams)
	return out
}

// OpenStreams counts streams not yet closed.
func (d *Device) OpenStreams() int {
	n := 0
	for _, s := range d.Streams() {
		if s.Closes() == 0 {
			n++
		}
	}
	return n
}

// Stream is an in-memory camera.Stream.
type Stream struct {
	frame  camera.Frame
	err    error
	reads  atomic.Int32
	closes atomic.Int32
}

// ReadFrame implements camera.Stream.
func (s *Stream) ReadFrame(ctx context.Context) (camera.Frame, error) {
	if s.closes.Load() > 0 {
		return camera.Frame{}, camera.ErrSessionReleased
	}
	s.reads.Add(1)
	if s.err != nil {
		return camera.Frame{}, s.err
	}
	f := s.frame
	f.CapturedAt = time.Now()
	return f, nil
}

// Close implements camera.Stream.
func (s *Stream) Close() error {
	s.closes.Add(1)
	return nil
}

// Reads counts ReadFrame calls.
func (s *Stream) Reads() int { return int(s.reads.Load()) }

// Closes counts Close calls.
func (s *Stream) Closes() int { return int(s.closes.Load()) }
