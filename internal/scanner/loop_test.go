package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttatard/attendance-frontend/internal/camera"
)

type stubSource struct {
	reads atomic.Int32
	err   error
}

func (s *stubSource) ReadFrame(ctx context.Context) (camera.Frame, error) {
	s.reads.Add(1)
	if s.err != nil {
		return camera.Frame{}, s.err
	}
	return camera.Frame{Data: []byte{1}}, nil
}

type stubDecoder struct {
	payload string
	found   bool
	delay   time.Duration
	gate    chan struct{}
	started chan struct{}
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (d *stubDecoder) Decode(camera.Frame) (string, bool, error) {
	d.calls.Add(1)
	n := d.active.Add(1)
	defer d.active.Add(-1)
	for {
		old := d.maxSeen.Load()
		if n <= old || d.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	if d.started != nil {
		select {
		case d.started <- struct{}{}:
		default:
		}
	}
	if d.gate != nil {
		<-d.gate
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	return d.payload, d.found, nil
}

type recorder struct {
	mu       sync.Mutex
	payloads []string
}

func (r *recorder) record(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func TestLoopDeliversAtMostOnePayloadInFlight(t *testing.T) {
	dec := &stubDecoder{payload: "EVT-12345", found: true}
	rec := &recorder{}
	l := NewLoop(&stubSource{}, dec, 5*time.Millisecond, rec.record, nil, nil, nil)
	l.Start()
	defer l.Stop()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.True(t, l.InFlight())

	l.Resume()
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"EVT-12345", "EVT-12345"}, rec.payloads)
}

func TestLoopSkipsTicksWhileDecodeIsSlow(t *testing.T) {
	dec := &stubDecoder{delay: 30 * time.Millisecond}
	l := NewLoop(&stubSource{}, dec, 2*time.Millisecond, func(string) {}, nil, nil, nil)
	l.Start()
	time.Sleep(100 * time.Millisecond)
	l.Stop()

	assert.Equal(t, int32(1), dec.maxSeen.Load())
	assert.Less(t, dec.calls.Load(), int32(10))
}

func TestLoopStopDiscardsSampleInProgress(t *testing.T) {
	dec := &stubDecoder{payload: "EVT-1", found: true, gate: make(chan struct{}), started: make(chan struct{}, 1)}
	rec := &recorder{}
	l := NewLoop(&stubSource{}, dec, 2*time.Millisecond, rec.record, nil, nil, nil)
	l.Start()

	select {
	case <-dec.started:
	case <-time.After(time.Second):
		t.Fatal("decode never started")
	}

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()
	time.Sleep(10 * time.Millisecond)
	close(dec.gate)
	<-stopped

	assert.Equal(t, 0, rec.count())
	calls := dec.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, dec.calls.Load())
}

func TestLoopIgnoresReadErrors(t *testing.T) {
	src := &stubSource{err: camera.ErrSessionReleased}
	dec := &stubDecoder{payload: "EVT-1", found: true}
	l := NewLoop(src, dec, 2*time.Millisecond, func(string) { t.Error("unexpected payload") }, nil, nil, nil)
	l.Start()
	require.Eventually(t, func() bool { return src.reads.Load() > 2 }, time.Second, time.Millisecond)
	l.Stop()
	assert.Zero(t, dec.calls.Load())
}

func TestLoopReportsCameraErrorOnce(t *testing.T) {
	src := &stubSource{err: &camera.Error{Kind: camera.PermissionDenied, Message: "401 Unauthorized"}}
	dec := &stubDecoder{payload: "EVT-1", found: true}
	var reports atomic.Int32
	got := make(chan *camera.Error, 1)
	l := NewLoop(src, dec, 2*time.Millisecond, func(string) { t.Error("unexpected payload") }, func(e *camera.Error) {
		if reports.Add(1) == 1 {
			got <- e
		}
	}, nil, nil)
	l.Start()
	defer l.Stop()

	select {
	case e := <-got:
		assert.Equal(t, camera.PermissionDenied, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("camera error not reported")
	}
	reads := src.reads.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, reads, src.reads.Load())
	assert.Equal(t, int32(1), reports.Load())
	assert.Zero(t, dec.calls.Load())
}

func TestLoopStartStopIdempotent(t *testing.T) {
	l := NewLoop(&stubSource{}, &stubDecoder{}, 0, func(string) {}, nil, nil, nil)
	l.Stop()
	l.Start()
	l.Start()
	assert.True(t, l.Running())
	l.Stop()
	l.Stop()
	assert.False(t, l.Running())
}
