package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const maxFrameBytes = 8 << 20

// SnapshotDevice is a network camera that serves one still image per GET.
type SnapshotDevice struct {
	URL    string
	HTTP   *http.Client
	logger *zap.Logger
}

// NewSnapshotDevice creates a snapshot camera for rawURL.
func NewSnapshotDevice(rawURL string, timeout time.Duration, logger *zap.Logger) *SnapshotDevice {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotDevice{URL: rawURL, HTTP: &http.Client{Timeout: timeout}, logger: logger}
}

// Open probes the camera once so permission and availability errors surface at acquisition.
func (d *SnapshotDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, &Error{Kind: DeviceUnavailable, Message: "invalid camera url", Err: err}
	}
	q := u.Query()
	if c.Width > 0 {
		q.Set("width", strconv.Itoa(c.Width))
	}
	if c.Height > 0 {
		q.Set("height", strconv.Itoa(c.Height))
	}
	if c.FacingMode != "" {
		q.Set("facing", c.FacingMode)
	}
	u.RawQuery = q.Encode()

	s := &snapshotStream{dev: d, url: u.String()}
	if _, err := s.fetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type snapshotStream struct {
	dev    *SnapshotDevice
	url    string
	closed atomic.Bool
}

func (s *snapshotStream) ReadFrame(ctx context.Context) (Frame, error) {
	if s.closed.Load() {
		return Frame{}, ErrSessionReleased
	}
	return s.fetch(ctx)
}

func (s *snapshotStream) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *snapshotStream) fetch(ctx context.Context) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Frame{}, &Error{Kind: DeviceUnavailable, Message: "invalid camera url", Err: err}
	}
	resp, err := s.dev.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Frame{}, &Error{Kind: Unknown, Message: "capture cancelled", Err: err}
		}
		return Frame{}, &Error{Kind: DeviceUnavailable, Message: "camera unreachable", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Frame{}, &Error{Kind: PermissionDenied, Message: resp.Status}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable:
		return Frame{}, &Error{Kind: DeviceUnavailable, Message: resp.Status}
	case resp.StatusCode >= 300:
		return Frame{}, &Error{Kind: Unknown, Message: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	return Frame{Data: data, ContentType: resp.Header.Get("Content-Type"), CapturedAt: time.Now()}, nil
}
