package camera

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// FileDevice replays a still image from disk on every read. Used for demos and bench setups.
type FileDevice struct {
	Path string
}

// Open checks the image is readable.
func (d FileDevice) Open(ctx context.Context, _ Constraints) (Stream, error) {
	if _, err := os.Stat(d.Path); err != nil {
		return nil, fileError(err)
	}
	return &fileStream{path: d.Path}, nil
}

type fileStream struct {
	path   string
	closed atomic.Bool
}

func (s *fileStream) ReadFrame(ctx context.Context) (Frame, error) {
	if s.closed.Load() {
		return Frame{}, ErrSessionReleased
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Frame{}, fileError(err)
	}
	return Frame{Data: data, ContentType: contentTypeFor(s.path), CapturedAt: time.Now()}, nil
}

func (s *fileStream) Close() error {
	s.closed.Store(true)
	return nil
}

func fileError(err error) *Error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &Error{Kind: PermissionDenied, Message: err.Error(), Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Kind: DeviceUnavailable, Message: err.Error(), Err: err}
	}
	return &Error{Kind: Unknown, Message: err.Error(), Err: err}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
