package camera

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDeviceReadsFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1280", r.URL.Query().Get("width"))
		assert.Equal(t, "environment", r.URL.Query().Get("facing"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	s, err := NewSnapshotDevice(srv.URL+"/snap", time.Second, nil).Open(context.Background(), DefaultConstraints())
	require.NoError(t, err)
	f, err := s.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, []byte("jpeg-bytes"), f.Data)

	require.NoError(t, s.Close())
	_, err = s.ReadFrame(context.Background())
	assert.ErrorIs(t, err, ErrSessionReleased)
}

func TestSnapshotDeviceErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusForbidden, PermissionDenied},
		{http.StatusUnauthorized, PermissionDenied},
		{http.StatusServiceUnavailable, DeviceUnavailable},
		{http.StatusTeapot, Unknown},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := NewSnapshotDevice(srv.URL, time.Second, nil).Open(context.Background(), DefaultConstraints())
		srv.Close()

		camErr := AsError(err)
		require.NotNil(t, camErr, "status %d", tc.status)
		assert.Equal(t, tc.kind, camErr.Kind, "status %d", tc.status)
	}
}

func TestSnapshotDeviceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewSnapshotDevice(url, time.Second, nil).Open(context.Background(), DefaultConstraints())
	assert.Equal(t, DeviceUnavailable, AsError(err).Kind)
}

func TestFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	s, err := FileDevice{Path: path}.Open(context.Background(), DefaultConstraints())
	require.NoError(t, err)
	f, err := s.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType)

	_, err = FileDevice{Path: path + ".missing"}.Open(context.Background(), DefaultConstraints())
	assert.Equal(t, DeviceUnavailable, AsError(err).Kind)
}
