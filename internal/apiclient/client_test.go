package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttatard/attendance-frontend/internal/models"
)

func TestGetEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events/42", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":42,"name":"Launch","date":"2026-10-20","time":"18:00","place":"Hall A","qrCode":"EVT-12345","organizer":{"name":"Ops"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", time.Second, nil)
	evt, err := c.GetEvent(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), evt.ID)
	assert.Equal(t, "EVT-12345", evt.QRSecret)
	assert.Equal(t, "Hall A", evt.Location())
	assert.Equal(t, "Ops", evt.Organizer.Name)
}

func TestVerifyQREscapesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/verify-qr/7/EVT-a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	v, err := New(srv.URL, time.Second, nil).VerifyQR(context.Background(), 7, "EVT-a/b")
	require.NoError(t, err)
	assert.True(t, v.OK())
}

func TestRecordAttendanceSendsUnauthenticatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/attendance", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["eventId"])
		assert.Equal(t, "Jane", body["attendeeName"])
		assert.Equal(t, "EVT-12345", body["code"])
		_, _ = w.Write([]byte(`{"status":"success","userName":"Jane Doe"}`))
	}))
	defer srv.Close()

	rec, err := New(srv.URL, time.Second, nil).RecordAttendance(context.Background(), AttendanceRequest{EventID: 42, AttendeeName: "Jane", Code: "EVT-12345"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.UserName)
}

func TestVerifyCodeErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Code already recorded","userName":"Ann","userEmail":"ann@example.com"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, nil).VerifyCode(context.Background(), "tok", 7, "AB12CD")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Code already recorded", apiErr.Message)
	assert.Equal(t, "Ann", apiErr.UserName)
	assert.Equal(t, "ann@example.com", apiErr.UserEmail)
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestParseErrorFallbacks(t *testing.T) {
	assert.Equal(t, "boom", parseError(400, []byte(`{"error":"boom"}`)).Message)
	assert.Equal(t, "plain text", parseError(400, []byte("plain text")).Message)
	assert.Equal(t, "Not Found", parseError(404, nil).Message)
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second, nil).VerifyQR(context.Background(), 1, "EVT-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, 50*time.Millisecond, nil).RecordAttendance(context.Background(), AttendanceRequest{EventID: 1})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestRegistrationCalls(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		assert.Equal(t, "Bearer org", r.Header.Get("Authorization"))
		if r.URL.Path == "/registrations/event/3" {
			_, _ = w.Write([]byte(`[{"id":11,"eventId":3,"userName":"Bo","status":"APPROVED"}]`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	ctx := context.Background()
	require.NoError(t, c.PreRegister(ctx, "org", 3))
	require.NoError(t, c.Unregister(ctx, "org", 3))
	require.NoError(t, c.SetApproval(ctx, "org", 11, ActionDisapprove))
	regs, err := c.EventRegistrations(ctx, "org", 3)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, models.RegistrationApproved, regs[0].Status)
	assert.Error(t, c.SetApproval(ctx, "org", 11, "delete"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"POST /registrations/pre-register/3",
		"DELETE /registrations/unregister/3",
		"POST /registrations/disapprove/11",
		"GET /registrations/event/3",
	}, calls)
}
