package apiclient

import (
	"context"
	"net/http"
	"time"
)

// AttendanceRequest records one attendee against an event.
type AttendanceRequest struct {
	EventID      int64  `json:"eventId"`
	AttendeeName string `json:"attendeeName"`
	Code         string `json:"code"`
}

// AttendanceRecord is the backend response for a recorded attendance.
type AttendanceRecord struct {
	ID           int64      `json:"id,omitempty"`
	Status       string     `json:"status,omitempty"`
	Message      string     `json:"message,omitempty"`
	Code         string     `json:"code,omitempty"`
	UserName     string     `json:"userName,omitempty"`
	AttendeeName string     `json:"attendeeName,omitempty"`
	CheckedInAt  *time.Time `json:"checkInTime,omitempty"`
}

// CodeVerification is the backend response for an organizer entered code.
type CodeVerification struct {
	Message   string `json:"message"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type verifyCodeRequest struct {
	EventID int64  `json:"eventId"`
	Code    string `json:"code"`
}

// RecordAttendance posts a camera check-in. The kiosk path is unauthenticated.
func (c *Client) RecordAttendance(ctx context.Context, req AttendanceRequest) (*AttendanceRecord, error) {
	var out AttendanceRecord
	if err := c.do(ctx, http.MethodPost, "/attendance", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyCode submits a manually entered attendee code on behalf of an organizer.
func (c *Client) VerifyCode(ctx context.Context, token string, eventID int64, code string) (*CodeVerification, error) {
	var out CodeVerification
	if err := c.do(ctx, http.MethodPost, "/registrations/verify-code", token, verifyCodeRequest{EventID: eventID, Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
