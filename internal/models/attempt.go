package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanAttempt is one decoded payload travelling through validation and submission.
// A fresh attempt is created for every non-empty decode.
type ScanAttempt struct {
	ID         uuid.UUID `json:"id"`
	RawPayload string    `json:"raw_payload"`
	DecodedAt  time.Time `json:"decoded_at"`
	Validation *Outcome  `json:"validation,omitempty"`
	Submission *Outcome  `json:"submission,omitempty"`
}

// NewScanAttempt starts an attempt for a decoded payload.
func NewScanAttempt(payload string, at time.Time) *ScanAttempt {
	return &ScanAttempt{ID: uuid.New(), RawPayload: payload, DecodedAt: at}
}

// Resolved returns the outcome that ended the attempt, if any.
func (a *ScanAttempt) Resolved() (Outcome, bool) {
	if a.Submission != nil {
		return *a.Submission, true
	}
	if a.Validation != nil && !a.Validation.IsSuccess() {
		return *a.Validation, true
	}
	return Outcome{}, false
}

// AttendeeSession is the person being checked in by the current operator flow.
type AttendeeSession struct {
	FullName string `json:"full_name"`
}
