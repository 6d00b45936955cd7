package verify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/apiclient"
	"github.com/ttatard/attendance-frontend/internal/metrics"
	"github.com/ttatard/attendance-frontend/internal/models"
)

// Submitter records attendance. The backend decides whether a record already exists.
type Submitter struct {
	api     Backend
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Collectors
	now     func() time.Time
}

// NewSubmitter creates a submitter whose calls give up after timeout.
func NewSubmitter(api Backend, timeout time.Duration, logger *zap.Logger, m *metrics.Collectors) *Submitter {
	if timeout <= 0 {
		timeout = apiclient.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{api: api, timeout: timeout, logger: logger, metrics: m, now: time.Now}
}

// Submit records a camera check-in for attendeeName.
func (s *Submitter) Submit(ctx context.Context, eventID int64, attendeeName, payload string) models.Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rec, err := s.api.RecordAttendance(ctx, apiclient.AttendanceRequest{
		EventID:      eventID,
		AttendeeName: attendeeName,
		Code:         payload,
	})
	s.metrics.ObserveVerification("camera", time.Since(start))
	if err != nil {
		o := Classify(err)
		if o.Kind == models.OutcomeAlreadyRecorded && o.AttendeeName == "" {
			o.AttendeeName = attendeeName
		}
		o.Code = payload
		s.logger.Info("attendance rejected", zap.Int64("event_id", eventID), zap.String("kind", string(o.Kind)), zap.Error(err))
		return o
	}
	if rec.Status != "" && !strings.EqualFold(rec.Status, "success") {
		o := ClassifyStatus(rec.Code, rec.Message, "Failed to record attendance")
		o.Code = payload
		return o
	}

	name := attendeeName
	switch {
	case rec.UserName != "":
		name = rec.UserName
	case rec.AttendeeName != "":
		name = rec.AttendeeName
	}
	s.logger.Info("attendance recorded", zap.Int64("event_id", eventID), zap.String("attendee", name))
	return models.Success(name, payload, s.now())
}

// SubmitCode verifies an organizer entered attendee code.
func (s *Submitter) SubmitCode(ctx context.Context, token string, eventID int64, code string) models.Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.api.VerifyCode(ctx, token, eventID, code)
	s.metrics.ObserveVerification("manual", time.Since(start))
	if err != nil {
		o := Classify(err)
		o.Code = code
		s.logger.Info("code rejected", zap.Int64("event_id", eventID), zap.String("kind", string(o.Kind)), zap.Error(err))
		return o
	}
	o := models.Success(res.UserName, code, s.now())
	o.UserEmail = res.UserEmail
	o.Message = res.Message
	return o
}

// Pipeline runs validation then submission for camera payloads.
type Pipeline struct {
	Validator *Validator
	Submitter *Submitter
}

// Check validates payload and, if it passes, submits it.
func (p Pipeline) Check(ctx context.Context, eventID int64, attendeeName, payload string) models.Outcome {
	if o, ok := p.Validator.Validate(ctx, eventID, payload); !ok {
		o.Code = payload
		return o
	}
	return p.Submitter.Submit(ctx, eventID, attendeeName, payload)
}
