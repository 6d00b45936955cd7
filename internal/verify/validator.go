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

// DefaultPrefix is the literal every event QR payload starts with.
const DefaultPrefix = "EVT-"

// Backend is the subset of the REST client used for verification.
type Backend interface {
	VerifyQR(ctx context.Context, eventID int64, payload string) (*apiclient.QRVerification, error)
	RecordAttendance(ctx context.Context, req apiclient.AttendanceRequest) (*apiclient.AttendanceRecord, error)
	VerifyCode(ctx context.Context, token string, eventID int64, code string) (*apiclient.CodeVerification, error)
}

// Validator rejects malformed payloads locally before asking the backend
// whether the payload belongs to the event.
type Validator struct {
	api     Backend
	prefix  string
	logger  *zap.Logger
	metrics *metrics.Collectors
}

// NewValidator creates a validator. An empty prefix means DefaultPrefix.
func NewValidator(api Backend, prefix string, logger *zap.Logger, m *metrics.Collectors) *Validator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{api: api, prefix: prefix, logger: logger, metrics: m}
}

// CheckFormat applies the local rules only. It never touches the network.
func (v *Validator) CheckFormat(payload string) (models.Outcome, bool) {
	if strings.TrimSpace(payload) == "" {
		return models.InvalidFormat("Empty QR code. Please scan a valid event QR code."), false
	}
	if !strings.HasPrefix(payload, v.prefix) {
		return models.InvalidFormat("Invalid QR code format. Please scan a valid event QR code."), false
	}
	return models.Outcome{}, true
}

// Validate reports whether payload may be submitted for eventID. When it may
// not, the returned outcome says why.
func (v *Validator) Validate(ctx context.Context, eventID int64, payload string) (models.Outcome, bool) {
	if o, ok := v.CheckFormat(payload); !ok {
		v.logger.Debug("payload rejected locally", zap.Int64("event_id", eventID))
		return o, false
	}

	start := time.Now()
	res, err := v.api.VerifyQR(ctx, eventID, payload)
	v.metrics.ObserveVerification("verify_qr", time.Since(start))
	if err != nil {
		o := Classify(err)
		v.logger.Info("qr verification failed", zap.Int64("event_id", eventID), zap.String("kind", string(o.Kind)), zap.Error(err))
		return o, false
	}
	if !res.OK() {
		return ClassifyStatus(res.Code, res.Message, "QR code verification failed"), false
	}
	return models.Outcome{}, true
}
