// Package verify validates scanned payloads and submits check-ins, mapping every
// backend response onto a models.Outcome.
package verify

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ttatard/attendance-frontend/internal/apiclient"
	"github.com/ttatard/attendance-frontend/internal/models"
)

// Structured error codes the backend may attach to an error body.
const (
	CodeAlreadyRecorded = "ALREADY_RECORDED"
	CodeQRMismatch      = "QR_MISMATCH"
)

var (
	alreadyRecordedPhrases = []string{"already recorded", "already checked in"}
	mismatchPhrases        = []string{"does not match", "not valid for this event", "different event"}
)

// Classify maps a failed backend call to an outcome. It is the only place that
// interprets error bodies; it never yields InvalidFormat.
func Classify(err error) models.Outcome {
	if err == nil {
		return models.ServerError("")
	}
	if isNetwork(err) {
		return models.NetworkError()
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return classifyMessage(apiErr.Code, apiErr.Message, apiErr.UserName, apiErr.UserEmail)
	}
	return models.ServerError("Unexpected response from server")
}

// ClassifyStatus maps a 2xx body whose status is not "success".
func ClassifyStatus(code, message, fallback string) models.Outcome {
	if message == "" && code == "" {
		return models.ServerError(fallback)
	}
	o := classifyMessage(code, message, "", "")
	if o.Kind == models.OutcomeServerError && o.Message == "" {
		o.Message = fallback
	}
	return o
}

func classifyMessage(code, message, userName, userEmail string) models.Outcome {
	switch code {
	case CodeAlreadyRecorded:
		return alreadyRecorded(userName, userEmail, message)
	case CodeQRMismatch:
		return models.NotForThisEvent(message)
	}
	lower := strings.ToLower(message)
	if containsAny(lower, alreadyRecordedPhrases) {
		return alreadyRecorded(userName, userEmail, message)
	}
	if containsAny(lower, mismatchPhrases) {
		return models.NotForThisEvent(message)
	}
	return models.ServerError(message)
}

func alreadyRecorded(userName, userEmail, message string) models.Outcome {
	o := models.AlreadyRecorded(userName, "")
	o.UserEmail = userEmail
	o.Message = message
	return o
}

func isNetwork(err error) bool {
	if errors.Is(err, apiclient.ErrNetwork) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
