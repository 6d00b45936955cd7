package models

import "time"

// OutcomeKind classifies the result of one verification attempt.
type OutcomeKind string

const (
	OutcomeSuccess         OutcomeKind = "success"
	OutcomeInvalidFormat   OutcomeKind = "invalid_format"
	OutcomeNotForThisEvent OutcomeKind = "not_for_this_event"
	OutcomeAlreadyRecorded OutcomeKind = "already_recorded"
	OutcomeNetworkError    OutcomeKind = "network_error"
	OutcomeServerError     OutcomeKind = "server_error"
)

// OutcomeKinds lists every kind, success first.
var OutcomeKinds = []OutcomeKind{
	OutcomeSuccess,
	OutcomeInvalidFormat,
	OutcomeNotForThisEvent,
	OutcomeAlreadyRecorded,
	OutcomeNetworkError,
	OutcomeServerError,
}

// Outcome is the terminal classification of one verification attempt.
// Which fields are meaningful depends on Kind.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	AttendeeName string      `json:"attendee_name,omitempty"`
	UserEmail    string      `json:"user_email,omitempty"`
	Code         string      `json:"code,omitempty"`
	Message      string      `json:"message,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Success builds a successful outcome.
func Success(attendeeName, code string, at time.Time) Outcome {
	return Outcome{Kind: OutcomeSuccess, AttendeeName: attendeeName, Code: code, Timestamp: at}
}

// InvalidFormat builds an outcome for payloads rejected locally.
func InvalidFormat(message string) Outcome {
	return Outcome{Kind: OutcomeInvalidFormat, Message: message}
}

// NotForThisEvent builds an outcome for payloads that belong to another event.
func NotForThisEvent(message string) Outcome {
	return Outcome{Kind: OutcomeNotForThisEvent, Message: message}
}

// AlreadyRecorded builds an outcome for attendance the server already holds.
func AlreadyRecorded(attendeeName, code string) Outcome {
	return Outcome{Kind: OutcomeAlreadyRecorded, AttendeeName: attendeeName, Code: code}
}

// NetworkError builds an outcome for transport failures and timeouts.
func NetworkError() Outcome {
	return Outcome{Kind: OutcomeNetworkError}
}

// ServerError builds an outcome carrying the server supplied message.
func ServerError(message string) Outcome {
	return Outcome{Kind: OutcomeServerError, Message: message}
}

// IsSuccess reports whether the attempt recorded attendance.
func (o Outcome) IsSuccess() bool { return o.Kind == OutcomeSuccess }

// Recoverable reports whether scanning resumes after the cooldown.
func (o Outcome) Recoverable() bool {
	switch o.Kind {
	case OutcomeInvalidFormat, OutcomeNotForThisEvent, OutcomeAlreadyRecorded, OutcomeNetworkError, OutcomeServerError:
		return true
	}
	return false
}

// DisplayMessage is the operator facing text for the outcome.
func (o Outcome) DisplayMessage() string {
	switch o.Kind {
	case OutcomeSuccess:
		if o.AttendeeName != "" {
			return o.AttendeeName + " has been checked in"
		}
		return "Check-in successful"
	case OutcomeInvalidFormat:
		if o.Message != "" {
			return o.Message
		}
		return "Invalid QR code format. Please scan a valid event QR code."
	case OutcomeNotForThisEvent:
		return "This QR code is not valid for the current event"
	case OutcomeAlreadyRecorded:
		if o.AttendeeName != "" {
			return "Attendance for " + o.AttendeeName + " is already recorded. No action needed."
		}
		return "Attendance is already recorded. No action needed."
	case OutcomeNetworkError:
		return "Network error. Please try again."
	case OutcomeServerError:
		if o.Message != "" {
			return o.Message
		}
		return "Failed to record attendance"
	}
	return ""
}
