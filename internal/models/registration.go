package models

import "time"

// RegistrationStatus is the server side approval state of a registration.
type RegistrationStatus string

const (
	RegistrationPending     RegistrationStatus = "PENDING"
	RegistrationApproved    RegistrationStatus = "APPROVED"
	RegistrationDisapproved RegistrationStatus = "DISAPPROVED"
)

// Registration is an attendee pre-registration for an event.
type Registration struct {
	ID           int64              `json:"id"`
	EventID      int64              `json:"eventId"`
	UserName     string             `json:"userName,omitempty"`
	UserEmail    string             `json:"userEmail,omitempty"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt *time.Time         `json:"registrationDate,omitempty"`
	AttendedAt   *time.Time         `json:"attendedAt,omitempty"`
}
