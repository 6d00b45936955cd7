package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ttatard/attendance-frontend/internal/models"
)

// ApprovalAction is one of the registration approval mutations.
type ApprovalAction string

const (
	ActionApprove    ApprovalAction = "approve"
	ActionUnapprove  ApprovalAction = "unapprove"
	ActionDisapprove ApprovalAction = "disapprove"
)

// PreRegister registers the token holder for an event.
func (c *Client) PreRegister(ctx context.Context, token string, eventID int64) error {
	return c.do(ctx, http.MethodPost, "/registrations/pre-register/"+strconv.FormatInt(eventID, 10), token, struct{}{}, nil)
}

// Unregister removes the token holder's registration.
func (c *Client) Unregister(ctx context.Context, token string, eventID int64) error {
	return c.do(ctx, http.MethodDelete, "/registrations/unregister/"+strconv.FormatInt(eventID, 10), token, nil, nil)
}

// MyRegistrations lists the token holder's registrations.
func (c *Client) MyRegistrations(ctx context.Context, token string) ([]models.Registration, error) {
	var out []models.Registration
	if err := c.do(ctx, http.MethodGet, "/registrations/my-registrations", token, nil, &out); err != nil {
		return nil, fmt.Errorf("my registrations: %w", err)
	}
	return out, nil
}

// EventRegistrations lists registrations of an event (organizer only).
func (c *Client) EventRegistrations(ctx context.Context, token string, eventID int64) ([]models.Registration, error) {
	var out []models.Registration
	if err := c.do(ctx, http.MethodGet, "/registrations/event/"+strconv.FormatInt(eventID, 10), token, nil, &out); err != nil {
		return nil, fmt.Errorf("event %d registrations: %w", eventID, err)
	}
	return out, nil
}

// SetApproval applies an approval mutation to a registration.
func (c *Client) SetApproval(ctx context.Context, token string, registrationID int64, action ApprovalAction) error {
	switch action {
	case ActionApprove, ActionUnapprove, ActionDisapprove:
	default:
		return fmt.Errorf("unknown approval action %q", action)
	}
	path := "/registrations/" + string(action) + "/" + strconv.FormatInt(registrationID, 10)
	return c.do(ctx, http.MethodPost, path, token, struct{}{}, nil)
}
