package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ttatard/attendance-frontend/internal/models"
)

// QRVerification is the body of the verify-qr endpoint.
type QRVerification struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK reports an explicit success status.
func (v QRVerification) OK() bool { return v.Status == "success" }

// GetEvent fetches the public event identity used by the camera flow.
func (c *Client) GetEvent(ctx context.Context, eventID int64) (*models.EventIdentity, error) {
	var evt models.EventIdentity
	if err := c.do(ctx, http.MethodGet, "/events/"+strconv.FormatInt(eventID, 10), "", nil, &evt); err != nil {
		return nil, fmt.Errorf("get event %d: %w", eventID, err)
	}
	return &evt, nil
}

// VerifyQR asks the backend whether payload belongs to eventID.
func (c *Client) VerifyQR(ctx context.Context, eventID int64, payload string) (*QRVerification, error) {
	path := "/events/verify-qr/" + strconv.FormatInt(eventID, 10) + "/" + url.PathEscape(payload)
	var out QRVerification
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
