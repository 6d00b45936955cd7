package kiosk

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ttatard/attendance-frontend/internal/checkin"
	"github.com/ttatard/attendance-frontend/pkg/response"
)

// NameRequest is the body for POST /checkin/name.
type NameRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

// AnotherRequest is the body for POST /checkin/another.
type AnotherRequest struct {
	Yes *bool `json:"yes" binding:"required"`
}

// Event handles GET /checkin/event.
func (h *Handler) Event(c *gin.Context) {
	if h.event == nil {
		response.NotFound(c, "no event configured")
		return
	}
	response.OK(c, gin.H{"event": h.event, "location": h.event.Location()})
}

// State handles GET /checkin/state.
func (h *Handler) State(c *gin.Context) {
	if !h.requireMachine(c) {
		return
	}
	response.OK(c, h.machine.Snapshot())
}

// Start handles POST /checkin/start.
func (h *Handler) Start(c *gin.Context) {
	h.command(c, h.machine.Start)
}

// SubmitName handles POST /checkin/name. The camera is acquired asynchronously.
func (h *Handler) SubmitName(c *gin.Context) {
	if !h.requireMachine(c) {
		return
	}
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "full_name is required", CodeEmptyName)
		return
	}
	if err := h.machine.SubmitName(req.FullName); err != nil {
		h.commandError(c, err)
		return
	}
	response.Accepted(c, h.machine.Snapshot())
}

// CancelNameEntry handles POST /checkin/name/cancel.
func (h *Handler) CancelNameEntry(c *gin.Context) {
	h.command(c, h.machine.CancelNameEntry)
}

// Cancel handles POST /checkin/cancel. The camera is off when the response is sent.
func (h *Handler) Cancel(c *gin.Context) {
	h.command(c, h.machine.Cancel)
}

// Another handles POST /checkin/another.
func (h *Handler) Another(c *gin.Context) {
	if !h.requireMachine(c) {
		return
	}
	var req AnotherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "yes is required")
		return
	}
	if err := h.machine.CheckInAnother(*req.Yes); err != nil {
		h.commandError(c, err)
		return
	}
	response.OK(c, h.machine.Snapshot())
}

func (h *Handler) command(c *gin.Context, fn func() error) {
	if !h.requireMachine(c) {
		return
	}
	if err := fn(); err != nil {
		h.commandError(c, err)
		return
	}
	response.OK(c, h.machine.Snapshot())
}

func (h *Handler) commandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkin.ErrEmptyName):
		response.Error(c, http.StatusBadRequest, err.Error(), CodeEmptyName)
	case errors.Is(err, checkin.ErrNotAllowed), errors.Is(err, checkin.ErrClosed):
		response.Error(c, http.StatusConflict, err.Error(), CodeNotAllowed)
	default:
		response.Internal(c, err.Error())
	}
}

func (h *Handler) requireMachine(c *gin.Context) bool {
	if h.machine == nil {
		response.Error(c, http.StatusServiceUnavailable, "camera check-in is not configured", CodeNotConfigured)
		return false
	}
	return true
}
