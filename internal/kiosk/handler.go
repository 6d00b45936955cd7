// Package kiosk exposes the check-in engine to the kiosk UI over HTTP.
package kiosk

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/apiclient"
	"github.com/ttatard/attendance-frontend/internal/checkin"
	"github.com/ttatard/attendance-frontend/internal/manualcode"
	"github.com/ttatard/attendance-frontend/internal/models"
	"github.com/ttatard/attendance-frontend/internal/registrations"
	"github.com/ttatard/attendance-frontend/pkg/response"
)

// Error codes returned alongside HTTP errors.
const (
	CodeNotAllowed     = "NOT_ALLOWED"
	CodeEmptyName      = "EMPTY_NAME"
	CodeIncomplete     = "INCOMPLETE_CODE"
	CodeInFlight       = "SUBMIT_IN_FLIGHT"
	CodeNotConfigured  = "NOT_CONFIGURED"
	CodeBackendOffline = "BACKEND_UNREACHABLE"
)

// Handler serves the kiosk routes. Machine is nil when no event is configured
// for camera check-in; the organizer routes still work.
type Handler struct {
	machine *checkin.Machine
	codes   *manualcode.Registry
	regs    *registrations.Service
	event   *models.EventIdentity
	logger  *zap.Logger
}

// NewHandler creates a kiosk handler.
func NewHandler(machine *checkin.Machine, codes *manualcode.Registry, regs *registrations.Service, event *models.EventIdentity, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{machine: machine, codes: codes, regs: regs, event: event, logger: logger}
}

// Register mounts the check-in routes on r and the organizer routes behind bearer.
func (h *Handler) Register(r gin.IRouter, bearer gin.HandlerFunc) {
	ci := r.Group("/checkin")
	{
		ci.GET("/event", h.Event)
		ci.GET("/state", h.State)
		ci.POST("/start", h.Start)
		ci.POST("/name", h.SubmitName)
		ci.POST("/name/cancel", h.CancelNameEntry)
		ci.POST("/cancel", h.Cancel)
		ci.POST("/another", h.Another)
	}

	org := r.Group("/organizer", bearer)
	{
		org.GET("/events/:id/code", h.GetCode)
		org.PUT("/events/:id/code", h.PutCode)
		org.DELETE("/events/:id/code", h.CloseCode)
		org.POST("/events/:id/code/submit", h.SubmitCode)
		org.GET("/events/:id/registrations", h.ListRegistrations)
		org.POST("/registrations/:id/toggle", h.ToggleRegistration)
		org.POST("/registrations/:id/disapprove", h.DisapproveRegistration)
	}

	acct := r.Group("/account", bearer)
	{
		acct.GET("/registrations", h.MyRegistrations)
		acct.POST("/events/:id/registration", h.Enroll)
		acct.DELETE("/events/:id/registration", h.Withdraw)
	}
}

func (h *Handler) backendError(c *gin.Context, err error, msg string) {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		response.Error(c, apiErr.Status, apiErr.Message, apiErr.Code)
	case errors.Is(err, apiclient.ErrNetwork):
		response.Error(c, http.StatusServiceUnavailable, "backend unreachable", CodeBackendOffline)
	default:
		h.logger.Error(msg, zap.Error(err))
		response.BadGateway(c, msg)
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
