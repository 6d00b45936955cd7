package kiosk

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/manualcode"
	"github.com/ttatard/attendance-frontend/internal/middleware"
	"github.com/ttatard/attendance-frontend/internal/registrations"
	"github.com/ttatard/attendance-frontend/pkg/response"
)

// CodeRequest is the body for PUT /organizer/events/:id/code.
type CodeRequest struct {
	Code string `json:"code"`
}

// CodeView is an event's code entry as shown to the organizer.
type CodeView struct {
	manualcode.Entry
	CodeLength int  `json:"code_length"`
	Ready      bool `json:"ready"`
}

func (h *Handler) codeView(e manualcode.Entry) CodeView {
	return CodeView{Entry: e, CodeLength: h.codes.CodeLength(), Ready: len(e.Input) == h.codes.CodeLength()}
}

// GetCode handles GET /organizer/events/:id/code.
func (h *Handler) GetCode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	e, found := h.codes.Get(id)
	if !found {
		e = manualcode.Entry{EventID: id}
	}
	response.OK(c, h.codeView(e))
}

// PutCode handles PUT /organizer/events/:id/code.
func (h *Handler) PutCode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.codes.SetInput(id, req.Code)
	if err != nil {
		h.codeError(c, err)
		return
	}
	response.OK(c, h.codeView(e))
}

// CloseCode handles DELETE /organizer/events/:id/code. It dismisses only this event's popup.
func (h *Handler) CloseCode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	h.codes.Close(id)
	response.OK(c, h.codeView(manualcode.Entry{EventID: id}))
}

// SubmitCode handles POST /organizer/events/:id/code/submit.
func (h *Handler) SubmitCode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	o, err := h.codes.Submit(c.Request.Context(), middleware.Token(c), id)
	if err != nil {
		h.codeError(c, err)
		return
	}
	h.logger.Info("organizer code check",
		zap.Int64("event_id", id),
		zap.String("organizer", c.GetString(middleware.ContextUserEmail)),
		zap.String("role", c.GetString(middleware.ContextUserRole)),
		zap.String("kind", string(o.Kind)),
	)
	e, _ := h.codes.Get(id)
	response.OK(c, gin.H{"outcome": o, "message": o.DisplayMessage(), "entry": h.codeView(e)})
}

func (h *Handler) codeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, manualcode.ErrIncompleteCode):
		response.Error(c, http.StatusBadRequest, err.Error(), CodeIncomplete)
	case errors.Is(err, manualcode.ErrSubmitInFlight):
		response.Error(c, http.StatusConflict, err.Error(), CodeInFlight)
	default:
		response.Internal(c, err.Error())
	}
}

// ListRegistrations handles GET /organizer/events/:id/registrations.
func (h *Handler) ListRegistrations(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	regs, err := h.regs.List(c.Request.Context(), middleware.Token(c), id)
	if err != nil {
		h.backendError(c, err, "failed to load registrations")
		return
	}
	response.OK(c, regs)
}

// ToggleRegistration handles POST /organizer/registrations/:id/toggle.
func (h *Handler) ToggleRegistration(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	reg, err := h.regs.Toggle(c.Request.Context(), middleware.Token(c), id)
	h.registrationResult(c, reg, err)
}

// DisapproveRegistration handles POST /organizer/registrations/:id/disapprove.
func (h *Handler) DisapproveRegistration(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	reg, err := h.regs.Disapprove(c.Request.Context(), middleware.Token(c), id)
	h.registrationResult(c, reg, err)
}

// MyRegistrations handles GET /account/registrations.
func (h *Handler) MyRegistrations(c *gin.Context) {
	regs, err := h.regs.Mine(c.Request.Context(), middleware.Token(c))
	if err != nil {
		h.backendError(c, err, "failed to load registrations")
		return
	}
	response.OK(c, regs)
}

// Enroll handles POST /account/events/:id/registration.
func (h *Handler) Enroll(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.regs.Enroll(c.Request.Context(), middleware.Token(c), id); err != nil {
		h.backendError(c, err, "failed to register")
		return
	}
	response.OK(c, gin.H{"event_id": id, "registered": true})
}

// Withdraw handles DELETE /account/events/:id/registration.
func (h *Handler) Withdraw(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.regs.Withdraw(c.Request.Context(), middleware.Token(c), id); err != nil {
		h.backendError(c, err, "failed to unregister")
		return
	}
	response.OK(c, gin.H{"event_id": id, "registered": false})
}

func (h *Handler) registrationResult(c *gin.Context, reg interface{}, err error) {
	if errors.Is(err, registrations.ErrUnknownRegistration) {
		response.NotFound(c, "registration not found; reload the event's registrations")
		return
	}
	if err != nil {
		h.backendError(c, err, "failed to update registration")
		return
	}
	response.OK(c, reg)
}
