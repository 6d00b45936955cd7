// Package registrations proxies organizer registration management to the backend.
// The server owns every status; the service only mirrors what it last returned.
package registrations

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ttatard/attendance-frontend/internal/apiclient"
	"github.com/ttatard/attendance-frontend/internal/models"
)

// ErrUnknownRegistration is returned for ids not seen in a prior listing.
var ErrUnknownRegistration = errors.New("registration not found")

// Backend is the part of the REST client used here.
type Backend interface {
	EventRegistrations(ctx context.Context, token string, eventID int64) ([]models.Registration, error)
	SetApproval(ctx context.Context, token string, registrationID int64, action apiclient.ApprovalAction) error
	PreRegister(ctx context.Context, token string, eventID int64) error
	Unregister(ctx context.Context, token string, eventID int64) error
	MyRegistrations(ctx context.Context, token string) ([]models.Registration, error)
}

// Service lists and mutates registrations.
type Service struct {
	api    Backend
	logger *zap.Logger

	mu    sync.RWMutex
	known map[int64]models.Registration
}

// NewService creates a registration service.
func NewService(api Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger, known: make(map[int64]models.Registration)}
}

// List fetches the event's registrations and remembers them.
func (s *Service) List(ctx context.Context, token string, eventID int64) ([]models.Registration, error) {
	regs, err := s.api.EventRegistrations(ctx, token, eventID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for _, r := range regs {
		if r.EventID == 0 {
			r.EventID = eventID
		}
		s.known[r.ID] = r
	}
	s.mu.Unlock()
	return regs, nil
}

// Get returns the last known copy of a registration.
func (s *Service) Get(registrationID int64) (models.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.known[registrationID]
	return r, ok
}

// ToggleAction picks the mutation a toggle applies to a registration in status.
func ToggleAction(status models.RegistrationStatus) apiclient.ApprovalAction {
	if status == models.RegistrationApproved {
		return apiclient.ActionUnapprove
	}
	return apiclient.ActionApprove
}

// Toggle approves a pending or disapproved registration and unapproves an approved one.
// It returns the registration as the server reports it afterwards.
func (s *Service) Toggle(ctx context.Context, token string, registrationID int64) (models.Registration, error) {
	cur, ok := s.Get(registrationID)
	if !ok {
		return models.Registration{}, ErrUnknownRegistration
	}
	return s.apply(ctx, token, cur, ToggleAction(cur.Status))
}

// Disapprove rejects a registration.
func (s *Service) Disapprove(ctx context.Context, token string, registrationID int64) (models.Registration, error) {
	cur, ok := s.Get(registrationID)
	if !ok {
		return models.Registration{}, ErrUnknownRegistration
	}
	return s.apply(ctx, token, cur, apiclient.ActionDisapprove)
}

func (s *Service) apply(ctx context.Context, token string, cur models.Registration, action apiclient.ApprovalAction) (models.Registration, error) {
	if err := s.api.SetApproval(ctx, token, cur.ID, action); err != nil {
		return cur, fmt.Errorf("%s registration %d: %w", action, cur.ID, err)
	}
	s.logger.Info("registration updated", zap.Int64("registration_id", cur.ID), zap.String("action", string(action)))

	regs, err := s.List(ctx, token, cur.EventID)
	if err != nil {
		return cur, fmt.Errorf("refresh event %d registrations: %w", cur.EventID, err)
	}
	for _, r := range regs {
		if r.ID == cur.ID {
			return r, nil
		}
	}
	s.mu.Lock()
	delete(s.known, cur.ID)
	s.mu.Unlock()
	return cur, ErrUnknownRegistration
}

// Enroll pre-registers the token holder for eventID.
func (s *Service) Enroll(ctx context.Context, token string, eventID int64) error {
	if err := s.api.PreRegister(ctx, token, eventID); err != nil {
		return fmt.Errorf("pre-register event %d: %w", eventID, err)
	}
	s.logger.Info("pre-registered", zap.Int64("event_id", eventID))
	return nil
}

// Withdraw removes the token holder's registration for eventID.
func (s *Service) Withdraw(ctx context.Context, token string, eventID int64) error {
	if err := s.api.Unregister(ctx, token, eventID); err != nil {
		return fmt.Errorf("unregister event %d: %w", eventID, err)
	}
	s.logger.Info("unregistered", zap.Int64("event_id", eventID))
	return nil
}

// Mine lists the token holder's own registrations. They are not remembered
// for toggling since approval belongs to the organizer view.
func (s *Service) Mine(ctx context.Context, token string) ([]models.Registration, error) {
	return s.api.MyRegistrations(ctx, token)
}
