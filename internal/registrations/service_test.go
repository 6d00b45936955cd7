package registrations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttatard/attendance-frontend/internal/apiclient"
	"github.com/ttatard/attendance-frontend/internal/models"
)

// fakeBackend applies approval mutations to an in-memory registration list.
type fakeBackend struct {
	mu      sync.Mutex
	regs    map[int64]models.Registration
	actions []apiclient.ApprovalAction
	fail    error
	mine    map[int64]bool
}

func newFakeBackend(regs ...models.Registration) *fakeBackend {
	b := &fakeBackend{regs: make(map[int64]models.Registration), mine: make(map[int64]bool)}
	for _, r := range regs {
		b.regs[r.ID] = r
	}
	return b
}

func (b *fakeBackend) EventRegistrations(_ context.Context, _ string, eventID int64) ([]models.Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Registration
	for _, r := range b.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *fakeBackend) SetApproval(_ context.Context, _ string, id int64, action apiclient.ApprovalAction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.actions = append(b.actions, action)
	r := b.regs[id]
	switch action {
	case apiclient.ActionApprove:
		r.Status = models.RegistrationApproved
	case apiclient.ActionUnapprove:
		r.Status = models.RegistrationPending
	case apiclient.ActionDisapprove:
		r.Status = models.RegistrationDisapproved
	}
	b.regs[id] = r
	return nil
}

func (b *fakeBackend) PreRegister(_ context.Context, _ string, eventID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.mine[eventID] = true
	return nil
}

func (b *fakeBackend) Unregister(_ context.Context, _ string, eventID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.mine[eventID] {
		return &apiclient.APIError{Status: 404, Message: "Registration not found"}
	}
	delete(b.mine, eventID)
	return nil
}

func (b *fakeBackend) MyRegistrations(_ context.Context, _ string) ([]models.Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Registration
	for id := range b.mine {
		out = append(out, models.Registration{EventID: id, Status: models.RegistrationPending})
	}
	return out, nil
}

func TestToggleAction(t *testing.T) {
	assert.Equal(t, apiclient.ActionUnapprove, ToggleAction(models.RegistrationApproved))
	assert.Equal(t, apiclient.ActionApprove, ToggleAction(models.RegistrationPending))
	assert.Equal(t, apiclient.ActionApprove, ToggleAction(models.RegistrationDisapproved))
}

func TestToggleReflectsServerValue(t *testing.T) {
	api := newFakeBackend(
		models.Registration{ID: 1, EventID: 7, UserName: "Ann", Status: models.RegistrationPending},
		models.Registration{ID: 2, EventID: 7, UserName: "Bob", Status: models.RegistrationApproved},
	)
	svc := NewService(api, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, "tok", 7)
	require.NoError(t, err)

	got, err := svc.Toggle(ctx, "tok", 1)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, got.Status)

	got, err = svc.Toggle(ctx, "tok", 1)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, got.Status)

	got, err = svc.Disapprove(ctx, "tok", 2)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationDisapproved, got.Status)

	got, err = svc.Toggle(ctx, "tok", 2)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, got.Status)

	assert.Equal(t, []apiclient.ApprovalAction{
		apiclient.ActionApprove, apiclient.ActionUnapprove, apiclient.ActionDisapprove, apiclient.ActionApprove,
	}, api.actions)
}

func TestToggleUnknownRegistration(t *testing.T) {
	svc := NewService(newFakeBackend(), nil)
	_, err := svc.Toggle(context.Background(), "tok", 99)
	assert.ErrorIs(t, err, ErrUnknownRegistration)
}

func TestToggleFailureKeepsLastKnownValue(t *testing.T) {
	api := newFakeBackend(models.Registration{ID: 1, EventID: 7, Status: models.RegistrationPending})
	svc := NewService(api, nil)
	_, err := svc.List(context.Background(), "tok", 7)
	require.NoError(t, err)

	api.fail = &apiclient.APIError{Status: 403, Message: "Forbidden"}
	got, err := svc.Toggle(context.Background(), "tok", 1)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.Status)
	assert.Equal(t, models.RegistrationPending, got.Status)

	cur, ok := svc.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.RegistrationPending, cur.Status)
}

func TestEnrollAndWithdraw(t *testing.T) {
	api := newFakeBackend()
	svc := NewService(api, nil)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "tok", 3))
	mine, err := svc.Mine(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(3), mine[0].EventID)

	require.NoError(t, svc.Withdraw(ctx, "tok", 3))
	err = svc.Withdraw(ctx, "tok", 3)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Status)

	mine, err = svc.Mine(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, mine)
}
