package calls

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tourbook/internal/logger"
	"tourbook/internal/models"
)

type MockCallDB struct {
	mock.Mock
}

func (m *MockCallDB) CreateCall(ctx context.Context, c *models.ScheduledCall) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCallDB) GetCall(ctx context.Context, id string) (*models.ScheduledCall, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledCall), args.Error(1)
}

func (m *MockCallDB) ListByUser(ctx context.Context, userID string) ([]*models.ScheduledCall, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.ScheduledCall), args.Error(1)
}

func (m *MockCallDB) UpdateCall(ctx context.Context, c *models.ScheduledCall) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCallDB) DeleteCall(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(db CallDBLayer) *CallService {
	s := NewCallService(db, "https://meet.example.com", logger.Discard())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestScheduleCall(t *testing.T) {
	mockDB := new(MockCallDB)
	mockDB.On("CreateCall", mock.Anything, mock.AnythingOfType("*models.ScheduledCall")).Return(nil)
	s := newService(mockDB)

	call, err := s.ScheduleCall(context.Background(), "user-1", models.ScheduleCallRequest{
		ScheduledAt: fixedNow.Add(24 * time.Hour),
		Timezone:    "Europe/Madrid",
		Topic:       "  Japan itinerary ",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(call.MeetingLink, "https://meet.example.com/tourbook-"))
	assert.Equal(t, models.CallPending, call.Status)
	assert.Equal(t, 30, call.DurationMinutes)
	assert.Equal(t, "Japan itinerary", call.Topic)
	mockDB.AssertExpectations(t)
}

func TestScheduleCallInPast(t *testing.T) {
	s := newService(new(MockCallDB))

	_, err := s.ScheduleCall(context.Background(), "user-1", models.ScheduleCallRequest{
		ScheduledAt: fixedNow.Add(-time.Minute),
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, "scheduledAt must be a future date", err.Error())
}

func TestScheduleCallRejectsBadInput(t *testing.T) {
	s := newService(new(MockCallDB))

	_, err := s.ScheduleCall(context.Background(), "user-1", models.ScheduleCallRequest{
		ScheduledAt: fixedNow.Add(time.Hour), Timezone: "Mars/Olympus",
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.ScheduleCall(context.Background(), "user-1", models.ScheduleCallRequest{
		ScheduledAt: fixedNow.Add(time.Hour), DurationMinutes: 5,
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.ScheduleCall(context.Background(), "user-1", models.ScheduleCallRequest{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestUpdateCall(t *testing.T) {
	mockDB := new(MockCallDB)
	mockDB.On("GetCall", mock.Anything, "c1").Return(&models.ScheduledCall{
		ID: "c1", UserID: "owner", Status: models.CallPending, ScheduledAt: fixedNow.Add(time.Hour),
	}, nil)
	mockDB.On("UpdateCall", mock.Anything, mock.Anything).Return(nil)
	s := newService(mockDB)

	confirmed := models.CallConfirmed
	next := fixedNow.Add(72 * time.Hour)
	call, err := s.UpdateCall(context.Background(), "owner", "c1", models.UpdateCallRequest{Status: &confirmed, ScheduledAt: &next})
	require.NoError(t, err)
	assert.Equal(t, models.CallConfirmed, call.Status)
	assert.Equal(t, next, call.ScheduledAt)

	past := fixedNow.Add(-time.Hour)
	_, err = s.UpdateCall(context.Background(), "owner", "c1", models.UpdateCallRequest{ScheduledAt: &past})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.UpdateCall(context.Background(), "other", "c1", models.UpdateCallRequest{Status: &confirmed})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUpdateCanceledCall(t *testing.T) {
	mockDB := new(MockCallDB)
	mockDB.On("GetCall", mock.Anything, "c1").Return(&models.ScheduledCall{ID: "c1", UserID: "owner", Status: models.CallCanceled}, nil)
	s := newService(mockDB)

	topic := "new"
	_, err := s.UpdateCall(context.Background(), "owner", "c1", models.UpdateCallRequest{Topic: &topic})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestDeleteCall(t *testing.T) {
	mockDB := new(MockCallDB)
	mockDB.On("GetCall", mock.Anything, "c1").Return(&models.ScheduledCall{ID: "c1", UserID: "owner"}, nil)
	mockDB.On("DeleteCall", mock.Anything, "c1", "owner").Return(nil)
	s := newService(mockDB)

	assert.ErrorIs(t, s.DeleteCall(context.Background(), "other", "c1"), models.ErrForbidden)
	require.NoError(t, s.DeleteCall(context.Background(), "owner", "c1"))
	mockDB.AssertNumberOfCalls(t, "DeleteCall", 1)
}
