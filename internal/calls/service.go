package calls

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/utils"
)

const defaultDurationMinutes = 30

var errPastSchedule = models.InvalidInput("scheduledAt must be a future date")

type CallDBLayer interface {
	CreateCall(ctx context.Context, call *models.ScheduledCall) error
	GetCall(ctx context.Context, id string) (*models.ScheduledCall, error)
	ListByUser(ctx context.Context, userID string) ([]*models.ScheduledCall, error)
	UpdateCall(ctx context.Context, call *models.ScheduledCall) error
	DeleteCall(ctx context.Context, id, userID string) error
}

type CallService struct {
	DB             CallDBLayer
	MeetingBaseURL string
	logger         *logger.Logger
	now            func() time.Time
}

func NewCallService(db CallDBLayer, meetingBaseURL string, log *logger.Logger) *CallService {
	return &CallService{DB: db, MeetingBaseURL: meetingBaseURL, logger: log, now: time.Now}
}

// ScheduleCall books a consultation call with a freshly generated meeting
// link.
func (s *CallService) ScheduleCall(ctx context.Context, userID string, req models.ScheduleCallRequest) (*models.ScheduledCall, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	if err := models.Validate(&req); err != nil {
		return nil, err
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, errPastSchedule
	}
	tz, err := timezone(req.Timezone)
	if err != nil {
		return nil, err
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}

	call := &models.ScheduledCall{
		ID:              utils.NewID(),
		UserID:          userID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		Timezone:        tz,
		Topic:           strings.TrimSpace(req.Topic),
		Notes:           strings.TrimSpace(req.Notes),
		MeetingLink:     utils.MeetingLink(s.MeetingBaseURL),
		Status:          models.CallPending,
		DurationMinutes: duration,
	}
	if err := s.DB.CreateCall(ctx, call); err != nil {
		return nil, err
	}
	s.logger.Info("CALLS", fmt.Sprintf("Call %s scheduled for %s at %s", call.ID, userID, call.ScheduledAt.Format(time.RFC3339)))
	return call, nil
}

func (s *CallService) ListCalls(ctx context.Context, userID string) ([]*models.ScheduledCall, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	return s.DB.ListByUser(ctx, userID)
}

func (s *CallService) UpdateCall(ctx context.Context, userID, id string, req models.UpdateCallRequest) (*models.ScheduledCall, error) {
	call, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := models.Validate(&req); err != nil {
		return nil, err
	}
	if call.Status == models.CallCanceled {
		return nil, fmt.Errorf("%w: call is canceled", models.ErrInvalidState)
	}

	if req.ScheduledAt != nil {
		if !req.ScheduledAt.After(s.now()) {
			return nil, errPastSchedule
		}
		call.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.Timezone != nil {
		tz, err := timezone(*req.Timezone)
		if err != nil {
			return nil, err
		}
		call.Timezone = tz
	}
	if req.Topic != nil {
		call.Topic = strings.TrimSpace(*req.Topic)
	}
	if req.Notes != nil {
		call.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil {
		call.Status = *req.Status
	}

	if err := s.DB.UpdateCall(ctx, call); err != nil {
		return nil, err
	}
	return call, nil
}

func (s *CallService) DeleteCall(ctx context.Context, userID, id string) error {
	call, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteCall(ctx, call.ID, userID); err != nil {
		return err
	}
	s.logger.Info("CALLS", fmt.Sprintf("Call %s deleted", call.ID))
	return nil
}

func (s *CallService) owned(ctx context.Context, userID, id string) (*models.ScheduledCall, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	call, err := s.DB.GetCall(ctx, id)
	if err != nil {
		return nil, err
	}
	if call.UserID != userID {
		return nil, models.ErrForbidden
	}
	return call, nil
}

// timezone defaults to UTC and accepts IANA names only.
func timezone(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", fmt.Errorf("%w: unknown timezone %q", models.ErrInvalidInput, name)
	}
	return name, nil
}
