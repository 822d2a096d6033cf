package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/utils"
)

const contactUpdatedSubject = "Contact details updated"

type ProfileDBLayer interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
}

// TicketPoster opens support tickets on behalf of a user.
type TicketPoster interface {
	CreateTicket(ctx context.Context, userID string, req models.CreateTicketRequest) (*models.SupportTicket, error)
}

type ProfileService struct {
	DB      ProfileDBLayer
	Tickets TicketPoster
	logger  *logger.Logger
}

func NewProfileService(db ProfileDBLayer, tickets TicketPoster, log *logger.Logger) *ProfileService {
	return &ProfileService{DB: db, Tickets: tickets, logger: log}
}

// GetProfile returns an empty profile for users who never saved one.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	p, err := s.DB.GetProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Profile{UserID: userID}, nil
	}
	return p, err
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error) {
	if err := models.Validate(&req); err != nil {
		return nil, err
	}
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	phoneChanged := false
	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		phone, err := phoneFrom(req.CountryCode, *req.Phone)
		if err != nil {
			return nil, err
		}
		phoneChanged = phone != p.Phone
		p.Phone = phone
	}

	if err := s.DB.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("PROFILE", fmt.Sprintf("Profile updated for %s", userID))

	if phoneChanged && s.Tickets != nil {
		utils.Attempt(s.logger, "PROFILE", "post contact-update ticket", func() error {
			_, err := s.Tickets.CreateTicket(ctx, userID, models.CreateTicketRequest{
				Subject:  contactUpdatedSubject,
				Message:  fmt.Sprintf("Phone number changed to %s", maskPhone(p.Phone)),
				Priority: string(models.PriorityLow),
			})
			return err
		})
	}
	return p, nil
}

// phoneFrom normalizes a phone update. An empty number clears it.
func phoneFrom(countryCode *string, local string) (string, error) {
	if strings.TrimSpace(local) == "" {
		return "", nil
	}
	if countryCode == nil {
		return "", models.InvalidInput("countryCode is required with phone")
	}
	phone, ok := utils.NormalizePhone(*countryCode, local)
	if !ok {
		return "", models.InvalidInput("phone must be a valid international number")
	}
	return phone, nil
}

func maskPhone(phone string) string {
	if phone == "" {
		return "(removed)"
	}
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
