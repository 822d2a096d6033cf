package support

import (
	"context"
	"fmt"
	"strings"

	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/utils"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket *models.SupportTicket) error
	GetTicket(ctx context.Context, id string) (*models.SupportTicket, error)
	ListByUser(ctx context.Context, userID string) ([]*models.SupportTicket, error)
	AddReply(ctx context.Context, reply *models.TicketReply) error
	SetStatus(ctx context.Context, id string, status models.TicketStatus) error
}

type TicketService struct {
	DB     TicketDBLayer
	logger *logger.Logger
}

func NewTicketService(db TicketDBLayer, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, logger: log}
}

func (s *TicketService) CreateTicket(ctx context.Context, userID string, req models.CreateTicketRequest) (*models.SupportTicket, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := models.Validate(&req); err != nil {
		return nil, err
	}

	ticket := &models.SupportTicket{
		ID:       utils.NewID(),
		UserID:   userID,
		OrderID:  strings.TrimSpace(req.OrderID),
		Subject:  req.Subject,
		Message:  req.Message,
		Priority: models.NormalizePriority(req.Priority),
		Status:   models.TicketOpen,
	}
	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("SUPPORT", fmt.Sprintf("Ticket %s opened by %s (%s)", ticket.ID, userID, ticket.Priority))
	return ticket, nil
}

func (s *TicketService) ListTickets(ctx context.Context, userID string) ([]*models.SupportTicket, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	return s.DB.ListByUser(ctx, userID)
}

// GetTicket returns the ticket with its replies to its owner only.
func (s *TicketService) GetTicket(ctx context.Context, userID, id string) (*models.SupportTicket, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	ticket, err := s.DB.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, models.ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) AddReply(ctx context.Context, userID, ticketID string, req models.CreateReplyRequest) (*models.TicketReply, error) {
	ticket, err := s.GetTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketClosed {
		return nil, fmt.Errorf("%w: ticket is closed", models.ErrInvalidState)
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := models.Validate(&req); err != nil {
		return nil, err
	}

	reply := &models.TicketReply{
		ID:       utils.NewID(),
		TicketID: ticket.ID,
		UserID:   userID,
		Message:  req.Message,
	}
	if err := s.DB.AddReply(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *TicketService) CloseTicket(ctx context.Context, userID, ticketID string) (*models.SupportTicket, error) {
	ticket, err := s.GetTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketClosed {
		return ticket, nil
	}
	if err := s.DB.SetStatus(ctx, ticket.ID, models.TicketClosed); err != nil {
		return nil, err
	}
	ticket.Status = models.TicketClosed
	s.logger.Info("SUPPORT", fmt.Sprintf("Ticket %s closed", ticket.ID))
	return ticket, nil
}
