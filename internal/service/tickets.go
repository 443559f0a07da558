package service

import (
	"context"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
)

// OpenTicket files a support ticket on behalf of a user.
func (s *Service) OpenTicket(ctx context.Context, userID int64, subject, body string) (*models.Ticket, error) {
	if subject == "" {
		return nil, fmt.Errorf("ticket subject is required: %w", models.ErrValidation)
	}
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		UserID:  userID,
		Subject: subject,
		Body:    body,
		Status:  models.TicketOpen,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.log.Infof("Ticket %d opened for user %d: %s", ticket.ID, userID, subject)
	return ticket, nil
}

// ListTickets returns tickets, optionally filtered by status.
func (s *Service) ListTickets(ctx context.Context, status models.TicketStatus) ([]*models.Ticket, error) {
	return s.store.ListTickets(ctx, status)
}

// CloseTicket marks a ticket closed by the given admin.
func (s *Service) CloseTicket(ctx context.Context, id, adminID int64) (*models.Ticket, error) {
	ticket, err := s.store.CloseTicket(ctx, id, adminID)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Ticket %d closed by admin %d", id, adminID)
	return ticket, nil
}
