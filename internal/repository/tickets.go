package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
)

// CreateTicket creates a new support ticket in open status.
func (r *Repository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO loans.tickets (user_id, subject, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, ticket.UserID, ticket.Subject,
		ticket.Body, ticket.Status).
		Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// ListTickets returns tickets, optionally filtered by status, newest first.
func (r *Repository) ListTickets(ctx context.Context, status models.TicketStatus) ([]*models.Ticket, error) {
	query := `
		SELECT id, user_id, subject, body, status, assigned_to, created_at, updated_at
		FROM loans.tickets
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{}
		if err := rows.Scan(&ticket.ID, &ticket.UserID, &ticket.Subject, &ticket.Body,
			&ticket.Status, &ticket.AssignedTo, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return tickets, nil
}

// CloseTicket marks a ticket closed and records who handled it.
func (r *Repository) CloseTicket(ctx context.Context, id, adminID int64) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	query := `
		UPDATE loans.tickets
		SET status = 'closed', assigned_to = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, user_id, subject, body, status, assigned_to, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, adminID, id).
		Scan(&ticket.ID, &ticket.UserID, &ticket.Subject, &ticket.Body,
			&ticket.Status, &ticket.AssignedTo, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close ticket: %w", err)
	}
	return ticket, nil
}
