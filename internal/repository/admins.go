package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
)

// CreateAdmin creates a new admin in the database
func (r *Repository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO loans.admins (username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, admin.Username, admin.Email,
		admin.PasswordHash, admin.Role).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// FindAdminByEmail retrieves an admin by email
func (r *Repository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM loans.admins
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&admin.ID, &admin.Username, &admin.Email, &admin.PasswordHash,
			&admin.Role, &admin.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return admin, nil
}
