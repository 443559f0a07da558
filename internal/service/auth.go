package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pesalink/loan-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new admin with hashed password
func (s *Service) Register(ctx context.Context, username, email, password, role string) (*models.Admin, error) {
	if username == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("invalid registration: %w", models.ErrValidation)
	}
	if role == "" {
		role = "officer"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	s.log.Infof("Admin registered: %s", admin.Email)
	return admin, nil
}

// Login authenticates an admin and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.store.FindAdminByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", admin.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Admin logged in: %s", admin.Email)
	return tokenString, nil
}
