package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"schoolhub/internal/repositories"
	"schoolhub/internal/utils"
)

var ErrInvalidResetToken = errors.New("invalid or expired token")

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo repositories.UserRepository
	repo     repositories.PasswordResetRepository
	emails   EmailService
	auth     AuthService
	ttl      time.Duration
}

func NewPasswordResetService(userRepo repositories.UserRepository, repo repositories.PasswordResetRepository, emails EmailService, auth AuthService, ttl time.Duration) PasswordResetService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &passwordResetService{
		userRepo: userRepo,
		repo:     repo,
		emails:   emails,
		auth:     auth,
		ttl:      ttl,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil || !user.IsActive {
		// don't leak existence
		log.Printf("[password-reset] request for %q: no active user (err=%v)", email, err)
		return nil
	}

	token, err := utils.NewRefreshToken(32)
	if err != nil {
		return err
	}
	if _, err := s.repo.Create(ctx, user.ID, token, time.Now().Add(s.ttl)); err != nil {
		return err
	}

	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(user.Email, user.Username, token); err != nil {
			log.Printf("[password-reset] failed to send email to %s: %v", user.Email, err)
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return fmt.Errorf("token and password are required")
	}

	pr, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if pr == nil || pr.UsedAt != nil || time.Now().After(pr.ExpiresAt) {
		return ErrInvalidResetToken
	}

	if err := s.auth.SetPassword(ctx, pr.UserID, newPassword); err != nil {
		return err
	}
	return s.repo.MarkUsed(ctx, pr.ID)
}
