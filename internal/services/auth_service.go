package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"schoolhub/internal/config"
	"schoolhub/internal/middleware"
	"schoolhub/internal/models"
	"schoolhub/internal/repositories"
	"schoolhub/internal/utils"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("account is disabled")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLen)
)

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type AuthService interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
	Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID int) error
	ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
	SetPassword(ctx context.Context, userID int, newPassword string) error
}

type authService struct {
	users      repositories.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(users repositories.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{
		users:      users,
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *authService) CheckPassword(hash, password string) bool {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) issueAccessToken(u *models.User) (string, time.Time, error) {
	exp := s.now().Add(s.accessTTL)
	claims := &middleware.Claims{
		UserID:   u.ID,
		RoleID:   u.RoleID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	username = strings.TrimSpace(username)
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !s.CheckPassword(user.PasswordHash, password) {
		log.Printf("[auth][login] rejected username=%q", username)
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInactiveUser
	}

	access, accessExp, err := s.issueAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, nil, err
	}
	rtExp := s.now().Add(s.refreshTTL)
	if err := s.users.UpdateRefresh(ctx, user.ID, rt, rtExp); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("[auth][login] last_login for userID=%d: %v", user.ID, err)
	} else {
		user.LastLogin = &now
	}
	log.Printf("[auth][login] success userID=%d role=%d", user.ID, user.RoleID)

	return user, &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rt,
		RefreshExpiresAt: rtExp,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	old := strings.TrimSpace(refreshToken)
	if old == "" {
		return nil, ErrInvalidRefresh
	}
	newRT, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	newExp := s.now().Add(s.refreshTTL)
	user, err := s.users.RotateRefresh(ctx, old, newRT, newExp)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidRefresh
	}
	access, accessExp, err := s.issueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     newRT,
		RefreshExpiresAt: newExp,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID int) error {
	return s.users.ClearRefresh(ctx, userID)
}

func (s *authService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if !s.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	return s.SetPassword(ctx, userID, newPassword)
}

// SetPassword replaces the password and revokes the refresh token so other
// sessions have to log in again.
func (s *authService) SetPassword(ctx context.Context, userID int, newPassword string) error {
	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.users.ClearRefresh(ctx, userID)
}
