package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/internal/repositories"
	"schoolhub/internal/utils"
)

type UserService interface {
	// CreateUser stores the account and emails the credentials. A failed email
	// does not undo the creation; emailSent is false in that case.
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (user *models.User, emailSent bool, err error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser applies upd. When allowPrivileged is false, role and active
	// flag changes are rejected with ErrForbidden.
	UpdateUser(ctx context.Context, id int, upd *models.UserUpdate, allowPrivileged bool) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	ListUsers(ctx context.Context, page, perPage string) (utils.Page[*models.User], error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

type userService struct {
	repo     repositories.UserRepository
	students repositories.StudentRepository
	emails   EmailService
	auth     AuthService
}

func NewUserService(repo repositories.UserRepository, students repositories.StudentRepository, emails EmailService, auth AuthService) UserService {
	return &userService{
		repo:     repo,
		students: students,
		emails:   emails,
		auth:     auth,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, bool, error) {
	if !authz.IsValidRole(req.RoleID) {
		return nil, false, fmt.Errorf("unknown role_id %d", req.RoleID)
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		p, err := utils.NewPassword()
		if err != nil {
			return nil, false, err
		}
		password = p
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		RoleID:       req.RoleID,
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, false, ErrDuplicate
		}
		return nil, false, err
	}

	if s.emails == nil {
		return user, false, nil
	}
	if err := s.emails.SendWelcomeEmail(user.Email, user.Username, password); err != nil {
		log.Printf("[users][create] warning: welcome email to %s failed: %v", user.Email, err)
		return user, false, nil
	}
	return user, true, nil
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *userService) UpdateUser(ctx context.Context, id int, upd *models.UserUpdate, allowPrivileged bool) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowPrivileged && (upd.RoleID != nil || upd.IsActive != nil) {
		return nil, ErrForbidden
	}
	if upd.Username != nil {
		u.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.RoleID != nil {
		if !authz.IsValidRole(*upd.RoleID) {
			return nil, fmt.Errorf("unknown role_id %d", *upd.RoleID)
		}
		u.RoleID = *upd.RoleID
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrDuplicate
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, page, perPage string) (utils.Page[*models.User], error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return utils.Page[*models.User]{}, err
	}
	p := utils.NewPaginator(total, page, perPage)
	items, err := s.repo.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return utils.Page[*models.User]{}, err
	}
	return utils.NewPage(p, items), nil
}

// Dashboard counts admins against everyone else, split by the active flag.
func (s *userService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	var err error
	if stats.ActiveAdminUsers, err = s.repo.CountByRole(ctx, authz.RoleAdmin, true); err != nil {
		return nil, err
	}
	if stats.InactiveAdminUsers, err = s.repo.CountByRole(ctx, authz.RoleAdmin, false); err != nil {
		return nil, err
	}
	for _, role := range []int{authz.RoleStaff, authz.RoleRegistrar} {
		active, err := s.repo.CountByRole(ctx, role, true)
		if err != nil {
			return nil, err
		}
		inactive, err := s.repo.CountByRole(ctx, role, false)
		if err != nil {
			return nil, err
		}
		stats.ActiveStaffUsers += active
		stats.InactiveStaffUsers += inactive
	}
	if stats.ActiveStudents, err = s.students.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
