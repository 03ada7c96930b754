package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
)

func newTestUserService(mailErr error) (UserService, *fakeUsers, *fakeMailer) {
	users := newFakeUsers()
	mailer := &fakeMailer{err: mailErr}
	auth := NewAuthService(users, testAuthCfg)
	return NewUserService(users, fakeStudentCount{n: 7}, mailer, auth), users, mailer
}

func TestUserService_CreateSendsCredentials(t *testing.T) {
	req := require.New(t)
	svc, _, mailer := newTestUserService(nil)

	u, sent, err := svc.CreateUser(context.Background(), &models.CreateUserRequest{
		Username: "grace", Email: "grace@school.test", RoleID: authz.RoleRegistrar,
	})
	req.NoError(err)
	req.True(sent)
	req.True(u.IsActive)
	req.Len(mailer.welcomes, 1)

	parts := strings.SplitN(mailer.welcomes[0], "|", 2)
	req.Equal("grace@school.test", parts[0])
	req.NotEmpty(parts[1])
}

func TestUserService_CreateSurvivesEmailFailure(t *testing.T) {
	req := require.New(t)
	svc, users, _ := newTestUserService(errors.New("smtp down"))

	u, sent, err := svc.CreateUser(context.Background(), &models.CreateUserRequest{
		Username: "grace", Email: "grace@school.test", Password: "long-enough", RoleID: authz.RoleStaff,
	})
	req.NoError(err)
	req.False(sent)
	stored, _ := users.GetByID(context.Background(), u.ID)
	req.NotNil(stored)
}

func TestUserService_CreateRejectsDuplicatesAndBadRoles(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestUserService(nil)
	ctx := context.Background()

	_, _, err := svc.CreateUser(ctx, &models.CreateUserRequest{Username: "grace", Email: "g@school.test", RoleID: authz.RoleStaff})
	req.NoError(err)
	_, _, err = svc.CreateUser(ctx, &models.CreateUserRequest{Username: "grace", Email: "g2@school.test", RoleID: authz.RoleStaff})
	req.ErrorIs(err, ErrDuplicate)
	_, _, err = svc.CreateUser(ctx, &models.CreateUserRequest{Username: "x", Email: "x@school.test", RoleID: 99})
	req.Error(err)
}

func TestUserService_UpdatePrivilegedFields(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestUserService(nil)
	ctx := context.Background()
	u, _, err := svc.CreateUser(ctx, &models.CreateUserRequest{Username: "grace", Email: "g@school.test", RoleID: authz.RoleStaff})
	req.NoError(err)

	admin := authz.RoleAdmin
	_, err = svc.UpdateUser(ctx, u.ID, &models.UserUpdate{RoleID: &admin}, false)
	req.ErrorIs(err, ErrForbidden)

	name := "Grace"
	updated, err := svc.UpdateUser(ctx, u.ID, &models.UserUpdate{FirstName: &name}, false)
	req.NoError(err)
	req.Equal("Grace", updated.FirstName)
	req.Equal(authz.RoleStaff, updated.RoleID)

	updated, err = svc.UpdateUser(ctx, u.ID, &models.UserUpdate{RoleID: &admin}, true)
	req.NoError(err)
	req.Equal(authz.RoleAdmin, updated.RoleID)

	_, err = svc.UpdateUser(ctx, 404, &models.UserUpdate{FirstName: &name}, true)
	req.ErrorIs(err, ErrNotFound)
}

func TestUserService_ListAndDashboard(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newTestUserService(nil)
	ctx := context.Background()
	inactive := false
	for i, role := range []int{authz.RoleAdmin, authz.RoleStaff, authz.RoleRegistrar, authz.RoleStaff} {
		r := &models.CreateUserRequest{Username: string(rune('a' + i)), Email: "u@school.test", RoleID: role}
		if i == 3 {
			r.IsActive = &inactive
		}
		_, _, err := svc.CreateUser(ctx, r)
		req.NoError(err)
	}

	page, err := svc.ListUsers(ctx, "2", "3")
	req.NoError(err)
	req.Equal(2, page.Page)
	req.Equal(2, page.NumPages)
	req.Len(page.Items, 1)

	stats, err := svc.Dashboard(ctx)
	req.NoError(err)
	req.Equal(1, stats.ActiveAdminUsers)
	req.Equal(0, stats.InactiveAdminUsers)
	req.Equal(2, stats.ActiveStaffUsers)
	req.Equal(1, stats.InactiveStaffUsers)
	req.Equal(7, stats.ActiveStudents)

	req.NoError(svc.DeleteUser(ctx, 1))
	req.ErrorIs(svc.DeleteUser(ctx, 1), ErrNotFound)
}
