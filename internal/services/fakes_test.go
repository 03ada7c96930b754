package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"schoolhub/internal/models"
	"schoolhub/internal/repositories"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int]*models.User
	nextID int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int]*models.User{}, nextID: 1}
}

func (f *fakeUsers) find(match func(*models.User) bool) *models.User {
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.find(func(x *models.User) bool { return x.Username == u.Username }) != nil {
		return repositories.ErrDuplicate
	}
	u.ID = f.nextID
	f.nextID++
	u.DateJoined = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	hash := cur.PasswordHash
	cp := *u
	cp.PasswordHash = hash
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.User{}
	for id := 1; id < f.nextID; id++ {
		if u, ok := f.byID[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	if offset > len(out) {
		return []*models.User{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID), nil
}

func (f *fakeUsers) CountByRole(_ context.Context, roleID int, active bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.byID {
		if u.RoleID == roleID && u.IsActive == active {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *fakeUsers) UpdateRefresh(_ context.Context, id int, token string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.RefreshToken, u.RefreshExpiresAt, u.RefreshRevoked = &token, &exp, false
	}
	return nil
}

func (f *fakeUsers) RotateRefresh(_ context.Context, oldToken, newToken string, exp time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.RefreshToken != nil && *u.RefreshToken == oldToken && !u.RefreshRevoked &&
			u.RefreshExpiresAt != nil && u.RefreshExpiresAt.After(time.Now()) {
			u.RefreshToken, u.RefreshExpiresAt = &newToken, &exp
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ClearRefresh(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.RefreshToken, u.RefreshExpiresAt, u.RefreshRevoked = nil, nil, true
	}
	return nil
}

func (f *fakeUsers) GetByRefreshToken(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(u *models.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token }), nil
}

func (f *fakeUsers) ClearExpiredRefresh(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.byID {
		if u.RefreshToken != nil && (u.RefreshRevoked || u.RefreshExpiresAt == nil || !u.RefreshExpiresAt.After(now)) {
			u.RefreshToken, u.RefreshExpiresAt = nil, nil
			n++
		}
	}
	return n, nil
}

type fakeMailer struct {
	mu       sync.Mutex
	err      error
	welcomes []string
	resets   []string
}

func (m *fakeMailer) Send(string, string, []string) bool { return m.err == nil }

func (m *fakeMailer) SendWelcomeEmail(email, _, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, email+"|"+password)
	return m.err
}

func (m *fakeMailer) SendPasswordResetEmail(email, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, token)
	return m.err
}

type fakeStudentCount struct {
	repositories.StudentRepository
	n int
}

func (f fakeStudentCount) Count(context.Context) (int, error) { return f.n, nil }
