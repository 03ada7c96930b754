package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"schoolhub/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int, hash string) error
	Delete(ctx context.Context, id int) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, roleID int, active bool) (int, error)
	TouchLastLogin(ctx context.Context, userID int, at time.Time) error

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearExpiredRefresh(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userSelectCols = `
		id, username, first_name, last_name, email, password_hash, role_id,
		is_active, date_joined, last_login,
		refresh_token, refresh_expires_at, refresh_revoked`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		lastLogin sql.NullTime
		rt        sql.NullString
		rte       sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.RoleID,
		&u.IsActive, &u.DateJoined, &lastLogin,
		&rt, &rte, &u.RefreshRevoked,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

// getOne returns (nil, nil) when no row matches.
func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	q := "SELECT" + userSelectCols + " FROM users WHERE " + where
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			username, first_name, last_name, email, password_hash, role_id, is_active
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, date_joined
	`
	err := r.DB.QueryRowContext(ctx, q,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.IsActive,
	).Scan(&user.ID, &user.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1) ORDER BY id LIMIT 1", email)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET
			username=$1,
			first_name=$2,
			last_name=$3,
			email=$4,
			role_id=$5,
			is_active=$6
		WHERE id=$7
	`
	res, err := r.DB.ExecContext(ctx, q,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.RoleID,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return res.RowsAffected()
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	q := "SELECT" + userSelectCols + " FROM users ORDER BY id LIMIT $1 OFFSET $2"
	rows, err := r.DB.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	res := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var c int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&c); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return c, nil
}

func (r *userRepository) CountByRole(ctx context.Context, roleID int, active bool) (int, error) {
	var c int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role_id = $1 AND is_active = $2`, roleID, active,
	).Scan(&c)
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return c, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, userID int, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login=$1 WHERE id=$2`, at, userID)
	return err
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.ExecContext(ctx, q, token, expiresAt, userID)
	return err
}

// RotateRefresh swaps a live refresh token for a new one. It returns (nil, nil)
// when the old token is unknown, revoked or expired.
func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE refresh_token=$3 AND NOT refresh_revoked AND refresh_expires_at > NOW()
		RETURNING` + userSelectCols
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, newToken, newExpiresAt, oldToken))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("rotate refresh: %w", err)
	}
	return u, nil
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "refresh_token = $1", token)
}

// ClearExpiredRefresh drops refresh tokens that expired before now or were revoked.
func (r *userRepository) ClearExpiredRefresh(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL
		WHERE refresh_token IS NOT NULL
		  AND (refresh_revoked OR refresh_expires_at IS NULL OR refresh_expires_at <= $1)
	`, now)
	if err != nil {
		return 0, fmt.Errorf("clear expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
