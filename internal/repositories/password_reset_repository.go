package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"schoolhub/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID int, token string, expiresAt time.Time) (*models.PasswordReset, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id int) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, userID int, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	const q = `
                INSERT INTO password_resets (user_id, token, expires_at)
                VALUES ($1, $2, $3)
                RETURNING id, created_at
        `
	pr := &models.PasswordReset{UserID: userID, Token: token, ExpiresAt: expiresAt}
	if err := r.DB.QueryRowContext(ctx, q, userID, token, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, fmt.Errorf("create password reset: %w", err)
	}
	return pr, nil
}

// GetByToken returns (nil, nil) for an unknown token.
func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	const q = `
                SELECT id, user_id, token, expires_at, used_at, created_at
                FROM password_resets
                WHERE token = $1
        `
	pr := &models.PasswordReset{}
	var usedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, token).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get password reset: %w", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id int) error {
	const q = `
                UPDATE password_resets SET used_at = NOW() WHERE id = $1
        `
	_, err := r.DB.ExecContext(ctx, q, id)
	return err
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at <= $1 OR used_at IS NOT NULL`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	return res.RowsAffected()
}
