package repositories

import (
	"context"
	"time"

	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/google/uuid"
)

// ResetAttemptRepository records every reset-confirmation attempt per email.
// The confirmation flow counts recent failures here to throttle guessing.
type ResetAttemptRepository struct {
	db *database.DB
}

func NewResetAttemptRepository(db *database.DB) *ResetAttemptRepository {
	return &ResetAttemptRepository{db: db}
}

// Record writes an attempt row using the pool.
func (r *ResetAttemptRepository) Record(ctx context.Context, email string, success bool) error {
	return r.RecordTx(ctx, r.db.Pool, email, success)
}

// RecordTx writes an attempt row through the given Queryer so the
// successful-confirmation write can join the redemption transaction.
func (r *ResetAttemptRepository) RecordTx(ctx context.Context, q database.Queryer, email string, success bool) error {
	attempt := models.PasswordResetAttempt{
		ID:          uuid.New().String(),
		Email:       email,
		AttemptedAt: time.Now(),
		Success:     success,
	}

	query := `
		INSERT INTO password_reset_attempts (id, email, attempted_at, success)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.Exec(ctx, query, attempt.ID, attempt.Email, attempt.AttemptedAt, attempt.Success)
	return database.MapPostgresError(err)
}

// CountSince returns the number of attempts for an email after the given
// instant, successful or not.
func (r *ResetAttemptRepository) CountSince(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM password_reset_attempts
		WHERE email = $1 AND attempted_at >= $2
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, email, since).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// DeleteOlderThan prunes attempt rows recorded before the cutoff.
func (r *ResetAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM password_reset_attempts WHERE attempted_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
