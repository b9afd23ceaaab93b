package repositories

import (
	"context"
	"time"

	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/google/uuid"
)

// ResetCodeRepository stores one-time password reset codes. Redemption is
// first-writer-wins: Claim flips used from false to true in a single
// conditional UPDATE, so a code can never be spent twice.
type ResetCodeRepository struct {
	db *database.DB
}

func NewResetCodeRepository(db *database.DB) *ResetCodeRepository {
	return &ResetCodeRepository{db: db}
}

func (r *ResetCodeRepository) Create(ctx context.Context, code *models.PasswordResetCode) error {
	code.ID = uuid.New().String()
	code.CreatedAt = time.Now()

	query := `
		INSERT INTO password_reset_codes (id, email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		code.ID, code.Email, code.Code, code.ExpiresAt, code.Used, code.CreatedAt,
	)
	return database.MapPostgresError(err)
}

// CountCreatedSince returns the number of codes issued to an email address
// after the given instant, regardless of whether they were redeemed.
func (r *ResetCodeRepository) CountCreatedSince(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM password_reset_codes
		WHERE email = $1 AND created_at >= $2
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, email, since).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// Claim atomically redeems an unused, unexpired code for the given email.
// It returns ErrNotFound when no such code exists or a concurrent caller
// claimed it first. It accepts a Queryer so the confirmation flow can run
// it inside the redemption transaction.
func (r *ResetCodeRepository) Claim(ctx context.Context, q database.Queryer, email, code string, now time.Time) (*models.PasswordResetCode, error) {
	query := `
		UPDATE password_reset_codes SET used = true
		WHERE email = $1 AND code = $2 AND used = false AND expires_at >= $3
		RETURNING id, email, code, expires_at, used, created_at
	`

	var claimed models.PasswordResetCode
	err := q.QueryRow(ctx, query, email, code, now).Scan(
		&claimed.ID, &claimed.Email, &claimed.Code,
		&claimed.ExpiresAt, &claimed.Used, &claimed.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &claimed, nil
}

// DeleteExpired removes codes past their expiry. Redeemed codes are kept
// until they expire so the audit trail survives.
func (r *ResetCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM password_reset_codes WHERE expires_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
