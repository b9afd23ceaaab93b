package repositories

import (
	"context"
	"time"

	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AdminRepository handles persistence for admin accounts. Username lookup
// and uniqueness are case-insensitive.
type AdminRepository struct {
	db *database.DB
}

func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func scanAdminRow(row pgx.Row) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	err := row.Scan(
		&admin.ID, &admin.Username, &admin.Email, &admin.PasswordDigest,
		&admin.IsActive, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &admin, nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	query := `
		SELECT id, username, email, password_digest, is_active, created_at, updated_at
		FROM admin_users WHERE lower(username) = lower($1)
	`

	return scanAdminRow(r.db.Pool.QueryRow(ctx, query, username))
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	query := `
		SELECT id, username, email, password_digest, is_active, created_at, updated_at
		FROM admin_users WHERE email = $1
	`

	return scanAdminRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminAccount) (*models.AdminAccount, error) {
	admin.ID = uuid.New().String()

	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	admin.IsActive = true

	query := `
		INSERT INTO admin_users (id, username, email, password_digest, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, username, email, password_digest, is_active, created_at, updated_at
	`

	return scanAdminRow(r.db.Pool.QueryRow(ctx, query,
		admin.ID, admin.Username, admin.Email, admin.PasswordDigest,
		admin.IsActive, admin.CreatedAt, admin.UpdatedAt,
	))
}

// UpdatePassword replaces the stored digest for the account with the given
// email. It accepts a Queryer so the reset-confirmation flow can run it
// inside the redemption transaction.
func (r *AdminRepository) UpdatePassword(ctx context.Context, q database.Queryer, email, digest string) error {
	query := `
		UPDATE admin_users SET password_digest = $1, updated_at = $2
		WHERE email = $3
	`

	result, err := q.Exec(ctx, query, digest, time.Now(), email)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
