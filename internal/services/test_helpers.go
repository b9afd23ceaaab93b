package services

import (
	"context"
	"time"

	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/jackc/pgx/v5"
)

// MockAdminRepository implements AdminAccountRepository for testing
type MockAdminRepository struct {
	GetByUsernameFunc  func(ctx context.Context, username string) (*models.AdminAccount, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.AdminAccount, error)
	CreateFunc         func(ctx context.Context, admin *models.AdminAccount) (*models.AdminAccount, error)
	UpdatePasswordFunc func(ctx context.Context, q database.Queryer, email, digest string) error
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.AdminAccount) (*models.AdminAccount, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, admin)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, q database.Queryer, email, digest string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, q, email, digest)
	}
	return nil
}

// MockResetCodeStore implements ResetCodeStore for testing
type MockResetCodeStore struct {
	CreateFunc            func(ctx context.Context, code *models.PasswordResetCode) error
	CountCreatedSinceFunc func(ctx context.Context, email string, since time.Time) (int, error)
	ClaimFunc             func(ctx context.Context, q database.Queryer, email, code string, now time.Time) (*models.PasswordResetCode, error)
	DeleteExpiredFunc     func(ctx context.Context, now time.Time) (int64, error)
}

func (m *MockResetCodeStore) Create(ctx context.Context, code *models.PasswordResetCode) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, code)
	}
	return nil
}

func (m *MockResetCodeStore) CountCreatedSince(ctx context.Context, email string, since time.Time) (int, error) {
	if m.CountCreatedSinceFunc != nil {
		return m.CountCreatedSinceFunc(ctx, email, since)
	}
	return 0, nil
}

func (m *MockResetCodeStore) Claim(ctx context.Context, q database.Queryer, email, code string, now time.Time) (*models.PasswordResetCode, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, q, email, code, now)
	}
	return nil, models.ErrNotFound
}

func (m *MockResetCodeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

// MockResetAttemptStore implements ResetAttemptStore for testing
type MockResetAttemptStore struct {
	RecordFunc          func(ctx context.Context, email string, success bool) error
	RecordTxFunc        func(ctx context.Context, q database.Queryer, email string, success bool) error
	CountSinceFunc      func(ctx context.Context, email string, since time.Time) (int, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *MockResetAttemptStore) Record(ctx context.Context, email string, success bool) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, email, success)
	}
	return nil
}

func (m *MockResetAttemptStore) RecordTx(ctx context.Context, q database.Queryer, email string, success bool) error {
	if m.RecordTxFunc != nil {
		return m.RecordTxFunc(ctx, q, email, success)
	}
	return nil
}

func (m *MockResetAttemptStore) CountSince(ctx context.Context, email string, since time.Time) (int, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, email, since)
	}
	return 0, nil
}

func (m *MockResetAttemptStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

// MockTransactor runs the transaction body with a nil tx; the stores above
// ignore the Queryer they receive.
type MockTransactor struct {
	WithTransactionFunc func(ctx context.Context, fn func(pgx.Tx) error) error
}

func (m *MockTransactor) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendResetCodeFunc func(ctx context.Context, email, code string, expiresAt time.Time) error
}

func (m *MockEmailSender) SendResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if m.SendResetCodeFunc != nil {
		return m.SendResetCodeFunc(ctx, email, code, expiresAt)
	}
	return nil
}

// MockLoginTracker implements throttle.LoginTracker for testing
type MockLoginTracker struct {
	BlockedResult bool
	Failures      []string
}

func (m *MockLoginTracker) RecordFailure(addr string) {
	m.Failures = append(m.Failures, addr)
}

func (m *MockLoginTracker) Blocked(addr string) bool {
	return m.BlockedResult
}

// NewTestAdmin builds an active admin account with the given digest.
func NewTestAdmin(username, email, digest string) *models.AdminAccount {
	now := time.Now()
	return &models.AdminAccount{
		ID:             "admin123",
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
