package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/models"
	pkgauth "github.com/avercroft/kennelgate/pkg/auth"
	pkglogger "github.com/avercroft/kennelgate/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	// resetCodeTTL is how long an issued code stays redeemable.
	resetCodeTTL = 20 * time.Minute

	// maxRequestsPerHour caps codes issued per email address.
	maxRequestsPerHour = 3

	// maxConfirmAttempts caps confirmation attempts per email inside
	// confirmWindow, counted from the attempt audit trail.
	maxConfirmAttempts = 5
	confirmWindow      = 10 * time.Minute

	// attemptRetention is how long attempt rows are kept before cleanup.
	attemptRetention = 24 * time.Hour
)

// ResetCodeStore defines the interface for reset code persistence.
type ResetCodeStore interface {
	Create(ctx context.Context, code *models.PasswordResetCode) error
	CountCreatedSince(ctx context.Context, email string, since time.Time) (int, error)
	Claim(ctx context.Context, q database.Queryer, email, code string, now time.Time) (*models.PasswordResetCode, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetAttemptStore defines the interface for the confirmation attempt trail.
type ResetAttemptStore interface {
	Record(ctx context.Context, email string, success bool) error
	RecordTx(ctx context.Context, q database.Queryer, email string, success bool) error
	CountSince(ctx context.Context, email string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Transactor runs a function inside a database transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// ResetService implements the password reset flow: issue a short-lived
// one-time code by email, then exchange code plus new password for a
// credential update. Responses never reveal whether an email is registered.
type ResetService struct {
	accounts    AdminAccountRepository
	codes       ResetCodeStore
	attempts    ResetAttemptStore
	tx          Transactor
	sender      EmailSender
	hasher      *pkgauth.Hasher
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewResetService creates a new ResetService.
func NewResetService(
	accounts AdminAccountRepository,
	codes ResetCodeStore,
	attempts ResetAttemptStore,
	tx Transactor,
	sender EmailSender,
	hasher *pkgauth.Hasher,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *ResetService {
	return &ResetService{
		accounts:    accounts,
		codes:       codes,
		attempts:    attempts,
		tx:          tx,
		sender:      sender,
		hasher:      hasher,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// generateCode returns a random six digit code, zero padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestCode issues a reset code for a registered email and mails it out.
// Unknown emails return nil so the endpoint response is identical either
// way; only the rate limit is surfaced, and it applies per email address.
func (s *ResetService) RequestCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now()

	count, err := s.codes.CountCreatedSince(ctx, email, now.Add(-time.Hour))
	if err != nil {
		s.logger.Error("failed to count recent reset codes", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if count >= maxRequestsPerHour {
		s.auditLogger.LogResetEvent(pkglogger.AuditEvent{
			EventType:     "reset_request_limited",
			Email:         email,
			FailureReason: "too_many_requests",
			Success:       false,
		})
		return models.ErrRateLimited
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Indistinguishable from success at the HTTP layer.
			s.auditLogger.LogResetEvent(pkglogger.AuditEvent{
				EventType:     "reset_requested",
				Email:         email,
				FailureReason: "unknown_email",
				Success:       false,
			})
			return nil
		}
		s.logger.Error("failed to look up account for reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	code, err := generateCode()
	if err != nil {
		s.logger.Error("failed to generate reset code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	resetCode := &models.PasswordResetCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(resetCodeTTL),
		Used:      false,
	}
	if err := s.codes.Create(ctx, resetCode); err != nil {
		s.logger.Error("failed to store reset code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Delivery failures are swallowed: surfacing them would reveal which
	// emails are registered. The code row stays valid, so a retry within
	// the hour still works.
	if err := s.sender.SendResetCode(ctx, email, code, resetCode.ExpiresAt); err != nil {
		s.logger.Error("failed to deliver reset code",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	s.auditLogger.LogResetEvent(pkglogger.AuditEvent{
		EventType: "reset_requested",
		Email:     email,
		Success:   true,
	})

	return nil
}

// ConfirmReset redeems a code and sets a new password. The claim, the
// password update and the success audit row commit as one transaction, so a
// code can never be spent without the password changing.
func (s *ResetService) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now()

	attempts, err := s.attempts.CountSince(ctx, email, now.Add(-confirmWindow))
	if err != nil {
		s.logger.Error("failed to count reset attempts", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if attempts >= maxConfirmAttempts {
		if err := s.attempts.Record(ctx, email, false); err != nil {
			s.logger.Error("failed to record reset attempt", slog.Any("error", err))
		}
		s.auditLogger.LogResetEvent(pkglogger.AuditEvent{
			EventType:     "reset_confirm_limited",
			Email:         email,
			FailureReason: "too_many_attempts",
			Success:       false,
		})
		return models.ErrRateLimited
	}

	digest := newPassword
	if !pkgauth.IsDigest(newPassword) {
		digest = s.hasher.Digest(newPassword)
	}

	err = s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.codes.Claim(ctx, tx, email, code, now); err != nil {
			return err
		}
		if err := s.accounts.UpdatePassword(ctx, tx, email, digest); err != nil {
			return err
		}
		return s.attempts.RecordTx(ctx, tx, email, true)
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if recordErr := s.attempts.Record(ctx, email, false); recordErr != nil {
				s.logger.Error("failed to record reset attempt", slog.Any("error", recordErr))
			}
			s.auditLogger.LogResetEvent(pkglogger.AuditEvent{
				EventType:     "reset_confirm_failed",
				Email:         email,
				FailureReason: "invalid_or_expired_code",
				Success:       false,
			})
			return models.ErrInvalidOrExpiredCode
		}
		s.logger.Error("failed to confirm password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogResetEvent(pkglogger.AuditEvent{
		EventType: "reset_confirmed",
		Email:     email,
		Success:   true,
	})

	return nil
}

// PurgeExpired removes expired codes and stale attempt rows. The background
// cleanup manager calls this on an interval.
func (s *ResetService) PurgeExpired(ctx context.Context) error {
	now := time.Now()

	codes, err := s.codes.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge expired reset codes: %w", err)
	}

	attempts, err := s.attempts.DeleteOlderThan(ctx, now.Add(-attemptRetention))
	if err != nil {
		return fmt.Errorf("failed to purge reset attempts: %w", err)
	}

	if codes > 0 || attempts > 0 {
		s.logger.Info("purged reset records",
			slog.Int64("codes", codes),
			slog.Int64("attempts", attempts))
	}

	return nil
}
