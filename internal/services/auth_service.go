package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/avercroft/kennelgate/internal/auth"
	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/avercroft/kennelgate/internal/throttle"
	pkgauth "github.com/avercroft/kennelgate/pkg/auth"
	pkglogger "github.com/avercroft/kennelgate/pkg/logger"
)

// AdminAccountRepository defines the interface for admin account persistence.
type AdminAccountRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	Create(ctx context.Context, admin *models.AdminAccount) (*models.AdminAccount, error)
	UpdatePassword(ctx context.Context, q database.Queryer, email, digest string) error
}

// AuthService handles login, token issuance and admin account creation.
type AuthService struct {
	accounts       AdminAccountRepository
	tm             *auth.TokenManager
	hasher         *pkgauth.Hasher
	tracker        throttle.LoginTracker
	creationDigest string
	logger         *slog.Logger
	auditLogger    *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService. creationPassword is the shared
// secret that authorizes account creation without a bearer token; it is
// digested once here so comparisons are always digest-to-digest.
func NewAuthService(
	accounts AdminAccountRepository,
	tm *auth.TokenManager,
	hasher *pkgauth.Hasher,
	tracker throttle.LoginTracker,
	creationPassword string,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	creationDigest := ""
	if creationPassword != "" {
		creationDigest = hasher.Digest(creationPassword)
	}

	return &AuthService{
		accounts:       accounts,
		tm:             tm,
		hasher:         hasher,
		tracker:        tracker,
		creationDigest: creationDigest,
		logger:         logger,
		auditLogger:    auditLogger,
	}
}

// AdminResponse represents an admin account in HTTP responses. The password
// digest never leaves the service layer.
type AdminResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// NewAdminResponse converts an account to its response form.
func NewAdminResponse(admin *models.AdminAccount) *AdminResponse {
	return &AdminResponse{
		ID:        admin.ID,
		Username:  admin.Username,
		Email:     admin.Email,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// digestOf normalizes a submitted password to its digest form. Clients are
// expected to hash before sending; a plaintext fallback keeps direct API use
// working.
func (s *AuthService) digestOf(password string) string {
	if pkgauth.IsDigest(password) {
		return password
	}
	return s.hasher.Digest(password)
}

// Login authenticates an admin and returns a signed access token. Every
// failure mode after the lockout check looks identical to the caller so
// usernames cannot be probed.
func (s *AuthService) Login(ctx context.Context, username, password, clientAddr string) (*LoginResponse, error) {
	username = strings.TrimSpace(username)

	if s.tracker.Blocked(clientAddr) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			ClientAddr:    clientAddr,
			FailureReason: "too_many_failures",
			Success:       false,
		})
		return nil, models.ErrTooManyAttempts
	}

	admin, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.failLogin(clientAddr, "invalid_credentials")
		}
		// Unexpected store errors count as failed attempts too: the caller
		// sees the same uniform failure either way.
		s.logger.Error("failed to look up admin account", slog.Any("error", err))
		return nil, s.failLogin(clientAddr, "internal_error")
	}

	if !admin.IsActive {
		return nil, s.failLogin(clientAddr, "account_inactive")
	}

	if !pkgauth.Equal(s.digestOf(password), admin.PasswordDigest) {
		return nil, s.failLogin(clientAddr, "invalid_credentials")
	}

	token, err := s.tm.Issue(admin.Username, clientAddr)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.Any("error", err))
		return nil, s.failLogin(clientAddr, "internal_error")
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:  "login_success",
		Username:   admin.Username,
		ClientAddr: clientAddr,
		Success:    true,
	})

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

func (s *AuthService) failLogin(clientAddr, reason string) error {
	s.tracker.RecordFailure(clientAddr)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		ClientAddr:    clientAddr,
		FailureReason: reason,
		Success:       false,
	})
	return models.ErrAuthenticationFailed
}

// CreateAdminParams carries the fields for a new admin account.
type CreateAdminParams struct {
	Username string
	Email    string
	Password string
}

// CreateAdmin creates an admin account on behalf of an already authenticated
// admin.
func (s *AuthService) CreateAdmin(ctx context.Context, params CreateAdminParams, createdBy, clientAddr string) (*AdminResponse, error) {
	admin, err := s.createAdmin(ctx, params)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAccountAction("admin_created", admin.Username, clientAddr)
	s.logger.Info("admin account created",
		slog.String("username", admin.Username),
		slog.String("created_by", createdBy))

	return NewAdminResponse(admin), nil
}

// CreateAdminWithPassword creates an admin account authorized by the shared
// creation password instead of a bearer token. confirmPassword must match
// the account password exactly as submitted.
func (s *AuthService) CreateAdminWithPassword(ctx context.Context, params CreateAdminParams, confirmPassword, creationPassword, clientAddr string) (*AdminResponse, error) {
	if s.creationDigest == "" {
		s.logger.Warn("admin creation password not configured; rejecting request")
		return nil, models.ErrAuthenticationFailed
	}

	if !pkgauth.Equal(s.digestOf(creationPassword), s.creationDigest) {
		s.auditLogger.LogAccountAction("admin_creation_denied", params.Username, clientAddr)
		return nil, models.ErrAuthenticationFailed
	}

	if params.Password != confirmPassword {
		return nil, models.ErrPasswordMismatch
	}

	admin, err := s.createAdmin(ctx, params)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAccountAction("admin_created", admin.Username, clientAddr)

	return NewAdminResponse(admin), nil
}

func (s *AuthService) createAdmin(ctx context.Context, params CreateAdminParams) (*models.AdminAccount, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		return nil, models.ErrDuplicateAccount
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username uniqueness", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrDuplicateAccount
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email uniqueness", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	admin, err := s.accounts.Create(ctx, &models.AdminAccount{
		Username:       username,
		Email:          email,
		PasswordDigest: s.digestOf(params.Password),
	})
	if err != nil {
		// The unique indexes close the race the pre-checks leave open.
		if errors.Is(err, models.ErrDuplicateAccount) {
			return nil, models.ErrDuplicateAccount
		}
		s.logger.Error("failed to create admin account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return admin, nil
}
