package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avercroft/kennelgate/internal/auth"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/avercroft/kennelgate/internal/services"
	pkghttp "github.com/avercroft/kennelgate/pkg/http"
)

// resetRequestMessage is returned for every reset request, registered email
// or not.
const resetRequestMessage = "If that email address is registered, a reset code has been sent."

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password, clientAddr string) (*services.LoginResponse, error)
	CreateAdmin(ctx context.Context, params services.CreateAdminParams, createdBy, clientAddr string) (*services.AdminResponse, error)
	CreateAdminWithPassword(ctx context.Context, params services.CreateAdminParams, confirmPassword, creationPassword, clientAddr string) (*services.AdminResponse, error)
}

// ResetServiceInterface defines the interface for the password reset flow
type ResetServiceInterface interface {
	RequestCode(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, email, code, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	reset    ResetServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, reset ResetServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		reset:    reset,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest represents the request body for requesting a reset code
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm represents the request body for redeeming a reset code
type PasswordResetConfirm struct {
	Email       string `json:"email" validate:"required,email"`
	ResetCode   string `json:"reset_code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// AdminCreateRequest represents the request body for token-authorized admin
// creation
type AdminCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AdminCreationRequest represents the request body for creation-password
// authorized admin creation
type AdminCreationRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	AdminPassword   string `json:"admin_password" validate:"required"`
}

// MessageResponse is a plain informational response body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Login handles admin login and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientAddr := pkghttp.ExtractClientIP(r, h.ipConfig)

	resp, err := h.service.Login(r.Context(), req.Username, req.Password, clientAddr)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTooManyAttempts):
			pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.")
		case errors.Is(err, models.ErrAuthenticationFailed):
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Me returns the authenticated admin's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.AdminFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.NewAdminResponse(admin))
}

// ForgotPassword issues a reset code. The response body is identical whether
// or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.reset.RequestCode(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrRateLimited):
			pkghttp.WriteTooManyRequests(w, "Too many reset requests. Please try again later.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: resetRequestMessage})
}

// ResetPassword redeems a reset code and sets a new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.reset.ConfirmReset(r.Context(), req.Email, req.ResetCode, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrRateLimited):
			pkghttp.WriteTooManyRequests(w, "Too many attempts. Please try again later.")
		case errors.Is(err, models.ErrInvalidOrExpiredCode):
			pkghttp.WriteBadRequest(w, "Invalid or expired reset code")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset."})
}

// CreateAdmin creates a new admin account on behalf of an authenticated one.
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.AdminFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req AdminCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientAddr := pkghttp.ExtractClientIP(r, h.ipConfig)

	resp, err := h.service.CreateAdmin(r.Context(), services.CreateAdminParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, admin.Username, clientAddr)
	if err != nil {
		writeCreateError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

// CreateAccount creates a new admin account authorized by the shared
// creation password instead of a bearer token.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AdminCreationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientAddr := pkghttp.ExtractClientIP(r, h.ipConfig)

	resp, err := h.service.CreateAdminWithPassword(r.Context(), services.CreateAdminParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, req.ConfirmPassword, req.AdminPassword, clientAddr)
	if err != nil {
		writeCreateError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

func writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAuthenticationFailed):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrPasswordMismatch):
		pkghttp.WriteBadRequest(w, "Password and confirmation do not match")
	case errors.Is(err, models.ErrDuplicateAccount):
		pkghttp.WriteBadRequest(w, "Username or email already exists")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
