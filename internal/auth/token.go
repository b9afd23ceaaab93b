package auth

import (
	"fmt"
	"time"

	"github.com/avercroft/kennelgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and validates the signed bearer tokens used for admin
// access. Tokens are self-contained: validity is signature plus expiry, and
// there is no revocation list. The auth facade re-resolves the account on
// every authorized call, so a deactivated admin loses access at the next
// request even while holding an unexpired token.
type TokenManager struct {
	secret      string
	tokenExpiry time.Duration
}

// NewTokenManager creates a TokenManager signing with the process-wide secret.
func NewTokenManager(secret string, tokenExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:      secret,
		tokenExpiry: tokenExpiry,
	}
}

// Issue creates a signed admin-access token for the given username,
// recording the client address it was issued to.
func (tm *TokenManager) Issue(username, clientAddr string) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		Purpose:    models.PurposeAdminAccess,
		ClientAddr: clientAddr,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a token string and returns its claims. Bad signature,
// malformed payload, missing subject, wrong purpose and past expiry all
// collapse into ErrInvalidToken; account existence is not checked here.
func (tm *TokenManager) Validate(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, models.ErrInvalidToken
	}

	if claims.Purpose != models.PurposeAdminAccess {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}
