package auth_test

import (
	"testing"
	"time"

	"github.com/avercroft/kennelgate/internal/auth"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!"

func TestIssueAndValidate(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 30*time.Minute)

	token, err := tm.Issue("admin", "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "203.0.113.7", claims.ClientAddr)
	assert.Equal(t, models.PurposeAdminAccess, claims.Purpose)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, -1*time.Minute)

	token, err := tm.Issue("admin", "203.0.113.7")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 30*time.Minute)
	other := auth.NewTokenManager("another-secret-32-characters!!!", 30*time.Minute)

	token, err := tm.Issue("admin", "203.0.113.7")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestValidateRejectsMalformedToken(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 30*time.Minute)

	_, err := tm.Validate("not-a-token")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestValidateRejectsMissingSubject(t *testing.T) {
	claims := &models.TokenClaims{
		Purpose: models.PurposeAdminAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tm := auth.NewTokenManager(testSecret, 30*time.Minute)
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestValidateRejectsWrongPurpose(t *testing.T) {
	claims := &models.TokenClaims{
		Purpose: "something_else",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tm := auth.NewTokenManager(testSecret, 30*time.Minute)
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestValidateRejectsNonHMACSigning(t *testing.T) {
	// alg=none style tokens must never validate
	claims := &models.TokenClaims{
		Purpose: models.PurposeAdminAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tm := auth.NewTokenManager(testSecret, 30*time.Minute)
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
