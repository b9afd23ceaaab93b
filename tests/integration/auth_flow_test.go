package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/avercroft/kennelgate/internal/handlers"
	"github.com/avercroft/kennelgate/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSuite(t *testing.T) (*TestDB, *TestServer) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Teardown(context.Background())
	})

	ts := NewTestServer(db)
	t.Cleanup(ts.Close)

	return db, ts
}

func TestLoginFlow(t *testing.T) {
	db, ts := setupSuite(t)
	ctx := context.Background()

	digest := ts.Hasher.Digest("kennel-password-1")
	_, err := SeedAdmin(ctx, db.Pool, "breeder", "breeder@example.com", digest)
	require.NoError(t, err)

	t.Run("valid credentials issue a usable token", func(t *testing.T) {
		var login services.LoginResponse
		resp, err := ts.PostJSON("/auth/login", handlers.LoginRequest{
			Username: "breeder",
			Password: "kennel-password-1",
		}, &login)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "bearer", login.TokenType)

		var me services.AdminResponse
		resp, err = ts.GetWithToken("/auth/me", login.AccessToken, &me)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "breeder", me.Username)
		assert.Equal(t, "breeder@example.com", me.Email)
	})

	t.Run("username lookup is case-insensitive", func(t *testing.T) {
		resp, err := ts.PostJSON("/auth/login", handlers.LoginRequest{
			Username: "BREEDER",
			Password: "kennel-password-1",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("pre-digested password is accepted", func(t *testing.T) {
		resp, err := ts.PostJSON("/auth/login", handlers.LoginRequest{
			Username: "breeder",
			Password: digest,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp, err := ts.PostJSON("/auth/login", handlers.LoginRequest{
			Username: "breeder",
			Password: "wrong-password",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me without token is rejected", func(t *testing.T) {
		resp, err := ts.GetWithToken("/auth/me", "", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	db, ts := setupSuite(t)
	ctx := context.Background()

	digest := ts.Hasher.Digest("old-password-1")
	_, err := SeedAdmin(ctx, db.Pool, "resetter", "resetter@example.com", digest)
	require.NoError(t, err)

	// Request a code
	var msg handlers.MessageResponse
	resp, err := ts.PostJSON("/auth/forgot-password", handlers.PasswordResetRequest{
		Email: "resetter@example.com",
	}, &msg)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sent := ts.Emails.LastCode()
	require.NotNil(t, sent, "a code should have been delivered")
	require.Len(t, sent.Code, 6)

	// Redeem it
	resp, err = ts.PostJSON("/auth/reset-password", handlers.PasswordResetConfirm{
		Email:       "resetter@example.com",
		ResetCode:   sent.Code,
		NewPassword: "new-password-1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password no longer works, new one does
	resp, err = ts.PostJSON("/auth/login", handlers.LoginRequest{
		Username: "resetter",
		Password: "old-password-1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = ts.PostJSON("/auth/login", handlers.LoginRequest{
		Username: "resetter",
		Password: "new-password-1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The code is one-time
	resp, err = ts.PostJSON("/auth/reset-password", handlers.PasswordResetConfirm{
		Email:       "resetter@example.com",
		ResetCode:   sent.Code,
		NewPassword: "another-password-1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPasswordResetRejectsExpiredCode(t *testing.T) {
	db, ts := setupSuite(t)
	ctx := context.Background()

	digest := ts.Hasher.Digest("old-password-1")
	_, err := SeedAdmin(ctx, db.Pool, "expired", "expired@example.com", digest)
	require.NoError(t, err)

	require.NoError(t, SeedExpiredResetCode(ctx, db.Pool, "expired@example.com", "123456"))

	resp, err := ts.PostJSON("/auth/reset-password", handlers.PasswordResetConfirm{
		Email:       "expired@example.com",
		ResetCode:   "123456",
		NewPassword: "new-password-1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPasswordResetUnknownEmailLooksLikeSuccess(t *testing.T) {
	_, ts := setupSuite(t)

	var msg handlers.MessageResponse
	resp, err := ts.PostJSON("/auth/forgot-password", handlers.PasswordResetRequest{
		Email: "unknown@example.com",
	}, &msg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, ts.Emails.LastCode(), "no code should be delivered for unknown emails")
}

func TestAdminCreationFlow(t *testing.T) {
	db, ts := setupSuite(t)
	ctx := context.Background()

	t.Run("creation password path", func(t *testing.T) {
		var created services.AdminResponse
		resp, err := ts.PostJSON("/auth/admin/create-account", handlers.AdminCreationRequest{
			Username:        "firstadmin",
			Email:           "first@example.com",
			Password:        "first-password-1",
			ConfirmPassword: "first-password-1",
			AdminPassword:   TestCreationPassword,
		}, &created)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "firstadmin", created.Username)

		// The new account can log in
		resp, err = ts.PostJSON("/auth/login", handlers.LoginRequest{
			Username: "firstadmin",
			Password: "first-password-1",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong creation password is rejected", func(t *testing.T) {
		resp, err := ts.PostJSON("/auth/admin/create-account", handlers.AdminCreationRequest{
			Username:        "intruder",
			Email:           "intruder@example.com",
			Password:        "whatever-password",
			ConfirmPassword: "whatever-password",
			AdminPassword:   "not-the-password",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token path", func(t *testing.T) {
		digest := ts.Hasher.Digest("seed-password-1")
		_, err := SeedAdmin(ctx, db.Pool, "seedadmin", "seed@example.com", digest)
		require.NoError(t, err)

		var login services.LoginResponse
		resp, err := ts.PostJSON("/auth/login", handlers.LoginRequest{
			Username: "seedadmin",
			Password: "seed-password-1",
		}, &login)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var created services.AdminResponse
		resp2, err := ts.PostJSONWithToken("/auth/admin/create", login.AccessToken, handlers.AdminCreateRequest{
			Username: "secondadmin",
			Email:    "second@example.com",
			Password: "second-password-1",
		}, &created)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp2.StatusCode)
		assert.Equal(t, "secondadmin", created.Username)
	})

	t.Run("duplicate username is rejected case-insensitively", func(t *testing.T) {
		resp, err := ts.PostJSON("/auth/admin/create-account", handlers.AdminCreationRequest{
			Username:        "FIRSTADMIN",
			Email:           "other@example.com",
			Password:        "other-password-1",
			ConfirmPassword: "other-password-1",
			AdminPassword:   TestCreationPassword,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
