package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/avercroft/kennelgate/internal/auth"
	"github.com/avercroft/kennelgate/internal/handlers"
	"github.com/avercroft/kennelgate/internal/repositories"
	"github.com/avercroft/kennelgate/internal/routes"
	"github.com/avercroft/kennelgate/internal/services"
	"github.com/avercroft/kennelgate/internal/throttle"
	pkgauth "github.com/avercroft/kennelgate/pkg/auth"
	pkghttp "github.com/avercroft/kennelgate/pkg/http"
	pkglogger "github.com/avercroft/kennelgate/pkg/logger"
)

const (
	// TestSalt is the process salt used by integration tests.
	TestSalt = "integration-test-salt"

	// TestJWTSecret signs tokens in integration tests.
	TestJWTSecret = "integration-test-jwt-secret"

	// TestCreationPassword authorizes token-less admin creation in tests.
	TestCreationPassword = "integration-creation-password"
)

// SentCode is a captured reset code delivery.
type SentCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// CapturingEmailSender records reset codes for test assertions.
type CapturingEmailSender struct {
	mu   sync.Mutex
	Sent []SentCode
}

func (c *CapturingEmailSender) SendResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Sent = append(c.Sent, SentCode{Email: email, Code: code, ExpiresAt: expiresAt})
	return nil
}

// LastCode returns the most recently captured code, or nil.
func (c *CapturingEmailSender) LastCode() *SentCode {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Sent) == 0 {
		return nil
	}
	last := c.Sent[len(c.Sent)-1]
	return &last
}

// TestServer wires the full HTTP stack against a TestDB.
type TestServer struct {
	Server  *httptest.Server
	Emails  *CapturingEmailSender
	Hasher  *pkgauth.Hasher
	Tracker *throttle.MemoryLoginTracker
}

// NewTestServer builds the router the way main does, with an in-memory
// throttle and a capturing email sender.
func NewTestServer(db *TestDB) *TestServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLogger := pkglogger.NewAuditLogger(logger)

	adminRepo := repositories.NewAdminRepository(db.DB)
	codeRepo := repositories.NewResetCodeRepository(db.DB)
	attemptRepo := repositories.NewResetAttemptRepository(db.DB)

	limiter := throttle.NewMemoryLimiter(throttle.Limits{
		Login:  throttle.Limit{Window: 5 * time.Minute, Max: 100},
		Admin:  throttle.Limit{Window: time.Minute, Max: 100},
		Public: throttle.Limit{Window: time.Minute, Max: 1000},
	})
	_ = limiter
	tracker := throttle.NewMemoryLoginTracker(throttle.LockoutConfig{
		Retention: time.Hour,
		Window:    15 * time.Minute,
		Threshold: 10,
	})

	tokenManager := auth.NewTokenManager(TestJWTSecret, 30*time.Minute)
	hasher := pkgauth.NewHasher(TestSalt)
	emails := &CapturingEmailSender{}

	authService := services.NewAuthService(
		adminRepo, tokenManager, hasher, tracker,
		TestCreationPassword, logger, auditLogger,
	)
	resetService := services.NewResetService(
		adminRepo, codeRepo, attemptRepo, db.DB,
		emails, hasher, logger, auditLogger,
	)

	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, resetService, ipConfig)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	routes.RegisterRoutes(router, authHandler, tokenManager, adminRepo)

	return &TestServer{
		Server:  httptest.NewServer(router),
		Emails:  emails,
		Hasher:  hasher,
		Tracker: tracker,
	}
}

// Close shuts the test server down.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// PostJSON sends a JSON POST and decodes the response body into out when it
// is non-nil.
func (ts *TestServer) PostJSON(path string, body any, out any) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(ts.Server.URL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return resp, nil
}

// PostJSONWithToken sends a JSON POST with a bearer token and decodes the
// response body into out when it is non-nil.
func (ts *TestServer) PostJSONWithToken(path, token string, body any, out any) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return resp, nil
}

// GetWithToken sends a GET with a bearer token and decodes the response.
func (ts *TestServer) GetWithToken(path, token string, out any) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return resp, nil
}
