package middleware

import (
	"net/http"
	"strings"

	"github.com/avercroft/kennelgate/internal/throttle"
	pkghttp "github.com/avercroft/kennelgate/pkg/http"
)

// ClassifyPath maps a request path onto a throttle class. Credential
// endpoints get the strictest window, admin mutation endpoints a moderate
// one, and everything else (including unmatched paths) counts as public.
func ClassifyPath(path string) throttle.Class {
	switch {
	case strings.Contains(path, "/auth/login"):
		return throttle.ClassLogin
	case strings.HasPrefix(path, "/auth/admin") || strings.HasPrefix(path, "/admin"):
		return throttle.ClassAdmin
	default:
		return throttle.ClassPublic
	}
}

// RateLimit returns a middleware that gates every request through the
// per-address sliding-window tracker. Exceeding a class limit yields 429,
// never a server error.
func RateLimit(limiter throttle.Limiter, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := pkghttp.ExtractClientIP(r, ipConfig)

			if !limiter.Admit(addr, ClassifyPath(r.URL.Path)) {
				pkghttp.WriteTooManyRequests(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
