package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/avercroft/kennelgate/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestExtractClientIPFromRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	ip := pkghttp.ExtractClientIP(r, nil)

	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIPIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")

	ip := pkghttp.ExtractClientIP(r, &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIPHonorsForwardedForFromTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.1.2.3")

	ip := pkghttp.ExtractClientIP(r, &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.1", ip)
}

func TestExtractClientIPFallsBackToRealIPHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Real-IP", "198.51.100.2")

	ip := pkghttp.ExtractClientIP(r, &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.2", ip)
}

func TestExtractClientIPSkipsInvalidForwardedEntries(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.3")

	ip := pkghttp.ExtractClientIP(r, &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.3", ip)
}
