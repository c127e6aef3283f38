package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/eduif/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Forwarding headers must only be believed from configured proxies, otherwise
// any client could write an arbitrary address into the audit trail.

func mustIPConfig(t *testing.T, cidrs ...string) *pkghttp.IPConfig {
	t.Helper()
	cfg, invalid := pkghttp.NewIPConfig(cidrs)
	require.Empty(t, invalid)
	return cfg
}

func TestExtractClientIP_DirectConnection_IgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("X-Real-IP", "192.168.1.1")

	cfg := mustIPConfig(t, "10.0.0.0/8", "172.16.0.0/12", "127.0.0.1/32")

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_TrustedProxy_UsesXForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.42, 10.0.0.5")
	req.Header.Set("X-Real-IP", "203.0.113.99")

	cfg := mustIPConfig(t, "10.0.0.0/8")

	assert.Equal(t, "203.0.113.42", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_TrustedProxy_IgnoresClientSuppliedHops(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	// Client sent "X-Forwarded-For: 198.51.100.1"; the proxy appended the real peer
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.42")

	cfg := mustIPConfig(t, "10.0.0.0/8")

	assert.Equal(t, "203.0.113.42", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_TrustedProxy_SkipsProxyChain(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.42, 10.0.0.9, 10.0.0.7")

	cfg := mustIPConfig(t, "10.0.0.0/8")

	assert.Equal(t, "203.0.113.42", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_TrustedProxy_FallsBackToXRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "garbage, also-garbage")
	req.Header.Set("X-Real-IP", "203.0.113.99")

	cfg := mustIPConfig(t, "10.0.0.0/8")

	assert.Equal(t, "203.0.113.99", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_IPv6_TrustedProxy(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[::1]:54321"
	req.Header.Set("X-Forwarded-For", "2001:db8::1")

	cfg := mustIPConfig(t, "::1/128", "2001:db8::/32")

	assert.Equal(t, "2001:db8::1", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_BareAddressIsTrusted(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")

	cfg := mustIPConfig(t, "127.0.0.1")

	assert.Equal(t, "198.51.100.7", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_NoConfig_DefaultsSecurely(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, nil))
	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, &pkghttp.IPConfig{}))
}

func TestNewIPConfig_ReportsInvalidEntries(t *testing.T) {
	cfg, invalid := pkghttp.NewIPConfig([]string{"invalid-cidr-range", " ", "10.0.0.0/8", "also-invalid"})

	assert.Equal(t, []string{"invalid-cidr-range", "also-invalid"}, invalid)
	assert.Len(t, cfg.TrustedProxies, 1)
}

func TestExtractClientIP_LocalhostBypass_Prevention(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "127.0.0.1, 203.0.113.10")

	cfg := mustIPConfig(t, "10.0.0.0/8")

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_MissingRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = ""

	assert.Equal(t, pkghttp.UnknownIP, pkghttp.ExtractClientIP(req, nil))
}
