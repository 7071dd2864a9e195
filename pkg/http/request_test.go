package http_test

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/anonchat/anonchat/pkg/http"
	"github.com/stretchr/testify/assert"
)

func requestFrom(remoteAddr string, headers map[string]string) *nethttp.Request {
	req := httptest.NewRequest(nethttp.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestExtractClientIP_DirectConnection(t *testing.T) {
	req := requestFrom("203.0.113.7:54321", nil)

	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, &pkghttp.IPConfig{}))
}

func TestExtractClientIP_IgnoresHeadersFromUntrustedPeers(t *testing.T) {
	req := requestFrom("203.0.113.7:54321", map[string]string{
		"X-Forwarded-For": "10.0.0.99",
		"X-Real-IP":       "10.0.0.99",
	})

	config := &pkghttp.IPConfig{TrustedProxies: []string{"192.168.0.0/16"}}
	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, config),
		"forwarding headers from outside the trusted ranges are spoofable")
}

func TestExtractClientIP_HonorsForwardedForFromTrustedProxy(t *testing.T) {
	req := requestFrom("192.168.1.10:443", map[string]string{
		"X-Forwarded-For": "203.0.113.7, 192.168.1.10",
	})

	config := &pkghttp.IPConfig{TrustedProxies: []string{"192.168.0.0/16"}}
	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_FallsBackToRealIP(t *testing.T) {
	req := requestFrom("192.168.1.10:443", map[string]string{
		"X-Real-IP": "203.0.113.7",
	})

	config := &pkghttp.IPConfig{TrustedProxies: []string{"192.168.0.0/16"}}
	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_SkipsGarbageForwardedEntries(t *testing.T) {
	req := requestFrom("192.168.1.10:443", map[string]string{
		"X-Forwarded-For": "not-an-ip, 203.0.113.7",
	})

	config := &pkghttp.IPConfig{TrustedProxies: []string{"192.168.0.0/16"}}
	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_NilConfig(t *testing.T) {
	req := requestFrom("203.0.113.7:54321", map[string]string{
		"X-Forwarded-For": "10.0.0.99",
	})

	assert.Equal(t, "203.0.113.7", pkghttp.ExtractClientIP(req, nil))
}
