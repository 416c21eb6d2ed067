package api

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(l *LoginLimiter) http.Handler {
	return l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func loginFrom(h http.Handler, remote, forwarded string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestLoginLimiterIgnoresForwardedFromUntrustedPeer(t *testing.T) {
	h := limitedHandler(NewLoginLimiter(2, nil))

	assert.Equal(t, http.StatusNoContent, loginFrom(h, "203.0.113.9:5000", "198.51.100.1"))
	assert.Equal(t, http.StatusNoContent, loginFrom(h, "203.0.113.9:5001", "198.51.100.2"))
	// a new header value does not buy a new bucket
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(h, "203.0.113.9:5002", "198.51.100.3"))
}

func TestLoginLimiterReadsForwardedBehindTrustedProxy(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	l := NewLoginLimiter(1, []*net.IPNet{proxies})
	h := limitedHandler(l)

	assert.Equal(t, http.StatusNoContent, loginFrom(h, "10.0.0.5:443", "198.51.100.1, 10.0.0.9"))
	assert.Equal(t, http.StatusNoContent, loginFrom(h, "10.0.0.5:443", "198.51.100.2"))
	// the client can prepend anything; the proxy's own hop is what counts
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(h, "10.0.0.5:443", "192.0.2.50, 198.51.100.1"))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.5:443"
	assert.Equal(t, "10.0.0.5", l.clientIP(req))
}

func TestLoginLimiterEvictsIdleAddresses(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(5, nil)
	l.now = func() time.Time { return now }

	l.get("198.51.100.1")
	l.get("198.51.100.2")
	assert.Equal(t, 2, l.size())

	now = now.Add(limiterIdle / 2)
	l.get("198.51.100.2")

	now = now.Add(limiterIdle)
	l.get("198.51.100.3")
	assert.Equal(t, 1, l.size())
}
