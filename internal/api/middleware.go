package api

import (
	"net"
	"net/http"
	apperrors "puntoazul/internal/errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdle is how long an address keeps its bucket without requests. A
// bucket idle this long has refilled, so dropping it changes nothing.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter holds one token bucket per client IP.
type LoginLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMin    int
	trusted   []*net.IPNet
	lastSweep time.Time
	now       func() time.Time
}

// NewLoginLimiter allows perMin logins a minute per address. X-Forwarded-For is
// only read when the connection comes from one of trusted.
func NewLoginLimiter(perMin int, trusted []*net.IPNet) *LoginLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	return &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		perMin:   perMin,
		trusted:  trusted,
		now:      time.Now,
	}
}

func (l *LoginLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdle {
		for key, e := range l.limiters {
			if now.Sub(e.lastSeen) >= limiterIdle {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *LoginLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		if !l.get(ip).AllowN(l.now(), 1) {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip))
			apperrors.Write(w, apperrors.ErrRateLimited("too many login attempts, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) isTrusted(ip net.IP) bool {
	for _, n := range l.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP is the socket address, unless that is a trusted proxy. Then it is
// the right-most X-Forwarded-For hop that is not itself a trusted proxy.
func (l *LoginLimiter) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	remote := net.ParseIP(host)
	if remote == nil || !l.isTrusted(remote) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := net.ParseIP(strings.TrimSpace(hops[i]))
		if hop == nil {
			break
		}
		if !l.isTrusted(hop) {
			return hop.String()
		}
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs method, path, status and latency of every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Info("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}
