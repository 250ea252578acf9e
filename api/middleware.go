package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ByGamer01/DamnBruh/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// identityFromContext returns the verified identity stored by the auth
// middleware, nil on unauthenticated requests
func identityFromContext(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityContextKey).(*auth.Identity)
	return identity
}

// bearerToken extracts the token from an Authorization header, empty
// string when the header is absent or malformed
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// TokenVerifier validates bearer tokens for the middleware chain
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// requireAuth rejects requests without a valid bearer token and stores
// the verified identity in the request context
func requireAuth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// optionalAuth stores the identity when a valid bearer token is present
// and passes the request through otherwise
func optionalAuth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" {
				if identity, err := verifier.Verify(r.Context(), token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware answers preflight requests and tags responses for the
// configured origin. The wildcard origin is not used because requests
// carry credentials.
func corsMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// recoveryMiddleware converts handler panics into 500 responses
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.WithFields(logrus.Fields{
					"panic":  rec,
					"method": r.Method,
					"path":   r.URL.Path,
				}).Error("Handler panicked")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with its duration
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}

// RateLimiterConfig holds the per-user request budgets
type RateLimiterConfig struct {
	// GeneralPerMinute bounds all authenticated API requests
	GeneralPerMinute int
	// BetsPerMinute bounds game joins separately
	BetsPerMinute int
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces per-user request budgets. Two independent budgets
// exist: one for the API in general and a tighter one for game joins.
type RateLimiter struct {
	cfg RateLimiterConfig

	mu       sync.Mutex
	general  map[string]*userLimiter
	betting  map[string]*userLimiter
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:     cfg,
		general: make(map[string]*userLimiter),
		betting: make(map[string]*userLimiter),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup(10 * time.Minute)
		}
	}
}

// cleanup drops limiters idle longer than maxIdle
func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, ul := range rl.general {
		if ul.lastAccess.Before(cutoff) {
			delete(rl.general, key)
		}
	}
	for key, ul := range rl.betting {
		if ul.lastAccess.Before(cutoff) {
			delete(rl.betting, key)
		}
	}
}

func (rl *RateLimiter) take(limiters map[string]*userLimiter, key string, perMinute int) bool {
	rl.mu.Lock()
	ul, ok := limiters[key]
	if !ok {
		ul = &userLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		}
		limiters[key] = ul
	}
	ul.lastAccess = time.Now()
	rl.mu.Unlock()

	return ul.limiter.Allow()
}

// GeneralMiddleware applies the general per-user budget. It must run
// after the auth middleware so the identity is available.
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, rl.cfg.GeneralPerMinute, "general")
}

// BettingMiddleware applies the tighter per-user budget for game joins
func (rl *RateLimiter) BettingMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.betting, rl.cfg.BetsPerMinute, "betting")
}

func (rl *RateLimiter) middleware(limiters map[string]*userLimiter, perMinute int, limitType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromContext(r.Context())
			if identity == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !rl.take(limiters, identity.PrivyUserID, perMinute) {
				logrus.WithFields(logrus.Fields{
					"privyUserId": identity.PrivyUserID,
					"limitType":   limitType,
				}).Warn("Rate limit exceeded")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
