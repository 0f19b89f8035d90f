package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"wagerly/models"
	"wagerly/service"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader     = "X-Request-ID"
	paymentSecretHeader = "X-Payment-Secret"
)

type contextKey string

const actorKey contextKey = "actor"

// Claims are the bearer token claims issued by the identity provider
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ActorFromContext returns the authenticated caller placed by the auth middleware
func ActorFromContext(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(service.Actor)
	return actor, ok
}

func withActor(ctx context.Context, actor service.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// requestID reuses the caller's X-Request-ID or generates one, and stores it
// where chi's middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog writes one structured line per request
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		fields := log.Fields{
			"requestID": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start).String(),
			"remote":    r.RemoteAddr,
		}
		if actor, ok := ActorFromContext(r.Context()); ok {
			fields["userID"] = actor.UserID
		}
		entry := log.WithFields(fields)
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Info("HTTP request")
	})
}

// authenticator verifies HS256 bearer tokens
type authenticator struct {
	secret []byte
}

func (a *authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "Missing Authorization header.")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(w, "Invalid Authorization header format.")
			return
		}

		claims, err := a.parse(parts[1])
		if err != nil {
			log.WithFields(log.Fields{
				"requestID": middleware.GetReqID(r.Context()),
				"error":     err,
			}).Warn("Token validation failed")
			unauthorized(w, "Invalid or expired token.")
			return
		}

		actor := service.Actor{UserID: claims.UserID, Role: models.RoleUser}
		if claims.Role == string(models.RoleAdmin) {
			actor.Role = models.RoleAdmin
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (a *authenticator) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondFailure(w, http.StatusUnauthorized, service.KindForbidden, message)
}

// requireAdmin rejects non-admin actors
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.IsAdmin() {
			respondFailure(w, http.StatusForbidden, service.KindForbidden, "Admin access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// paymentSecret guards the payment gateway callbacks with a shared secret header
func paymentSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get(paymentSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
				log.WithFields(log.Fields{
					"requestID": middleware.GetReqID(r.Context()),
					"remote":    r.RemoteAddr,
				}).Warn("Rejected payment callback with bad secret")
				unauthorized(w, "Invalid payment secret.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	limiterCleanupInterval = time.Minute
	limiterIdleTTL         = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per authenticated user
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	rate     rate.Limit
	burst    int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops buckets not used since cutoff and returns how many were removed
func (rl *rateLimiter) Cleanup(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, v := range rl.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// StartCleanup prunes idle buckets every interval until ctx is done
func (rl *rateLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := rl.Cleanup(now.Add(-idle)); removed > 0 {
					log.WithField("removed", removed).Debug("Pruned idle rate limiters")
				}
			}
		}
	}()
}

func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if actor, ok := ActorFromContext(r.Context()); ok {
			key = "user-" + strconv.FormatInt(actor.UserID, 10)
		}

		if !rl.limiter(key).Allow() {
			log.WithFields(log.Fields{
				"key":  key,
				"path": r.URL.Path,
			}).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			respondFailure(w, http.StatusTooManyRequests, service.KindValidation, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
