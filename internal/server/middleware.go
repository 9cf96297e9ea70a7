package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	obscontext "github.com/ClemmensSES/SESSalesResources/internal/observability/context"
	"github.com/ClemmensSES/SESSalesResources/internal/permission"
)

const (
	headerAPIKey   = "x-api-key"
	contextRoleKey = "actor_role"
)

// APIKeyRequired authenticates requests against the static key list.
// Membership is a separate gate ahead of authorization: a known key
// with an unknown role still authenticates, it just fails every
// permission check afterwards.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(headerAPIKey))
		if key == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, ok := s.keyring.RoleFor(key)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextRoleKey, role)
		ctx := obscontext.WithActorRole(c.Request.Context(), role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize checks the permission table for the (role, document,
// operation) triple derived from the route and method.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		filename := strings.TrimSpace(c.Param("filename"))
		if filename == "" {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		op := permission.OperationForMethod(c.Request.Method)
		role := c.GetString(contextRoleKey)
		if !s.table.IsAllowed(role, filename, op) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireRole admits only the given role. Unlike Authorize it is not
// tied to a document, so it gates routes outside the data surface.
func (s *Server) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(contextRoleKey) != role {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// MutationRateLimit caps write/delete requests per key. Reads pass
// through without touching the budget. Disabled when
// the configured limit is zero.
func (s *Server) MutationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.mutationLimiter == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(headerAPIKey))
		if !s.mutationLimiter.allow(key) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// rateLimiter is a small in-memory sliding window, per key. The
// gateway is single-instance so no shared backend is needed.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	hits   map[string][]time.Time
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	if limit <= 0 {
		return nil
	}
	return &rateLimiter{
		limit:  limit,
		window: window,
		now:    now,
		hits:   map[string][]time.Time{},
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}
