package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, x-api-key, X-Request-Id"
)

// CORSMiddleware stamps CORS headers on every response and answers
// preflight requests with 204 before any auth check runs.
func (s *Server) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.allowOrigin(c.GetHeader("Origin")))
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// allowOrigin echoes the request origin when allow-listed, otherwise
// falls back to the first configured origin, or "*" when none are
// configured.
func (s *Server) allowOrigin(origin string) string {
	allowed := s.origins.Get()
	origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
	if origin != "" {
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return origin
			}
		}
	}
	if len(allowed) > 0 {
		return allowed[0]
	}
	return "*"
}
