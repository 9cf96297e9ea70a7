package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/ClemmensSES/SESSalesResources/internal/audit/domain"
)

// ListAuditLogs returns recent audit entries, newest first. Filters
// come from query parameters; the repository caps the page size.
func (s *Server) ListAuditLogs(c *gin.Context) {
	filter := auditdomain.ListFilter{
		Actor:    strings.TrimSpace(c.Query("actor")),
		Action:   strings.TrimSpace(c.Query("action")),
		Document: strings.TrimSpace(c.Query("document")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, fmt.Errorf("%w: limit must be a non-negative integer", ErrInvalidRequest))
			return
		}
		filter.Limit = limit
	}

	logs, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
