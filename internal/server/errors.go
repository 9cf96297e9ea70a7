package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	docdomain "github.com/ClemmensSES/SESSalesResources/internal/document/domain"
)

// errorResponse is the wire shape for every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrNotFound        = errors.New("not_found")
	ErrTooManyRequests = errors.New("rate_limited")
)

// ErrorHandlingMiddleware converts the last gin error into the JSON
// error envelope. Handlers report failures through AbortWithError and
// never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{
			Error:   "unauthorized",
			Message: "missing or invalid api key",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: "role is not allowed to perform this operation",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, docdomain.ErrNotArray):
		return http.StatusBadRequest, errorResponse{
			Error:   "validation_error",
			Message: "record operations require an array document",
		}
	case errors.Is(err, ErrNotFound), errors.Is(err, docdomain.ErrNotFound):
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "document or record not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorResponse{
			Error:   "rate_limited",
			Message: "too many mutation requests, slow down",
		}
	default:
		// Backend failures surface their message verbatim. Callers at
		// this boundary are authenticated key holders.
		return http.StatusInternalServerError, errorResponse{
			Error:   "store_error",
			Message: err.Error(),
		}
	}
}

func classifyErrorForLog(err error) string {
	status, payload := mapError(err)
	if status >= 500 {
		return "fault:" + payload.Error
	}
	return payload.Error
}
