package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	docdomain "github.com/ClemmensSES/SESSalesResources/internal/document/domain"
)

// GetDocument returns the whole document, or a single record when an
// id query parameter is supplied.
func (s *Server) GetDocument(c *gin.Context) {
	filename := c.Param("filename")

	if id := strings.TrimSpace(c.Query("id")); id != "" {
		s.getRecord(c, filename, id)
		return
	}

	doc, err := s.docSvc.GetDocument(c.Request.Context(), filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", doc)
}

func (s *Server) GetRecord(c *gin.Context) {
	s.getRecord(c, c.Param("filename"), c.Param("id"))
}

func (s *Server) getRecord(c *gin.Context, filename, id string) {
	record, err := s.docSvc.GetRecord(c.Request.Context(), filename, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) CreateRecord(c *gin.Context) {
	filename := c.Param("filename")
	body, err := readJSONBody(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.docSvc.CreateRecord(c.Request.Context(), filename, body, s.role(c))
	if err != nil {
		s.audit(c, "create", filename, nil, statusFor(err))
		AbortWithError(c, err)
		return
	}

	if result.Replaced {
		s.audit(c, "replace", filename, nil, http.StatusCreated)
		c.JSON(http.StatusCreated, gin.H{"success": true})
		return
	}

	recordID := docdomain.RecordID(result.Record)
	s.audit(c, "create", filename, &recordID, http.StatusCreated)
	c.JSON(http.StatusCreated, gin.H{"success": true, "record": result.Record})
}

func (s *Server) ReplaceDocument(c *gin.Context) {
	filename := c.Param("filename")
	body, err := readJSONBody(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.docSvc.ReplaceDocument(c.Request.Context(), filename, body); err != nil {
		s.audit(c, "replace", filename, nil, statusFor(err))
		AbortWithError(c, err)
		return
	}
	s.audit(c, "replace", filename, nil, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) UpdateRecord(c *gin.Context) {
	filename := c.Param("filename")
	id := c.Param("id")

	body, err := readJSONBody(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var fields docdomain.Record
	if err := json.Unmarshal(body, &fields); err != nil {
		AbortWithError(c, fmt.Errorf("%w: request body must be a JSON object", ErrInvalidRequest))
		return
	}

	updated, err := s.docSvc.UpdateRecord(c.Request.Context(), filename, id, fields, s.role(c))
	if err != nil {
		s.audit(c, "update", filename, &id, statusFor(err))
		AbortWithError(c, err)
		return
	}
	s.audit(c, "update", filename, &id, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{"success": true, "record": updated})
}

func (s *Server) DeleteRecord(c *gin.Context) {
	filename := c.Param("filename")
	id := c.Param("id")

	if err := s.docSvc.DeleteRecord(c.Request.Context(), filename, id); err != nil {
		s.audit(c, "delete", filename, &id, statusFor(err))
		AbortWithError(c, err)
		return
	}
	s.audit(c, "delete", filename, &id, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	filename := c.Param("filename")

	if err := s.docSvc.DeleteDocument(c.Request.Context(), filename); err != nil {
		s.audit(c, "delete", filename, nil, statusFor(err))
		AbortWithError(c, err)
		return
	}
	s.audit(c, "delete", filename, nil, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) role(c *gin.Context) string {
	return c.GetString(contextRoleKey)
}

// audit records a mutation best-effort. A failed audit write never
// fails the request.
func (s *Server) audit(c *gin.Context, action, document string, recordID *string, status int) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(c.Request.Context(), s.role(c), action, document, recordID, status, nil)
}

func readJSONBody(c *gin.Context) (json.RawMessage, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read request body", ErrInvalidRequest)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: request body is required", ErrInvalidRequest)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: request body must be valid JSON", ErrInvalidRequest)
	}
	return body, nil
}

func statusFor(err error) int {
	status, _ := mapError(err)
	return status
}
