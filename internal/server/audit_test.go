package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	auditdomain "github.com/ClemmensSES/SESSalesResources/internal/audit/domain"
	auditrepository "github.com/ClemmensSES/SESSalesResources/internal/audit/repository"
	auditservice "github.com/ClemmensSES/SESSalesResources/internal/audit/service"
	"github.com/ClemmensSES/SESSalesResources/internal/clock"
)

func newTestServerWithAudit(t *testing.T) *Server {
	t.Helper()
	srv, _ := newTestServer(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	srv.auditSvc = auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
		Repo:  auditrepository.Provide(),
	})
	srv.RegisterAuditRoutes()
	return srv
}

func TestAuditTrailListsMutations(t *testing.T) {
	srv := newTestServerWithAudit(t)

	w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
		[]byte(`{"name":"acme"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/audit", testAdminKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Logs []auditdomain.AuditLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, "admin", resp.Logs[0].Actor)
	assert.Equal(t, "create", resp.Logs[0].Action)
	assert.Equal(t, "clients.json", resp.Logs[0].Document)
	assert.Equal(t, http.StatusCreated, resp.Logs[0].Status)
}

func TestAuditTrailFiltersByDocument(t *testing.T) {
	srv := newTestServerWithAudit(t)

	w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
		[]byte(`{"name":"acme"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	w = doRequest(t, srv, http.MethodPost, "/api/data/bids.json", testAdminKey,
		[]byte(`{"amount":10}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/audit?document=bids.json", testAdminKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Logs []auditdomain.AuditLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, "bids.json", resp.Logs[0].Document)
}

func TestAuditTrailRequiresAdmin(t *testing.T) {
	srv := newTestServerWithAudit(t)

	w := doRequest(t, srv, http.MethodGet, "/api/audit", testAEKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w).Error)

	w = doRequest(t, srv, http.MethodGet, "/api/audit", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuditTrailRejectsBadLimit(t *testing.T) {
	srv := newTestServerWithAudit(t)

	w := doRequest(t, srv, http.MethodGet, "/api/audit?limit=nope", testAdminKey, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
}
