package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ClemmensSES/SESSalesResources/internal/accesskey"
	"github.com/ClemmensSES/SESSalesResources/internal/blobstore"
	"github.com/ClemmensSES/SESSalesResources/internal/clock"
	"github.com/ClemmensSES/SESSalesResources/internal/config"
	docservice "github.com/ClemmensSES/SESSalesResources/internal/document/service"
	"github.com/ClemmensSES/SESSalesResources/internal/permission"
)

const (
	testAEKey    = "ses-ae-xyz"
	testAdminKey = "ses-admin-9k1"
	testOpsKey   = "ses-ops-42"
)

func newTestServer(t *testing.T) (*Server, blobstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := blobstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	docSvc := docservice.New(docservice.Params{
		Store: store,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})

	table, err := permission.NewTable()
	require.NoError(t, err)

	cfg := config.Config{
		KeyTag:         "ses",
		APIKeys:        []string{testAEKey, testAdminKey, testOpsKey},
		AllowedOrigins: []string{"https://portal.example.com", "https://staging.example.com"},
	}
	origins, err := config.NewOriginsHolder(cfg)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:     engine,
		Cfg:     cfg,
		Log:     zap.NewNop(),
		Keyring: accesskey.NewKeyring(cfg.KeyTag, cfg.APIKeys),
		Table:   table,
		DocSvc:  docSvc,
		Origins: origins,
		Clock:   fake,
	})
	srv.RegisterDataRoutes()
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path, key string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var payload errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestPreflightSkipsAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/data/clients.json", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "x-api-key")
}

func TestCORSFallsBackToFirstConfiguredOrigin(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/data/clients.json", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMissingKeyReturns401(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Error)
}

func TestUnknownKeyReturns401ForEveryDocument(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/api/data/clients.json",
		"/api/data/users.json",
		"/api/data/lmp-database.json",
	} {
		w := doRequest(t, srv, http.MethodGet, path, "badkey", nil)
		assert.Equalf(t, http.StatusUnauthorized, w.Code, "path=%s", path)
	}
}

func TestRoleAllowsReadButNotDelete(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Put(t.Context(), "clients.json", []byte(`[{"id":"c1","name":"acme"}]`)))

	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json", testAEKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodDelete, "/api/data/clients.json", testAEKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w).Error)
}

func TestGetWholeDocumentVerbatim(t *testing.T) {
	srv, store := newTestServer(t)
	raw := `[{"id":"c1","name":"acme"},{"id":"c2","name":"globex"}]`
	require.NoError(t, store.Put(t.Context(), "clients.json", []byte(raw)))

	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json", testAEKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, raw, w.Body.String())
}

func TestGetMissingDocumentReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json", testAEKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

func TestCreateIntoAbsentDocument(t *testing.T) {
	srv, store := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/data/energy-profiles.json", testAEKey,
		[]byte(`{"name":"loc1"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Record  map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "loc1", resp.Record["name"])
	assert.Regexp(t, regexp.MustCompile(`^[0-9]+-[a-z0-9]+$`), resp.Record["id"])
	assert.Equal(t, "ae", resp.Record["createdBy"])

	data, err := store.Get(t.Context(), "energy-profiles.json")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestCreateRequiresBody(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/data/energy-profiles.json", testAEKey, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)

	w = doRequest(t, srv, http.MethodPost, "/api/data/energy-profiles.json", testAEKey, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
		[]byte(`{"name":"acme","tier":"gold"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Record["id"].(string)

	// Read back by path id.
	w = doRequest(t, srv, http.MethodGet, "/api/data/clients.json/"+id, testAdminKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.Record, got)

	// Partial update keeps identity stamps.
	w = doRequest(t, srv, http.MethodPut, "/api/data/clients.json/"+id, testAdminKey,
		[]byte(`{"tier":"platinum"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, id, updated.Record["id"])
	assert.Equal(t, "platinum", updated.Record["tier"])
	assert.Equal(t, created.Record["createdAt"], updated.Record["createdAt"])
	assert.Equal(t, "admin", updated.Record["updatedBy"])

	// Delete, then both GET and DELETE see 404.
	w = doRequest(t, srv, http.MethodDelete, "/api/data/clients.json/"+id, testAdminKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/data/clients.json/"+id, testAdminKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, srv, http.MethodDelete, "/api/data/clients.json/"+id, testAdminKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateNonArrayDocumentReturns400(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Put(t.Context(), "help-content.json", []byte(`{"title":"help"}`)))

	// ae only reads help-content, so the permission gate fires first.
	w := doRequest(t, srv, http.MethodPut, "/api/data/help-content.json/some-id", testAEKey,
		[]byte(`{"title":"new"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, srv, http.MethodPut, "/api/data/help-content.json/some-id", testAdminKey,
		[]byte(`{"title":"new"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
}

func TestWholeFileReplace(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Put(t.Context(), "help-content.json", []byte(`{"title":"old"}`)))

	w := doRequest(t, srv, http.MethodPut, "/api/data/help-content.json", testAdminKey,
		[]byte(`{"title":"new","sections":["a"]}`))
	require.Equal(t, http.StatusOK, w.Code)

	data, err := store.Get(t.Context(), "help-content.json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "new", doc["title"])
}

func TestDeleteWholeDocument(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Put(t.Context(), "bids.json", []byte(`[]`)))

	w := doRequest(t, srv, http.MethodDelete, "/api/data/bids.json", testAdminKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodDelete, "/api/data/bids.json", testAdminKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRecordByQueryParameter(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Put(t.Context(), "clients.json", []byte(`[{"id":"c1","name":"acme"}]`)))

	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json?id=c1", testAEKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "acme", got["name"])
}

func TestKnownKeyWithUnknownRoleIsForbidden(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.keyring = accesskey.NewKeyring("ses", []string{"ses-intern-1"})

	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json", "ses-intern-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPatchUpdatesRecord(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
		[]byte(`{"name":"acme","tier":"gold"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Record["id"].(string)

	w = doRequest(t, srv, http.MethodPatch, "/api/data/clients.json/"+id, testAdminKey,
		[]byte(`{"tier":"silver"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, id, updated.Record["id"])
	assert.Equal(t, "silver", updated.Record["tier"])
	assert.Equal(t, "acme", updated.Record["name"])
}

func TestMutationRateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.mutationLimiter = newRateLimiter(2, time.Minute, srv.clock.Now)

	for i := 0; i < 2; i++ {
		w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
			[]byte(`{"name":"n"}`))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
		[]byte(`{"name":"n"}`))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decodeError(t, w).Error)
}

func TestReadsBypassMutationRateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.mutationLimiter = newRateLimiter(2, time.Minute, srv.clock.Now)

	for i := 0; i < 2; i++ {
		w := doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
			[]byte(`{"name":"n"}`))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// The write budget is spent, reads still go through.
	w := doRequest(t, srv, http.MethodGet, "/api/data/clients.json", testAdminKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/data/clients.json", testAdminKey,
		[]byte(`{"name":"n"}`))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
