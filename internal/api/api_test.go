// Package api_test provides behavior tests for the API package.
package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/subzone/internal/api"
	"github.com/jroosing/subzone/internal/api/handlers"
	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/api/models"
	"github.com/jroosing/subzone/internal/config"
	"github.com/jroosing/subzone/internal/ledger"
	"github.com/jroosing/subzone/internal/provider"
	"github.com/jroosing/subzone/internal/provisioning"
	"github.com/jroosing/subzone/internal/zones"
)

// memProvider accepts every record and remembers the names it created.
type memProvider struct {
	names map[string]bool
}

func (p *memProvider) RecordExists(_ context.Context, _ zones.Zone, fqdn string) (bool, error) {
	return p.names[fqdn], nil
}

func (p *memProvider) CreateRecord(_ context.Context, _ zones.Zone, rec provider.Record) provider.Result {
	p.names[rec.Name] = true
	return provider.Result{Success: true, RecordID: "rec-" + rec.Name}
}

func createTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	return cfg
}

func createTestDeps(t *testing.T) handlers.Deps {
	t.Helper()

	reg, err := zones.New(zones.Zone{ParentDomain: "example.com", ZoneID: "z1", APIKey: "k1"})
	require.NoError(t, err)

	store, err := ledger.OpenFile(filepath.Join(t.TempDir(), "records.json"), nil)
	require.NoError(t, err)

	orch := provisioning.New(provisioning.Deps{
		Zones:    reg,
		Provider: &memProvider{names: map[string]bool{}},
		Store:    store,
	}, provisioning.Options{})

	return handlers.Deps{Orchestrator: orch, Zones: reg, Store: store}
}

func newTestServer(t *testing.T, cfg *config.Config) *api.Server {
	t.Helper()
	return api.New(cfg, createTestDeps(t), nil)
}

func performRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ============================================================================
// Server Creation Tests
// ============================================================================

func TestNew_CreatesServer(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	assert.NotNil(t, server)
	assert.NotNil(t, server.Handler())
}

func TestNew_PanicsOnNilConfig(t *testing.T) {
	assert.Panics(t, func() {
		api.New(nil, handlers.Deps{}, nil)
	})
}

func TestServer_Addr(t *testing.T) {
	cfg := createTestConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9090

	server := newTestServer(t, cfg)

	assert.Equal(t, "0.0.0.0:9090", server.Addr())
}

func TestServer_Engine(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	assert.NotNil(t, server.Engine())
}

// ============================================================================
// Routes Tests
// ============================================================================

func TestRoutes_IndexListsDomains(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"domains":["example.com"]}`, w.Body.String())
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestRoutes_StatsEndpoint(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ServerStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Uptime)
}

func TestRoutes_ConfigEndpoint(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/config", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_RequestIDHeader(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health", "")

	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

// ============================================================================
// Provisioning Flow Tests
// ============================================================================

func TestRoutes_CreateLoginDashboard(t *testing.T) {
	server := newTestServer(t, createTestConfig())
	engine := server.Engine()

	w := performRequest(engine, http.MethodPost, "/check_subdomain", `{"subdomain":"app","domain":"example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":false}`, w.Body.String())

	w = performRequest(engine, http.MethodPost, "/create_subdomain",
		`{"subdomain":"app","domain":"example.com","type":"A","content":"203.0.113.7","proxied":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(engine, http.MethodPost, "/check_subdomain", `{"subdomain":"app","domain":"example.com"}`)
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("content=203.0.113.7"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var dash models.DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, "203.0.113.7", dash.User)
	require.Len(t, dash.Records, 1)
	assert.Equal(t, "app.example.com", dash.Records[0].Name)
	assert.True(t, dash.Records[0].Proxied)
}

func TestRoutes_ProvisioningRateLimited(t *testing.T) {
	cfg := createTestConfig()
	cfg.RateLimit = config.RateLimitConfig{IPQPS: 0.001, IPBurst: 1, Cleanup: time.Minute, MaxIPEntries: 10}
	server := newTestServer(t, cfg)
	engine := server.Engine()

	body := `{"subdomain":"app","domain":"example.com"}`
	assert.Equal(t, http.StatusOK, performRequest(engine, http.MethodPost, "/check_subdomain", body).Code)

	w := performRequest(engine, http.MethodPost, "/create_subdomain", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// the listing and admin endpoints are not limited
	assert.Equal(t, http.StatusOK, performRequest(engine, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, performRequest(engine, http.MethodGet, "/api/v1/health", "").Code)
}

func forwardedCheck(engine http.Handler, peer, forwarded string) int {
	req := httptest.NewRequest(http.MethodPost, "/check_subdomain", strings.NewReader(`{"subdomain":"app","domain":"example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = peer + ":40000"
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes_ForwardedForIgnoredWithoutTrustedProxy(t *testing.T) {
	cfg := createTestConfig()
	cfg.RateLimit = config.RateLimitConfig{IPQPS: 0.001, IPBurst: 1, Cleanup: time.Minute, MaxIPEntries: 10}
	engine := newTestServer(t, cfg).Engine()

	assert.Equal(t, http.StatusOK, forwardedCheck(engine, "203.0.113.7", "198.51.100.1"))
	for i := 2; i < 6; i++ {
		forged := "198.51.100." + strconv.Itoa(i)
		assert.Equal(t, http.StatusTooManyRequests, forwardedCheck(engine, "203.0.113.7", forged), forged)
	}
}

func TestRoutes_ForwardedForHonoredFromTrustedProxy(t *testing.T) {
	cfg := createTestConfig()
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	cfg.RateLimit = config.RateLimitConfig{IPQPS: 0.001, IPBurst: 1, Cleanup: time.Minute, MaxIPEntries: 10}
	engine := newTestServer(t, cfg).Engine()

	assert.Equal(t, http.StatusOK, forwardedCheck(engine, "10.0.0.5", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, forwardedCheck(engine, "10.0.0.5", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, forwardedCheck(engine, "10.0.0.5", "192.0.2.9"))
}

func TestNew_PanicsOnInvalidTrustedProxy(t *testing.T) {
	cfg := createTestConfig()
	cfg.Server.TrustedProxies = []string{"not-an-address"}
	assert.Panics(t, func() { newTestServer(t, cfg) })
}

// ============================================================================
// API Key Protection Tests
// ============================================================================

func TestRoutes_WithAPIKey_ValidKey(t *testing.T) {
	cfg := createTestConfig()
	cfg.API.APIKey = "secret-key"
	server := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Api-Key", "secret-key")
	w := httptest.NewRecorder()

	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_WithAPIKey_InvalidKey(t *testing.T) {
	cfg := createTestConfig()
	cfg.API.APIKey = "secret-key"
	server := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Api-Key", "wrong-key")
	w := httptest.NewRecorder()

	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_WithAPIKey_MissingKey(t *testing.T) {
	cfg := createTestConfig()
	cfg.API.APIKey = "secret-key"
	server := newTestServer(t, cfg)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_WithAPIKey_ProvisioningStaysOpen(t *testing.T) {
	cfg := createTestConfig()
	cfg.API.APIKey = "secret-key"
	server := newTestServer(t, cfg)

	w := performRequest(server.Engine(), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_NoAPIKey_NoAuth(t *testing.T) {
	cfg := createTestConfig()
	cfg.API.APIKey = ""
	server := newTestServer(t, cfg)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

// ============================================================================
// Server Lifecycle Tests
// ============================================================================

func TestServer_Shutdown(t *testing.T) {
	cfg := createTestConfig()
	cfg.Server.Port = 1
	server := newTestServer(t, cfg)

	// Shutdown should not error even if never started
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := server.Shutdown(ctx)
	assert.NoError(t, err)
}

// ============================================================================
// Swagger Endpoint Tests
// ============================================================================

func TestRoutes_SwaggerEndpoint(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/swagger/index.html", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_SwaggerDocDescribesRoutes(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/swagger/doc.json", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/create_subdomain")
	assert.Contains(t, w.Body.String(), "/update_record")
}

// ============================================================================
// Not Found / Method Tests
// ============================================================================

func TestRoutes_NotFound(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_ConfigIsReadOnly(t *testing.T) {
	server := newTestServer(t, createTestConfig())

	w := performRequest(server.Engine(), http.MethodPut, "/api/v1/config", `{}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
