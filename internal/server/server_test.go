package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TorkeTejas/bus-management-cc/internal/config"
	apierrors "github.com/TorkeTejas/bus-management-cc/internal/errors"
	"github.com/TorkeTejas/bus-management-cc/internal/errorlog"
	"github.com/TorkeTejas/bus-management-cc/internal/handler"
	"github.com/TorkeTejas/bus-management-cc/internal/health"
	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/middleware"
	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"github.com/TorkeTejas/bus-management-cc/internal/proxy"
	"github.com/TorkeTejas/bus-management-cc/internal/registry"
	"github.com/TorkeTejas/bus-management-cc/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const unreachableURL = "http://127.0.0.1:1"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		SupportContact: "support@example.com",
		Errors:         config.ErrorsConfig{DefaultLimit: 50},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, seed map[string]string) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.NewMetrics()

	reg := registry.New(seed, logger)
	errs := errorlog.New(reg, m, logger)
	tr := translator.New(nil)
	mon := health.NewMonitor(reg, health.NewStatusStore(), errs, tr, m, nil, health.Config{ProbeTimeout: time.Second}, logger)
	px := proxy.NewProxy(reg, errs, tr, m, nil, time.Second, logger)
	errorHandler := apierrors.NewHandler(logger)
	handlers := handler.NewHandlers(reg, mon, errs, px, m, errorHandler, cfg.Errors.DefaultLimit, logger)

	srv := NewServer(cfg, handlers, errorHandler, tr, m, logger)
	srv.SetupRoutes()
	return srv.GetHandler()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_UnreachableServiceScenario(t *testing.T) {
	h := newTestServer(t, testConfig(), map[string]string{"bus-service": unreachableURL})

	w := do(t, h, http.MethodGet, "/health/bus-service", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status model.ServiceStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, model.ServiceStateDown, status.Status)
	assert.Equal(t, 0.0, status.ResponseTime)
	assert.Equal(t, translator.New(nil).Translate("bus-service"), status.UserMessage)

	w = do(t, h, http.MethodGet, "/errors/bus-service", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []model.ErrorLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusServiceUnavailable, entries[0].StatusCode)
	assert.False(t, entries[0].IsResolved)
}

func TestServer_ProxyUpstreamNotFoundScenario(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "not found"}`))
	}))
	defer backend.Close()

	h := newTestServer(t, testConfig(), map[string]string{"bus-service": backend.URL})

	w := do(t, h, http.MethodPost, "/proxy", []byte(`{"targetService":"bus-service","endpoint":"/buses","method":"get"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var result model.ProxyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, map[string]any{"detail": "not found"}, result.Data)

	w = do(t, h, http.MethodGet, "/errors", nil)
	var entries []model.ErrorLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusNotFound, entries[0].StatusCode)

	require.NotNil(t, result.ErrorID)
	w = do(t, h, http.MethodGet, fmt.Sprintf("/errors/id/%d", *result.ErrorID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entry model.ErrorLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "buses", entry.Endpoint)
}

func TestServer_RegistryLifecycle(t *testing.T) {
	h := newTestServer(t, testConfig(), map[string]string{})

	w := do(t, h, http.MethodPost, "/registry/payments?url=http://payments:9000", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/registry", nil)
	assert.JSONEq(t, `{"payments":"http://payments:9000"}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/registry/payments", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodDelete, "/registry/payments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/health/payments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Middleware(t *testing.T) {
	h := newTestServer(t, testConfig(), map[string]string{})

	w := do(t, h, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get(middleware.ProcessTimeHeader))

	req := httptest.NewRequest(http.MethodOptions, "/proxy", nil)
	req.Header.Set("Origin", "http://app.local")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig(), map[string]string{})

	w := do(t, h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apierrors.ErrorCodeEndpointNotFound, resp.ErrorCode)

	w = do(t, h, http.MethodPut, "/proxy", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_RateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter = config.RateLimiterConfig{Enabled: true, RequestsPerSecond: 0.001, BurstSize: 1}
	h := newTestServer(t, cfg, map[string]string{})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/livez", nil).Code)
}

func TestRouteTemplate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Equal(t, "unmatched", routeTemplate(req))
}
