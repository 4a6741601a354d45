package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duynhne/portfolio-service/config"
	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository/memory"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	v1 "github.com/duynhne/portfolio-service/internal/web/v1"
)

func testConfig() *config.Config {
	return &config.Config{
		Service:   config.ServiceConfig{Name: "portfolio-service", Port: "8080", Env: "test"},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Mongo:     config.MongoConfig{Driver: config.DriverMemory, Name: "Web"},
		RateLimit: config.RateLimitConfig{RPS: 0},
	}
}

func newRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *memory.Store, *atomic.Bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, users, portfolios, err := openStore(cfg)
	require.NoError(t, err)
	s := db.(*memory.Store)
	_, err = s.InsertUser(context.Background(), domain.Document{"_id": "12345"})
	require.NoError(t, err)

	handler := v1.NewProfileHandler(logicv1.NewProfileService(users, portfolios, nil, db))
	var shuttingDown atomic.Bool
	return buildRouter(cfg, zap.NewNop(), handler, db, &shuttingDown), s, &shuttingDown
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _, _ := newRouter(t, testConfig())

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Ready(t *testing.T) {
	r, store, shuttingDown := newRouter(t, testConfig())

	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)

	shuttingDown.Store(true)
	w := get(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"shutting_down"}`, w.Body.String())

	shuttingDown.Store(false)
	require.NoError(t, store.Close(context.Background()))
	w = get(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"database_unavailable"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	r, _, _ := newRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/getProfile", bytes.NewBufferString(`{"userId":"12345"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `requests_total{code="201",method="POST",path="/api/getProfile"}`)
}

func TestRouter_APIRoutes(t *testing.T) {
	r, _, _ := newRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/getProfile", bytes.NewBufferString(`{"userId":"12345"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"result":{"_id":"12345"},"portfolio":null}`, w.Body.String())
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 1}
	r, _, _ := newRouter(t, cfg)

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/getProfile", bytes.NewBufferString(`{"userId":"12345"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
	assert.Equal(t, http.StatusOK, get(r, "/health").Code, "probes are not rate limited")
}
