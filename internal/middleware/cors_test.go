package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"salesops-backend/internal/config"
)

const testOrigin = "https://ops.example.com"

func corsConfig(origins, headers []string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.CorsAllowedOrigins = origins
	cfg.Server.CorsAllowedHeaders = headers
	cfg.Server.CorsAllowCredentials = true
	cfg.Server.CorsMaxAge = 5 * time.Minute
	return cfg
}

func TestCORSOptions(t *testing.T) {
	opts := corsOptions(corsConfig([]string{testOrigin}, []string{"Content-Type"}))
	assert.Equal(t, []string{"Content-Type", RequestIDHeader}, opts.AllowedHeaders)
	assert.Equal(t, []string{RequestIDHeader}, opts.ExposedHeaders)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, opts.AllowedMethods)
	assert.True(t, opts.AllowCredentials)
	assert.Equal(t, 300, opts.MaxAge)

	opts = corsOptions(corsConfig([]string{"*"}, []string{"content-type", "x-request-id"}))
	assert.Equal(t, []string{"content-type", "x-request-id"}, opts.AllowedHeaders, "already allowed")
	assert.False(t, opts.AllowCredentials, "no credentials with a wildcard origin")
}

func TestCORS_PreflightAllowsRequestID(t *testing.T) {
	h := NewCORS(corsConfig([]string{testOrigin}, []string{"Content-Type"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", RequestIDHeader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(RequestIDHeader))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_ExposesRequestID(t *testing.T) {
	h := NewCORS(corsConfig([]string{testOrigin}, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(RequestIDHeader, "abc")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.EqualFold(RequestIDHeader, rec.Header().Get("Access-Control-Expose-Headers")))
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
