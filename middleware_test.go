package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"explicit status code", http.MethodGet, "/metrics-test/teapot", http.StatusTeapot},
		{"implicit 200", http.MethodGet, "/metrics-test/implicit", http.StatusOK},
		{"error status", http.MethodPost, "/metrics-test/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := metricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.wantStatus != http.StatusOK {
					w.WriteHeader(tt.wantStatus)
				}
				_, _ = io.WriteString(w, "done")
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			require.Equal(t, tt.wantStatus, rr.Code)

			counter := httpRequestsTotal.WithLabelValues(tt.path, tt.method, strconv.Itoa(tt.wantStatus))
			assert.Equal(t, 1.0, testutil.ToFloat64(counter))
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("adds headers and forwards", func(t *testing.T) {
		called := false
		handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.True(t, called)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("answers preflight without forwarding", func(t *testing.T) {
		called := false
		handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodOptions, "/api/regions", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestResponseWriterForwardsFlush(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := newResponseWriter(rr)

	flusher, ok := any(rw).(http.Flusher)
	require.True(t, ok)
	flusher.Flush()
	assert.True(t, rr.Flushed)
}
