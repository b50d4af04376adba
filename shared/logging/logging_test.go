package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("order-service", "warn", &buf)

	logger.Info().Msg("dropped")
	logger.Warn().Str("order_id", "o1").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "order-service", entry["service"])
	assert.Equal(t, "o1", entry["order_id"])
	assert.Equal(t, "kept", entry["message"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("svc", "verbose", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext_WithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	logger.Info().Msg("no panic")
}

func TestMiddleware_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("svc", "info", &buf)

	handler := middleware.RequestID(Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info().Msg("handled")
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"request_id"`)
	assert.Contains(t, buf.String(), "handled")
}
