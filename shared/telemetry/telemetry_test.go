package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusAccepted))
	assert.Equal(t, "4xx", statusClass(http.StatusConflict))
	assert.Equal(t, "5xx", statusClass(http.StatusBadGateway))
	assert.Equal(t, "unknown", statusClass(42))
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	tel := NewTelemetry(OrderServiceConfig)
	ctx := WithTelemetry(context.Background(), tel)
	assert.Same(t, tel, FromContext(ctx))
	assert.Equal(t, "order-service", FromContext(ctx).ServiceName())
}

func TestMiddleware_PassesThroughStatus(t *testing.T) {
	tel := NewTelemetry(OrderServiceConfig)

	r := chi.NewRouter()
	r.Use(Middleware(tel))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, FromContext(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
