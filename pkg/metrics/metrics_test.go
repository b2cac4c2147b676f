package metrics

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestNewMetrics проверяет создание системы метрик
func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_service")

	require.NotNil(t, m)
	assert.NotNil(t, m.RequestCount)
	assert.NotNil(t, m.RequestDuration)
	assert.NotNil(t, m.ErrorsCount)
	assert.NotNil(t, m.InFlightRequests)
	assert.NotNil(t, m.SessionTransitions)
	assert.NotNil(t, m.Tracer)
}

// TestNewMetrics_SharedRegistry проверяет повторную регистрацию в одном реестре
func TestNewMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	assert.NotPanics(t, func() {
		NewMetrics("test_service", WithRegistry(reg))
		NewMetrics("test_service", WithRegistry(reg))
	})
}

// TestRequestLifecycle проверяет метрики и спан одного запроса
func TestRequestLifecycle(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))
	m := NewMetrics("test_service", WithTracerProvider(tp))

	_, span := m.StartRequest(context.Background(), http.MethodGet, "/auth/me")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlightRequests.WithLabelValues("/auth/me")))

	m.FinishRequest(span, http.MethodGet, "/auth/me", http.StatusUnauthorized, 20*time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightRequests.WithLabelValues("/auth/me")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/auth/me", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsCount.WithLabelValues("GET", "/auth/me", "unauthorized")))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /auth/me", spans[0].Name())
}

// TestFinishRequest_NetworkError проверяет учет запроса без ответа
func TestFinishRequest_NetworkError(t *testing.T) {
	m := NewMetrics("test_service")

	_, span := m.StartRequest(context.Background(), http.MethodPost, "/auth/login")
	m.FinishRequest(span, http.MethodPost, "/auth/login", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("POST", "/auth/login", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsCount.WithLabelValues("POST", "/auth/login", "network_error")))
}

// TestSessionTransition проверяет счетчик переходов сессии
func TestSessionTransition(t *testing.T) {
	m := NewMetrics("test_service")

	m.SessionTransition("login_succeeded")
	m.SessionTransition("login_succeeded")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionTransitions.WithLabelValues("login_succeeded")))
}

// TestRequestCounts проверяет чтение счетчиков запросов
func TestRequestCounts(t *testing.T) {
	m := NewMetrics("test_service")
	m.SessionTransition("logged_out")

	_, span := m.StartRequest(context.Background(), http.MethodGet, "/auth/me")
	m.FinishRequest(span, http.MethodGet, "/auth/me", http.StatusOK, 10*time.Millisecond)
	_, span = m.StartRequest(context.Background(), http.MethodGet, "/auth/me")
	m.FinishRequest(span, http.MethodGet, "/auth/me", http.StatusOK, 10*time.Millisecond)

	counts, err := m.RequestCounts()
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 2.0, counts[0].Count)
	assert.Equal(t, "/auth/me", counts[0].Labels["endpoint"])
	assert.Equal(t, http.MethodGet, counts[0].Labels["method"])
}

// TestInitializeOpenTelemetry проверяет установку провайдера
func TestInitializeOpenTelemetry(t *testing.T) {
	shutdown := InitializeOpenTelemetry("test_service", "0.0.0")
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
