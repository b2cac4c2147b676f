package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Metrics представляет систему метрик клиента
type Metrics struct {
	// Метрики запросов к API
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec

	// Запросы, ожидающие ответа
	InFlightRequests *prometheus.GaugeVec

	// Переходы состояния сессии
	SessionTransitions *prometheus.CounterVec

	// OpenTelemetry Tracer
	Tracer trace.Tracer `json:"-"`

	gatherer prometheus.Gatherer
}

// Option настраивает систему метрик
type Option func(*options)

type options struct {
	registry       *prometheus.Registry
	tracerProvider trace.TracerProvider
}

// WithRegistry регистрирует метрики в указанном реестре
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithTracerProvider задает провайдер трассировки вместо глобального
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// NewMetrics создает новую систему метрик.
// Без WithRegistry используется собственный реестр, поэтому
// повторное создание не конфликтует с уже зарегистрированными метриками.
func NewMetrics(serviceName string, opts ...Option) *Metrics {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	errorsCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total number of API errors",
		},
		[]string{"method", "endpoint", "error_type"},
	)

	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "api",
			Name:      "in_flight_requests",
			Help:      "Number of API requests awaiting a response",
		},
		[]string{"endpoint"},
	)

	sessionTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Total number of session state transitions",
		},
		[]string{"event"},
	)

	for _, c := range []prometheus.Collector{requestCount, requestDuration, errorsCount, inFlight, sessionTransitions} {
		if err := o.registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &Metrics{
		RequestCount:       requestCount,
		RequestDuration:    requestDuration,
		ErrorsCount:        errorsCount,
		InFlightRequests:   inFlight,
		SessionTransitions: sessionTransitions,
		Tracer:             o.tracerProvider.Tracer(serviceName),
		gatherer:           o.registry,
	}
}

// RequestCount значение счетчика запросов с его метками
type RequestCount struct {
	Count  float64
	Labels map[string]string
}

// RequestCounts читает счетчики запросов к API из реестра
func (m *Metrics) RequestCounts() ([]RequestCount, error) {
	families, err := m.gatherer.Gather()
	if err != nil {
		return nil, err
	}

	var counts []RequestCount
	for _, family := range families {
		if !strings.HasSuffix(family.GetName(), "_requests_total") {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			counts = append(counts, RequestCount{Count: metric.GetCounter().GetValue(), Labels: labels})
		}
	}
	return counts, nil
}

// StartRequest открывает спан и учитывает запрос как ожидающий ответа
func (m *Metrics) StartRequest(ctx context.Context, method, endpoint string) (context.Context, trace.Span) {
	m.InFlightRequests.WithLabelValues(endpoint).Inc()
	ctx, span := m.Tracer.Start(ctx, method+" "+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", endpoint),
	)
	return ctx, span
}

// FinishRequest закрывает спан и записывает метрики запроса.
// status == 0 означает, что ответ не получен (сетевая ошибка, таймаут).
func (m *Metrics) FinishRequest(span trace.Span, method, endpoint string, status int, duration time.Duration) {
	m.InFlightRequests.WithLabelValues(endpoint).Dec()

	statusLabel := strconv.Itoa(status)
	if status == 0 {
		statusLabel = "none"
	}
	m.RequestCount.WithLabelValues(method, endpoint, statusLabel).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())

	if errorType := errorTypeOf(status); errorType != "" {
		m.ErrorsCount.WithLabelValues(method, endpoint, errorType).Inc()
	}

	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Float64("http.duration", duration.Seconds()),
	)
	span.End()
}

// SessionTransition учитывает переход состояния сессии
func (m *Metrics) SessionTransition(event string) {
	m.SessionTransitions.WithLabelValues(event).Inc()
}

func errorTypeOf(status int) string {
	switch {
	case status == 0:
		return "network_error"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	}
	return ""
}

// InitializeOpenTelemetry устанавливает глобальный провайдер трассировки.
// Возвращает функцию остановки провайдера.
func InitializeOpenTelemetry(serviceName, version string) func(context.Context) error {
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown
}
