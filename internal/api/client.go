package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
	"PronosticsPlatform/pkg/metrics"
)

const (
	// DefaultTimeout таймаут запроса по умолчанию
	DefaultTimeout = 10 * time.Second

	headerRequestID   = "X-Request-ID"
	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"
	defaultUserAgent  = "pronoctl/1.0"
)

// TokenReader читает текущий access токен. Отсутствие токена не ошибка.
type TokenReader interface {
	AccessToken(ctx context.Context) (string, error)
}

// SessionHooks реакция сессии на отказ в авторизации.
// RefreshAccessToken возвращает новый access токен или ошибку;
// OnUnauthorized вызывается, когда токен восстановить не удалось.
type SessionHooks interface {
	RefreshAccessToken(ctx context.Context) (string, error)
	OnUnauthorized(ctx context.Context)
}

// Client HTTP клиент API сервиса прогнозов
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenReader
	logger     logger.Logger
	metrics    *metrics.Metrics
	userAgent  string

	hooksMu sync.RWMutex
	hooks   SessionHooks
}

// Option настраивает клиент
type Option func(*Client)

// WithTimeout задает таймаут запроса
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient задает свой http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger задает логгер
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

// WithMetrics включает метрики и трассировку запросов
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent задает User-Agent запросов
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient создает клиент API.
// tokens может быть nil: тогда bearer токен не прикладывается.
func NewClient(baseURL string, tokens TokenReader, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("некорректный base URL: %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		logger:     logger.NewNop(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetSessionHooks подключает контроллер сессии
func (c *Client) SetSessionHooks(h SessionHooks) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = h
}

func (c *Client) sessionHooks() SessionHooks {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()
	return c.hooks
}

// request описание запроса.
// endpoint шаблон пути для метрик и логов (без идентификаторов).
type request struct {
	method   string
	path     string
	endpoint string
	query    url.Values
	body     interface{}
	auth     bool
}

// do выполняет запрос. Для авторизованных запросов ответ 401 приводит
// к одной попытке обновить токен и повторить запрос; если это не удалось,
// сессия получает OnUnauthorized.
func (c *Client) do(ctx context.Context, req request, result interface{}) error {
	if req.endpoint == "" {
		req.endpoint = req.path
	}

	token := ""
	if req.auth && c.tokens != nil {
		t, err := c.tokens.AccessToken(ctx)
		if err != nil {
			c.logger.Warn("не удалось прочитать access токен", logger.Error(err))
		}
		token = t
	}

	status, body, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && req.auth {
		hooks := c.sessionHooks()
		if hooks != nil {
			newToken, refreshErr := hooks.RefreshAccessToken(ctx)
			if refreshErr == nil && newToken != "" {
				c.logger.Debug("токен обновлен, повтор запроса", logger.String("endpoint", req.endpoint))
				status, body, err = c.send(ctx, req, newToken)
				if err != nil {
					return err
				}
			} else if refreshErr != nil {
				c.logger.Debug("обновление токена не удалось", logger.Error(refreshErr))
			}
			if status == http.StatusUnauthorized {
				hooks.OnUnauthorized(ctx)
			}
		}
	}

	if status >= 400 {
		return parseError(status, body)
	}

	if result != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return apperrors.Wrap(err, apperrors.ErrInternal, "некорректный ответ сервера")
		}
	}
	return nil
}

// send выполняет один HTTP обмен и возвращает статус и тело ответа
func (c *Client) send(ctx context.Context, req request, token string) (int, []byte, error) {
	reqURL := c.baseURL + req.path
	if len(req.query) > 0 {
		reqURL += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, apperrors.Wrap(err, apperrors.ErrInternal, "ошибка кодирования запроса")
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, bodyReader)
	if err != nil {
		return 0, nil, apperrors.Wrap(err, apperrors.ErrInternal, "ошибка создания запроса")
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(headerRequestID, requestID)
	httpReq.Header.Set(headerUserAgent, c.userAgent)
	httpReq.Header.Set("Accept", contentTypeJSON)
	if req.body != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	var span trace.Span
	if c.metrics != nil {
		var spanCtx context.Context
		spanCtx, span = c.metrics.StartRequest(ctx, req.method, req.endpoint)
		httpReq = httpReq.WithContext(spanCtx)
	}

	status, body, err := c.exchange(httpReq)
	duration := time.Since(start)

	if span != nil {
		c.metrics.FinishRequest(span, req.method, req.endpoint, status, duration)
	}

	log := c.logger.With(
		logger.String("method", req.method),
		logger.String("endpoint", req.endpoint),
		logger.String("request_id", requestID),
		logger.Duration("duration", duration),
	)
	if err != nil {
		log.Warn("запрос к API не выполнен", logger.Error(err))
		return 0, nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "сервер недоступен")
	}
	log.Debug("ответ API", logger.Int("status", status))

	return status, body, nil
}

// maxResponseSize ограничение на размер тела ответа
const maxResponseSize = 4 << 20

func (c *Client) exchange(httpReq *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return resp.StatusCode, body, nil
}
