package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	apperrors "PronosticsPlatform/pkg/errors"
)

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// Plans возвращает доступные тарифы
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/subscriptions/plans"}, &raw); err != nil {
		return nil, err
	}

	var env struct {
		Plans []Plan `json:"plans"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Plans != nil {
		return env.Plans, nil
	}
	var plans []Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "некорректный список тарифов")
	}
	return plans, nil
}

// CreateCheckoutSession создает сессию оплаты выбранного тарифа
func (c *Client) CreateCheckoutSession(ctx context.Context, planID string) (*CheckoutStart, error) {
	var start CheckoutStart
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/subscriptions/create-checkout-session",
		body:   map[string]string{"planId": planID},
		auth:   true,
	}, &start)
	if err != nil {
		return nil, err
	}
	if start.URL == "" {
		return nil, apperrors.New(apperrors.ErrInternal, "сервер не вернул адрес оплаты")
	}
	return &start, nil
}

// CheckoutSession возвращает состояние сессии оплаты у провайдера
func (c *Client) CheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/subscriptions/session/" + url.PathEscape(sessionID),
		endpoint: "/subscriptions/session/{id}",
		auth:     true,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var env struct {
		Session *CheckoutSession `json:"session"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Session != nil {
		return env.Session, nil
	}
	var session CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "некорректный ответ сервера")
	}
	return &session, nil
}

// SyncFromStripe просит сервер перечитать подписку у платежного
// провайдера и возвращает обновленный профиль
func (c *Client) SyncFromStripe(ctx context.Context, sessionID string) (*User, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/subscriptions/sync-from-stripe",
		body:   sessionRequest{SessionID: sessionID},
		auth:   true,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// CancelSubscription отменяет продление подписки
func (c *Client) CancelSubscription(ctx context.Context) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/subscriptions/cancel",
		auth:   true,
	}, nil)
}
