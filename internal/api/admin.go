package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	apperrors "PronosticsPlatform/pkg/errors"
)

// AdminStats возвращает сводку платформы
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{method: http.MethodGet, path: "/admin/stats", auth: true}, &raw)
	if err != nil {
		return nil, err
	}

	var env struct {
		Stats *AdminStats `json:"stats"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Stats != nil {
		return env.Stats, nil
	}
	var stats AdminStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "некорректный ответ сервера")
	}
	return &stats, nil
}

// AdminUsers возвращает страницу пользователей
func (c *Client) AdminUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var result UserPage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/admin/users",
		query:  query,
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Total == 0 {
		result.Total = len(result.Users)
	}
	if result.Page == 0 {
		result.Page = page
	}
	return &result, nil
}

// CreatePronostic публикует новый прогноз
func (c *Client) CreatePronostic(ctx context.Context, input PronosticInput) (*Pronostic, error) {
	var env struct {
		Pronostic *Pronostic `json:"pronostic"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/admin/pronostics",
		body:   input,
		auth:   true,
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Pronostic == nil {
		return nil, apperrors.New(apperrors.ErrInternal, "сервер не вернул прогноз")
	}
	return env.Pronostic, nil
}

// DeletePronostic удаляет прогноз
func (c *Client) DeletePronostic(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/admin/pronostics/" + url.PathEscape(id),
		endpoint: "/admin/pronostics/{id}",
		auth:     true,
	}, nil)
}
