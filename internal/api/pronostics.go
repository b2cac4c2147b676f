package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "PronosticsPlatform/pkg/errors"
)

func (q PronosticQuery) values() url.Values {
	v := url.Values{}
	if q.Sport != "" {
		v.Set("sport", q.Sport)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListPronostics возвращает прогнозы по серверным фильтрам
func (c *Client) ListPronostics(ctx context.Context, query PronosticQuery) ([]Pronostic, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/pronostics",
		query:  query.values(),
		auth:   true,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var env struct {
		Pronostics []Pronostic `json:"pronostics"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Pronostics != nil {
		return env.Pronostics, nil
	}

	var list []Pronostic
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "некорректный список прогнозов")
	}
	return list, nil
}

// GetPronostic возвращает прогноз по идентификатору
func (c *Client) GetPronostic(ctx context.Context, id string) (*Pronostic, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/pronostics/" + url.PathEscape(id),
		endpoint: "/pronostics/{id}",
		auth:     true,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var env struct {
		Pronostic *Pronostic `json:"pronostic"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Pronostic != nil {
		return env.Pronostic, nil
	}

	var p Pronostic
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" {
		return nil, apperrors.New(apperrors.ErrInternal, "некорректный ответ сервера")
	}
	return &p, nil
}
