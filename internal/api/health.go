package api

import (
	"context"
	"net/http"
)

// Ping проверяет доступность API
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/health"}, nil)
}
