package api

import (
	"context"
	"encoding/json"
	"net/http"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfile сохраняет изменения профиля и возвращает обновленный профиль
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/users/profile",
		body:   update,
		auth:   true,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// ChangePassword меняет пароль текущего пользователя
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/users/password",
		body:   changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword},
		auth:   true,
	}, nil)
}

// SubscriptionStatus возвращает состояние подписки текущего пользователя
func (c *Client) SubscriptionStatus(ctx context.Context) (*SubscriptionSummary, error) {
	var env struct {
		SubscriptionSummary
		SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/users/subscription-status",
		auth:   true,
	}, &env)
	if err != nil {
		return nil, err
	}

	summary := env.SubscriptionSummary
	if summary.Status == "" {
		summary.Status = env.SubscriptionStatus
	}
	if summary.Status == "" {
		summary.Status = SubscriptionNone
	}
	return &summary, nil
}
