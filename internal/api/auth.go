package api

import (
	"context"
	"encoding/json"
	"net/http"

	"PronosticsPlatform/internal/store"
	apperrors "PronosticsPlatform/pkg/errors"
)

// AuthResponse ответ на вход и регистрацию
type AuthResponse struct {
	User   *User        `json:"user"`
	Tokens store.Tokens `json:"tokens"`
}

type userEnvelope struct {
	User *User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// tokensEnvelope принимает как {"tokens": {...}}, так и плоскую пару
type tokensEnvelope struct {
	Tokens       *store.Tokens `json:"tokens"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

func (e tokensEnvelope) pair() store.Tokens {
	if e.Tokens != nil {
		return *e.Tokens
	}
	return store.Tokens{AccessToken: e.AccessToken, RefreshToken: e.RefreshToken}
}

// Login выполняет вход по email и паролю
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(raw)
}

// Register создает учетную запись
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   req,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(raw)
}

// Logout отзывает refresh токен на сервере
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   refreshRequest{RefreshToken: refreshToken},
	}, nil)
}

// Refresh обменивает refresh токен на новую пару.
// Если сервер не вернул новый refresh токен, сохраняется старый.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (store.Tokens, error) {
	var env tokensEnvelope
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/refresh",
		body:   refreshRequest{RefreshToken: refreshToken},
	}, &env)
	if err != nil {
		return store.Tokens{}, err
	}

	tokens := env.pair()
	if tokens.AccessToken == "" {
		return store.Tokens{}, apperrors.New(apperrors.ErrUnauthorized, "сервер не вернул access токен")
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/me",
		auth:   true,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func decodeAuthResponse(raw json.RawMessage) (*AuthResponse, error) {
	var env struct {
		User *User `json:"user"`
		tokensEnvelope
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "некорректный ответ сервера")
	}

	resp := &AuthResponse{User: env.User, Tokens: env.pair()}
	if resp.User == nil || resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		return nil, apperrors.New(apperrors.ErrInternal, "ответ сервера не содержит профиль или токены")
	}
	return resp, nil
}

// decodeUser принимает {"user": {...}} или сам профиль
func decodeUser(raw json.RawMessage) (*User, error) {
	var env userEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.User != nil {
		return env.User, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, apperrors.New(apperrors.ErrInternal, "ответ сервера не содержит профиль")
	}
	return &user, nil
}
