package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/metrics"
)

// staticTokens TokenReader с фиксированным токеном
type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, error) {
	return string(s), nil
}

// fakeHooks записывает вызовы хуков сессии
type fakeHooks struct {
	newToken     string
	refreshErr   error
	refreshCalls int32
	unauthCalls  int32
}

func (f *fakeHooks) RefreshAccessToken(context.Context) (string, error) {
	atomic.AddInt32(&f.refreshCalls, 1)
	return f.newToken, f.refreshErr
}

func (f *fakeHooks) OnUnauthorized(context.Context) {
	atomic.AddInt32(&f.unauthCalls, 1)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenReader, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL+"/api", tokens, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("not a url", nil)
	assert.Error(t, err)

	_, err = NewClient("", nil)
	assert.Error(t, err)
}

func TestMe_AttachesBearerAndRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]string{"id": "u1", "username": "alice", "role": "user", "subscriptionStatus": "active"},
		})
	}, staticTokens("access-1"))

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, SubscriptionActive, user.SubscriptionStatus)
}

func TestLogin_NeverSendsBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.io", body["email"])

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user":   map[string]string{"id": "u1", "username": "alice"},
			"tokens": map[string]string{"accessToken": "A", "refreshToken": "R"},
		})
	}, staticTokens("stale"))

	resp, err := client.Login(context.Background(), "a@b.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, "A", resp.Tokens.AccessToken)
	assert.Equal(t, "R", resp.Tokens.RefreshToken)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestLogin_FailureKeepsServerMessage(t *testing.T) {
	hooks := &fakeHooks{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}, nil)
	client.SetSessionHooks(hooks)

	_, err := client.Login(context.Background(), "a@b.io", "bad")
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
	assert.Equal(t, "Invalid credentials", appErr.Message)
	assert.Zero(t, atomic.LoadInt32(&hooks.refreshCalls), "unauthenticated calls must not refresh")
	assert.Zero(t, atomic.LoadInt32(&hooks.unauthCalls))
}

func TestDo_RefreshAndReplay(t *testing.T) {
	var calls int32
	hooks := &fakeHooks{newToken: "fresh"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"id": "u1"}})
	}, staticTokens("expired"))
	client.SetSessionHooks(hooks)

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hooks.refreshCalls))
	assert.Zero(t, atomic.LoadInt32(&hooks.unauthCalls))
}

func TestDo_RefreshFailsSignalsUnauthorized(t *testing.T) {
	hooks := &fakeHooks{refreshErr: apperrors.New(apperrors.ErrUnauthorized, "refresh rejected")}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
	}, staticTokens("expired"))
	client.SetSessionHooks(hooks)

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hooks.unauthCalls))
}

func TestDo_ReplayStillUnauthorized(t *testing.T) {
	var calls int32
	hooks := &fakeHooks{newToken: "fresh"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "revoked"})
	}, staticTokens("expired"))
	client.SetSessionHooks(hooks)

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "request is replayed at most once")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hooks.unauthCalls))
}

func TestDo_ForbiddenDoesNotSignOut(t *testing.T) {
	hooks := &fakeHooks{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Admin only"})
	}, staticTokens("token"))
	client.SetSessionHooks(hooks)

	_, err := client.AdminStats(context.Background())
	assert.True(t, apperrors.IsForbidden(err))
	assert.Zero(t, atomic.LoadInt32(&hooks.refreshCalls))
	assert.Zero(t, atomic.LoadInt32(&hooks.unauthCalls))
}

func TestDo_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(baseURL, nil)
	require.NoError(t, err)

	_, err = client.Plans(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestDo_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("prono", metrics.WithRegistry(reg))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"pronostic": map[string]string{"id": "p-42"}})
	}, staticTokens("t"), WithMetrics(m))

	p, err := client.GetPronostic(context.Background(), "p-42")
	require.NoError(t, err)
	assert.Equal(t, "p-42", p.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues(http.MethodGet, "/pronostics/{id}", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightRequests.WithLabelValues("/pronostics/{id}")))
}

func TestParseError_Formats(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    apperrors.ErrorCode
		wantMessage string
		wantFields  map[string]string
	}{
		{
			name:        "message",
			status:      http.StatusConflict,
			body:        `{"message":"Email already used"}`,
			wantCode:    apperrors.ErrConflict,
			wantMessage: "Email already used",
		},
		{
			name:        "error string",
			status:      http.StatusBadRequest,
			body:        `{"error":"Plan not found"}`,
			wantCode:    apperrors.ErrValidation,
			wantMessage: "Plan not found",
		},
		{
			name:        "nested error",
			status:      http.StatusNotFound,
			body:        `{"error":{"code":"SESSION_NOT_FOUND","message":"No such session"}}`,
			wantCode:    apperrors.ErrNotFound,
			wantMessage: "No such session",
		},
		{
			name:        "field errors",
			status:      http.StatusBadRequest,
			body:        `{"errors":[{"param":"email","msg":"Invalid email"},{"field":"password","message":"Too short"}]}`,
			wantCode:    apperrors.ErrValidation,
			wantMessage: "Invalid email",
			wantFields:  map[string]string{"email": "Invalid email", "password": "Too short"},
		},
		{
			name:        "html body",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantCode:    apperrors.ErrUnavailable,
			wantMessage: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := apperrors.As(parseError(tt.status, []byte(tt.body)))
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMessage, appErr.Message)
			assert.Equal(t, tt.status, appErr.StatusCode)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, appErr.Fields)
			}
		})
	}
}
