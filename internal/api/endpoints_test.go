package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body refreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body.RefreshToken)

		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "A2"})
	}, staticTokens("A1"))

	tokens, err := client.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", tokens.AccessToken)
	assert.Equal(t, "R1", tokens.RefreshToken)
}

func TestRefresh_EmptyAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": map[string]string{}})
	}, nil)

	_, err := client.Refresh(context.Background(), "R1")
	assert.Error(t, err)
}

func TestRegister_MissingTokens(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"user": map[string]string{"id": "u1"}})
	}, nil)

	_, err := client.Register(context.Background(), RegisterRequest{Username: "bob", Email: "b@b.io", Password: "pw123456"})
	assert.Error(t, err)
}

func TestListPronostics_QueryAndShapes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "football", r.URL.Query().Get("sport"))
		assert.Equal(t, "won", r.URL.Query().Get("status"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": "p1", "sport": "football", "status": "won"},
		})
	}, staticTokens("t"))

	list, err := client.ListPronostics(context.Background(), PronosticQuery{Sport: "football", Status: PronosticWon, Limit: 50})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)
}

func TestCheckoutSession_PaidDetection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscriptions/session/cs_test_1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"id": "cs_test_1", "payment_status": "paid", "status": "complete"})
	}, staticTokens("t"))

	session, err := client.CheckoutSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.True(t, session.IsPaid())

	assert.True(t, (&CheckoutSession{Status: "paid"}).IsPaid())
	assert.False(t, (&CheckoutSession{PaymentStatus: "unpaid", Status: "open"}).IsPaid())
	assert.False(t, (*CheckoutSession)(nil).IsPaid())
}

func TestSyncFromStripe_ReturnsUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body sessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cs_1", body.SessionID)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user":    map[string]string{"id": "u1", "subscriptionStatus": "active"},
		})
	}, staticTokens("t"))

	user, err := client.SyncFromStripe(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionActive, user.SubscriptionStatus)
}

func TestSubscriptionStatus_Defaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"subscriptionStatus": "expired"})
	}, staticTokens("t"))

	summary, err := client.SubscriptionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SubscriptionExpired, summary.Status)
}

func TestCreateCheckoutSession_RequiresURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"sessionId": "cs_1"})
	}, staticTokens("t"))

	_, err := client.CreateCheckoutSession(context.Background(), "monthly")
	assert.Error(t, err)
}

func TestAdminUsers_Pagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"users": []map[string]string{{"id": "u1"}, {"id": "u2"}},
		})
	}, staticTokens("t"))

	page, err := client.AdminUsers(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Page)
}

func TestDeletePronostic_EscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/admin/pronostics/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}, staticTokens("t"))

	require.NoError(t, client.DeletePronostic(context.Background(), "a/b"))
}

func TestUserClone(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Clone())

	u := &User{ID: "u1", Username: "alice"}
	cp := u.Clone()
	cp.Username = "bob"
	assert.Equal(t, "alice", u.Username)
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}, staticTokens("t"))
	require.NoError(t, client.Ping(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)
	assert.Error(t, down.Ping(context.Background()))
}

func TestPlans_DecimalPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"plans":[{"id":"monthly","name":"Premium","price":9.99,"currency":"eur","interval":"month"}]}`))
	}, staticTokens("t"))

	plans, err := client.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "9.99", plans[0].Price.StringFixed(2))
}
