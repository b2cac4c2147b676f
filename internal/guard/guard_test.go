package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/session"
)

func signedIn(role api.Role, status api.SubscriptionStatus) session.State {
	return session.State{
		Phase:           session.PhaseAuthenticated,
		IsAuthenticated: true,
		User:            &api.User{ID: "u1", Role: role, SubscriptionStatus: status},
	}
}

func requirements() []Requirement {
	var out []Requirement
	for _, admin := range []bool{false, true} {
		for _, sub := range []bool{false, true} {
			out = append(out, Requirement{RequireAdmin: admin, RequireSubscription: sub, RedirectIfUnauthenticated: "/login"})
		}
	}
	return out
}

func TestDecide_LoadingFirst(t *testing.T) {
	for _, req := range requirements() {
		d := Decide(session.Initial(), req, "/admin")
		assert.Equal(t, Loading, d.Kind)
	}
}

func TestDecide_UnauthenticatedAlwaysRedirects(t *testing.T) {
	anonymous := session.State{Phase: session.PhaseUnauthenticated}

	for _, req := range requirements() {
		d := Decide(anonymous, req, "/pronostics/42")
		assert.Equal(t, Redirect, d.Kind, "%+v", req)
		assert.Equal(t, "/login", d.To)
		assert.Equal(t, "/pronostics/42", d.From)
	}
}

func TestDecide_NonAdminForbiddenNotRedirected(t *testing.T) {
	for _, status := range []api.SubscriptionStatus{api.SubscriptionNone, api.SubscriptionActive} {
		for _, sub := range []bool{false, true} {
			d := Decide(signedIn(api.RoleUser, status), Requirement{RequireAdmin: true, RequireSubscription: sub}, "/admin")
			assert.Equal(t, Forbidden, d.Kind)
			assert.Empty(t, d.To)
			assert.NotEmpty(t, d.Reason)
			assert.NotEmpty(t, d.Escape)
		}
	}
}

func TestDecide_NoSubscriptionRedirectsToUpsell(t *testing.T) {
	for _, status := range []api.SubscriptionStatus{api.SubscriptionNone, api.SubscriptionExpired, api.SubscriptionCancelled} {
		d := Decide(signedIn(api.RoleUser, status), Requirement{RequireSubscription: true}, "/pronostics/7")
		assert.Equal(t, Redirect, d.Kind)
		assert.Equal(t, DefaultPricingPath, d.To)
		assert.Equal(t, "/pronostics/7", d.From)
	}
}

func TestDecide_Allow(t *testing.T) {
	assert.Equal(t, Allow, Decide(signedIn(api.RoleUser, api.SubscriptionActive), Requirement{RequireSubscription: true}, "/x").Kind)
	assert.Equal(t, Allow, Decide(signedIn(api.RoleAdmin, api.SubscriptionNone), Requirement{RequireAdmin: true}, "/admin").Kind)
	assert.Equal(t, Allow, Decide(signedIn(api.RoleUser, api.SubscriptionNone), Requirement{}, "/profile").Kind)
}

func TestDecision_URL(t *testing.T) {
	d := Decision{Kind: Redirect, To: "/login", From: "/pronostics/42?tab=analysis"}
	assert.Equal(t, "/login?from=%2Fpronostics%2F42%3Ftab%3Danalysis", d.URL())

	assert.Equal(t, "/login", Decision{Kind: Redirect, To: "/login"}.URL())
	assert.Empty(t, Decision{Kind: Allow}.URL())
}

type fixedState session.State

func (f fixedState) State() session.State { return session.State(f) }

func TestRouter_Navigate(t *testing.T) {
	router := NewRouter(fixedState(signedIn(api.RoleUser, api.SubscriptionNone)), DefaultRoutes("/login", "/pricing"))

	tests := []struct {
		location string
		kind     Kind
		route    string
		to       string
	}{
		{location: "/pricing", kind: Allow, route: "pricing"},
		{location: "/pronostics", kind: Allow, route: "pronostics"},
		{location: "/pronostics/42", kind: Redirect, route: "pronostic", to: "/pricing"},
		{location: "/profile/", kind: Allow, route: "profile"},
		{location: "/checkout/success?session_id=cs_1", kind: Allow, route: "checkout_success"},
		{location: "/admin", kind: Forbidden, route: "admin"},
		{location: "/nowhere", kind: NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			d, match := router.Navigate(tt.location)
			assert.Equal(t, tt.kind, d.Kind, d.Kind.String())
			assert.Equal(t, tt.route, match.Route.Name)
			assert.Equal(t, tt.to, d.To)
		})
	}
}

func TestRouter_ResolveParams(t *testing.T) {
	router := NewRouter(fixedState(session.State{}), DefaultRoutes(DefaultLoginPath, DefaultPricingPath))

	match, ok := router.Resolve("/pronostics/abc-123")
	require.True(t, ok)
	assert.Equal(t, "abc-123", match.Params["id"])

	_, ok = router.Resolve("/pronostics/abc/extra")
	assert.False(t, ok)
}
