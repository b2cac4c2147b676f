package guard

import (
	"net/url"
	"strings"

	"PronosticsPlatform/internal/session"
)

// Route маршрут приложения. Requirement == nil для публичных маршрутов.
type Route struct {
	Name        string
	Pattern     string
	Requirement *Requirement
}

// Match найденный маршрут и параметры пути
type Match struct {
	Route  Route
	Params map[string]string
}

// DefaultRoutes таблица маршрутов клиента
func DefaultRoutes(loginPath, pricingPath string) []Route {
	auth := func(admin, subscription bool) *Requirement {
		return &Requirement{
			RequireAdmin:              admin,
			RequireSubscription:       subscription,
			RedirectIfUnauthenticated: loginPath,
			UpsellPath:                pricingPath,
		}
	}

	return []Route{
		{Name: "pricing", Pattern: pricingPath},
		{Name: "login", Pattern: loginPath},
		{Name: "register", Pattern: "/register"},
		{Name: "pronostics", Pattern: "/pronostics", Requirement: auth(false, false)},
		{Name: "pronostic", Pattern: "/pronostics/{id}", Requirement: auth(false, true)},
		{Name: "profile", Pattern: "/profile", Requirement: auth(false, false)},
		{Name: "checkout", Pattern: "/checkout", Requirement: auth(false, false)},
		{Name: "checkout_success", Pattern: "/checkout/success", Requirement: auth(false, false)},
		{Name: "admin", Pattern: "/admin", Requirement: auth(true, false)},
	}
}

// StateSource источник состояния сессии
type StateSource interface {
	State() session.State
}

// Router сопоставляет адрес с маршрутом и проверяет доступ
type Router struct {
	routes []Route
	source StateSource
}

// NewRouter создает роутер
func NewRouter(source StateSource, routes []Route) *Router {
	return &Router{routes: routes, source: source}
}

// Resolve ищет маршрут для адреса; query строка игнорируется
func (r *Router) Resolve(location string) (Match, bool) {
	path := location
	if u, err := url.Parse(location); err == nil {
		path = u.Path
	}
	path = "/" + strings.Trim(path, "/")

	for _, route := range r.routes {
		if params, ok := matchPattern(route.Pattern, path); ok {
			return Match{Route: route, Params: params}, true
		}
	}
	return Match{}, false
}

// Navigate принимает решение о переходе на location
func (r *Router) Navigate(location string) (Decision, Match) {
	match, ok := r.Resolve(location)
	if !ok {
		return Decision{Kind: NotFound, Reason: "Страница не найдена", Escape: escapeHome}, Match{}
	}
	if match.Route.Requirement == nil {
		return Decision{Kind: Allow}, match
	}
	return Decide(r.source.State(), *match.Route.Requirement, location), match
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return nil, false
	}

	params := map[string]string{}
	for i, segment := range want {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			if got[i] == "" {
				return nil, false
			}
			params[strings.Trim(segment, "{}")] = got[i]
			continue
		}
		if segment != got[i] {
			return nil, false
		}
	}
	return params, true
}
