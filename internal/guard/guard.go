package guard

import (
	"net/url"

	"PronosticsPlatform/internal/session"
)

const (
	DefaultLoginPath   = "/login"
	DefaultPricingPath = "/pricing"
)

// Kind вариант решения охранника маршрута
type Kind int

const (
	Allow Kind = iota
	Loading
	Redirect
	Forbidden
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Requirement требования защищенного маршрута
type Requirement struct {
	RequireAdmin              bool
	RequireSubscription       bool
	RedirectIfUnauthenticated string
	UpsellPath                string
}

// Decision результат проверки.
// Для Redirect: To куда перейти, From исходный адрес для возврата.
// Для Forbidden: Reason объяснение, Escape куда можно уйти.
type Decision struct {
	Kind   Kind
	To     string
	From   string
	Reason string
	Escape string
}

// URL адрес перехода с исходным адресом в параметре from
func (d Decision) URL() string {
	if d.Kind != Redirect {
		return ""
	}
	if d.From == "" {
		return d.To
	}
	return d.To + "?" + url.Values{"from": {d.From}}.Encode()
}

const (
	reasonAdminOnly = "Раздел доступен только администраторам"
	escapeHome      = "/pronostics"
)

// Decide проверяет доступ к location. Порядок проверок фиксирован:
// загрузка, вход, роль, подписка.
func Decide(s session.State, req Requirement, location string) Decision {
	if s.Loading {
		return Decision{Kind: Loading}
	}

	if !s.IsAuthenticated || s.User == nil {
		to := req.RedirectIfUnauthenticated
		if to == "" {
			to = DefaultLoginPath
		}
		return Decision{Kind: Redirect, To: to, From: location}
	}

	if req.RequireAdmin && !s.IsAdmin() {
		return Decision{Kind: Forbidden, Reason: reasonAdminOnly, Escape: escapeHome}
	}

	if req.RequireSubscription && !s.HasActiveSubscription() {
		to := req.UpsellPath
		if to == "" {
			to = DefaultPricingPath
		}
		return Decision{Kind: Redirect, To: to, From: location}
	}

	return Decision{Kind: Allow}
}
