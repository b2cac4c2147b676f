package session

import (
	"PronosticsPlatform/internal/api"
)

// Reduce возвращает следующее состояние сессии. Функция чистая:
// входное состояние не меняется, профиль копируется.
func Reduce(s State, e Event) State {
	next := s.clone()

	switch ev := e.(type) {
	case BootstrapSucceeded:
		return authenticated(ev.User)
	case LoginSucceeded:
		return authenticated(ev.User)
	case RegisterSucceeded:
		return authenticated(ev.User)

	case BootstrapFailed:
		return State{Phase: PhaseUnauthenticated}
	case LoggedOut:
		return State{Phase: PhaseUnauthenticated}

	case LoginStarted, RegisterStarted:
		return State{Phase: PhaseAuthenticating, Loading: true}

	case LoginFailed:
		return State{Phase: PhaseUnauthenticated, Error: ev.Message}
	case RegisterFailed:
		return State{Phase: PhaseUnauthenticated, Error: ev.Message}

	case UserUpdated:
		if next.User != nil {
			next.User = ev.Patch.apply(next.User)
		}
		return next
	case UserReplaced:
		// поздний ответ после выхода не восстанавливает сессию
		if ev.User == nil || !next.IsAuthenticated {
			return next
		}
		next.User = ev.User.Clone()
		return next
	case SubscriptionStatusChanged:
		if next.User != nil {
			next.User.SubscriptionStatus = ev.Status
		}
		return next
	}

	return next
}

// authenticated переводит сессию в Authenticated вместе с профилем.
// Без профиля переход не выполняется.
func authenticated(user *api.User) State {
	if user == nil {
		return State{Phase: PhaseUnauthenticated}
	}
	return State{
		Phase:           PhaseAuthenticated,
		IsAuthenticated: true,
		User:            user.Clone(),
	}
}
