package session

import (
	"PronosticsPlatform/internal/api"
)

// Event событие, меняющее состояние сессии.
// Набор событий закрыт: реализации есть только в этом пакете.
type Event interface {
	eventName() string
}

type (
	// BootstrapSucceeded профиль по сохраненному токену загружен
	BootstrapSucceeded struct{ User *api.User }
	// BootstrapFailed токена нет или профиль не загрузился
	BootstrapFailed struct{}

	LoginStarted   struct{}
	LoginSucceeded struct{ User *api.User }
	LoginFailed    struct{ Message string }

	RegisterStarted   struct{}
	RegisterSucceeded struct{ User *api.User }
	RegisterFailed    struct{ Message string }

	// LoggedOut локальная очистка сессии (выход или принудительный выход)
	LoggedOut struct{}

	// UserUpdated локальное слияние полей профиля
	UserUpdated struct{ Patch UserPatch }
	// UserReplaced профиль заменен ответом сервера целиком
	UserReplaced struct{ User *api.User }
	// SubscriptionStatusChanged меняет только статус подписки
	SubscriptionStatusChanged struct{ Status api.SubscriptionStatus }
)

func (BootstrapSucceeded) eventName() string        { return "bootstrap_succeeded" }
func (BootstrapFailed) eventName() string           { return "bootstrap_failed" }
func (LoginStarted) eventName() string              { return "login_started" }
func (LoginSucceeded) eventName() string            { return "login_succeeded" }
func (LoginFailed) eventName() string               { return "login_failed" }
func (RegisterStarted) eventName() string           { return "register_started" }
func (RegisterSucceeded) eventName() string         { return "register_succeeded" }
func (RegisterFailed) eventName() string            { return "register_failed" }
func (LoggedOut) eventName() string                 { return "logged_out" }
func (UserUpdated) eventName() string               { return "user_updated" }
func (UserReplaced) eventName() string              { return "user_replaced" }
func (SubscriptionStatusChanged) eventName() string { return "subscription_status_changed" }

// EventName имя события для логов и метрик
func EventName(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}
