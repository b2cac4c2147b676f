package session

import (
	"time"

	"PronosticsPlatform/internal/api"
)

// Phase фаза жизненного цикла сессии
type Phase string

const (
	PhaseBootstrapping   Phase = "bootstrapping"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseAuthenticating  Phase = "authenticating"
	PhaseAuthenticated   Phase = "authenticated"
)

// State снимок состояния сессии.
// IsAuthenticated == true всегда означает User != nil.
type State struct {
	Phase           Phase
	IsAuthenticated bool
	User            *api.User
	Loading         bool
	Error           string
}

// Initial состояние до проверки сохраненных токенов
func Initial() State {
	return State{Phase: PhaseBootstrapping, Loading: true}
}

// HasActiveSubscription true только для статуса active
func (s State) HasActiveSubscription() bool {
	return s.User != nil && s.User.SubscriptionStatus == api.SubscriptionActive
}

// IsAdmin true для пользователя с ролью admin
func (s State) IsAdmin() bool {
	return s.User != nil && s.User.Role == api.RoleAdmin
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

// UserPatch частичное изменение профиля. nil поля не меняются.
type UserPatch struct {
	Username            *string
	Email               *string
	FirstName           *string
	LastName            *string
	Role                *api.Role
	SubscriptionStatus  *api.SubscriptionStatus
	SubscriptionPlan    *string
	SubscriptionEndDate *time.Time
}

// PatchFromUpdate строит патч по отправленному на сервер изменению профиля
func PatchFromUpdate(update api.ProfileUpdate) UserPatch {
	return UserPatch{
		Username:  update.Username,
		Email:     update.Email,
		FirstName: update.FirstName,
		LastName:  update.LastName,
	}
}

// apply возвращает копию профиля с примененным патчем
func (p UserPatch) apply(u *api.User) *api.User {
	out := u.Clone()
	if p.Username != nil {
		out.Username = *p.Username
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.SubscriptionStatus != nil {
		out.SubscriptionStatus = *p.SubscriptionStatus
	}
	if p.SubscriptionPlan != nil {
		out.SubscriptionPlan = *p.SubscriptionPlan
	}
	if p.SubscriptionEndDate != nil {
		end := *p.SubscriptionEndDate
		out.SubscriptionEndDate = &end
	}
	return out
}
