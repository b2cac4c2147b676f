package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role роль пользователя
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// SubscriptionStatus состояние подписки пользователя
type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// User профиль пользователя
type User struct {
	ID                  string             `json:"id"`
	Username            string             `json:"username"`
	Email               string             `json:"email"`
	FirstName           string             `json:"firstName,omitempty"`
	LastName            string             `json:"lastName,omitempty"`
	Role                Role               `json:"role"`
	SubscriptionStatus  SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionPlan    string             `json:"subscriptionPlan,omitempty"`
	SubscriptionEndDate *time.Time         `json:"subscriptionEndDate,omitempty"`
	CreatedAt           *time.Time         `json:"createdAt,omitempty"`
}

// Clone возвращает независимую копию профиля
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.SubscriptionEndDate != nil {
		end := *u.SubscriptionEndDate
		cp.SubscriptionEndDate = &end
	}
	if u.CreatedAt != nil {
		created := *u.CreatedAt
		cp.CreatedAt = &created
	}
	return &cp
}

// RegisterRequest данные регистрации
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ProfileUpdate изменяемые поля профиля
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// SubscriptionSummary краткое состояние подписки
type SubscriptionSummary struct {
	Status  SubscriptionStatus `json:"status"`
	Plan    string             `json:"plan,omitempty"`
	EndDate *time.Time         `json:"endDate,omitempty"`
}

// PronosticStatus результат прогноза
type PronosticStatus string

const (
	PronosticPending PronosticStatus = "pending"
	PronosticWon     PronosticStatus = "won"
	PronosticLost    PronosticStatus = "lost"
	PronosticVoid    PronosticStatus = "void"
)

// Pronostic прогноз на матч
type Pronostic struct {
	ID          string          `json:"id"`
	Sport       string          `json:"sport"`
	Competition string          `json:"competition"`
	HomeTeam    string          `json:"homeTeam"`
	AwayTeam    string          `json:"awayTeam"`
	Prediction  string          `json:"prediction"`
	Odds        float64         `json:"odds"`
	Confidence  int             `json:"confidence"`
	MatchDate   time.Time       `json:"matchDate"`
	Status      PronosticStatus `json:"status"`
	IsPremium   bool            `json:"isPremium"`
	Analysis    string          `json:"analysis,omitempty"`
}

// PronosticQuery серверные фильтры списка прогнозов
type PronosticQuery struct {
	Sport  string
	Status PronosticStatus
	From   time.Time
	To     time.Time
	Limit  int
}

// PronosticInput данные нового прогноза (админка)
type PronosticInput struct {
	Sport       string    `json:"sport"`
	Competition string    `json:"competition"`
	HomeTeam    string    `json:"homeTeam"`
	AwayTeam    string    `json:"awayTeam"`
	Prediction  string    `json:"prediction"`
	Odds        float64   `json:"odds"`
	Confidence  int       `json:"confidence"`
	MatchDate   time.Time `json:"matchDate"`
	IsPremium   bool      `json:"isPremium"`
	Analysis    string    `json:"analysis,omitempty"`
}

// Plan тариф подписки
type Plan struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Interval string          `json:"interval"`
	Features []string        `json:"features,omitempty"`
}

// CheckoutStart ответ на создание сессии оплаты
type CheckoutStart struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutSession состояние сессии оплаты у платежного провайдера
type CheckoutSession struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// IsPaid сообщает, подтвердил ли провайдер оплату
func (s *CheckoutSession) IsPaid() bool {
	if s == nil {
		return false
	}
	return s.PaymentStatus == "paid" || s.Status == "paid"
}

// AdminStats сводка для панели администратора
type AdminStats struct {
	TotalUsers          int             `json:"totalUsers"`
	ActiveSubscriptions int             `json:"activeSubscriptions"`
	TotalPronostics     int             `json:"totalPronostics"`
	WinRate             float64         `json:"winRate"`
	MonthlyRevenue      decimal.Decimal `json:"monthlyRevenue"`
}

// UserPage страница списка пользователей
type UserPage struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
}
