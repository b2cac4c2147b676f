package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"PronosticsPlatform/internal/admin"
	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/checkout"
	"PronosticsPlatform/internal/pronostics"
)

const dateLayout = "02.01.2006"
const timeLayout = "15:04"

// UserView карточка пользователя
type UserView struct{ User *api.User }

func (v UserView) Raw() interface{} { return v.User }

func (v UserView) Table() *TableData {
	td := NewTableData("Поле", "Значение")
	if v.User == nil {
		return td
	}
	u := v.User
	td.AddRow("ID", u.ID)
	td.AddRow("Имя пользователя", u.Username)
	td.AddRow("Email", u.Email)
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		td.AddRow("Имя", name)
	}
	td.AddRow("Роль", string(u.Role))
	td.AddRow("Подписка", string(u.SubscriptionStatus))
	if u.SubscriptionPlan != "" {
		td.AddRow("Тариф", u.SubscriptionPlan)
	}
	if u.SubscriptionEndDate != nil {
		td.AddRow("Действует до", u.SubscriptionEndDate.Format(dateLayout))
	}
	return td
}

// PronosticsView страница списка прогнозов
type PronosticsView struct {
	Page *pronostics.Page
}

func (v PronosticsView) Raw() interface{} { return v.Page }

func (v PronosticsView) Table() *TableData {
	td := NewTableData("Дата", "Время", "Спорт", "Матч", "Прогноз", "Коэф.", "Статус", "ID")
	td.Title = fmt.Sprintf("Страница %d из %d, всего %d. Процент побед: %.1f%%",
		v.Page.Page, v.Page.TotalPages, v.Page.TotalItems, v.Page.Summary.WinRate)

	for _, g := range v.Page.Groups {
		day := g.Date.Format(dateLayout)
		for _, p := range g.Items {
			td.AddRow(day, p.MatchDate.In(g.Date.Location()).Format(timeLayout), p.Sport,
				p.HomeTeam+" - "+p.AwayTeam, p.Prediction, formatOdds(p.Odds), statusLabel(p), p.ID)
			day = ""
		}
	}
	return td
}

// DetailView карточка прогноза
type DetailView struct {
	Detail *pronostics.Detail
}

func (v DetailView) Raw() interface{} { return v.Detail }

func (v DetailView) Table() *TableData {
	p := v.Detail.Pronostic
	td := NewTableData("Поле", "Значение")
	td.AddRow("Матч", p.HomeTeam+" - "+p.AwayTeam)
	td.AddRow("Турнир", p.Competition)
	td.AddRow("Спорт", p.Sport)
	td.AddRow("Дата", p.MatchDate.Local().Format(dateLayout+" "+timeLayout))
	td.AddRow("Прогноз", p.Prediction)
	td.AddRow("Коэффициент", formatOdds(p.Odds))
	td.AddRow("Уверенность", strconv.Itoa(p.Confidence)+"%")
	td.AddRow("Статус", statusLabel(p))

	switch {
	case v.Detail.Locked:
		td.AddRow("Анализ", "доступен по подписке, см. pronoctl plans")
	case p.Analysis != "":
		td.AddRow("Анализ", p.Analysis)
	}
	return td
}

// PlansView тарифы
type PlansView struct{ Plans []api.Plan }

func (v PlansView) Raw() interface{} { return v.Plans }

func (v PlansView) Table() *TableData {
	td := NewTableData("ID", "Тариф", "Цена", "Период", "Возможности")
	for _, p := range v.Plans {
		td.AddRow(p.ID, p.Name, p.Price.StringFixed(2)+" "+strings.ToUpper(p.Currency),
			p.Interval, strings.Join(p.Features, ", "))
	}
	return td
}

// ConfirmationView итог подтверждения оплаты
type ConfirmationView struct{ Confirmation *checkout.Confirmation }

func (v ConfirmationView) Raw() interface{} { return v.Confirmation }

func (v ConfirmationView) Table() *TableData {
	c := v.Confirmation
	td := NewTableData("Поле", "Значение")
	td.AddRow("Результат", string(c.Status))
	td.AddRow("Попыток проверки", strconv.Itoa(c.Attempts))
	td.AddRow("Сообщение", c.Message)
	if c.User != nil {
		td.AddRow("Подписка", string(c.User.SubscriptionStatus))
	}
	return td
}

// DashboardView панель администратора
type DashboardView struct{ Dashboard *admin.Dashboard }

func (v DashboardView) Raw() interface{} { return v.Dashboard }

func (v DashboardView) Table() *TableData {
	s := v.Dashboard.Stats
	td := NewTableData("Показатель", "Значение")
	td.AddRow("Пользователей", strconv.Itoa(s.TotalUsers))
	td.AddRow("Активных подписок", strconv.Itoa(s.ActiveSubscriptions))
	td.AddRow("Прогнозов", strconv.Itoa(s.TotalPronostics))
	td.AddRow("Процент побед", fmt.Sprintf("%.1f%%", s.WinRate))
	td.AddRow("Выручка за месяц", s.MonthlyRevenue.StringFixed(2))
	for _, u := range v.Dashboard.RecentUsers {
		td.AddRow("Новый пользователь", u.Username+" <"+u.Email+">")
	}
	return td
}

// UsersView список пользователей
type UsersView struct{ Page *api.UserPage }

func (v UsersView) Raw() interface{} { return v.Page }

func (v UsersView) Table() *TableData {
	td := NewTableData("ID", "Имя пользователя", "Email", "Роль", "Подписка", "Создан")
	td.Title = fmt.Sprintf("Страница %d, всего %d", v.Page.Page, v.Page.Total)
	for _, u := range v.Page.Users {
		created := ""
		if u.CreatedAt != nil {
			created = u.CreatedAt.Format(dateLayout)
		}
		td.AddRow(u.ID, u.Username, u.Email, string(u.Role), string(u.SubscriptionStatus), created)
	}
	return td
}

func formatOdds(odds float64) string {
	if odds == 0 {
		return "-"
	}
	return strconv.FormatFloat(odds, 'f', 2, 64)
}

func statusLabel(p api.Pronostic) string {
	label := string(p.Status)
	if p.IsPremium {
		label += " *"
	}
	return label
}

// FormatExpiry срок действия токена для вывода
func FormatExpiry(exp time.Time, ok bool, now time.Time) string {
	if !ok {
		return "неизвестно"
	}
	if !exp.After(now) {
		return "истек " + exp.Local().Format(dateLayout+" "+timeLayout)
	}
	return exp.Local().Format(dateLayout+" "+timeLayout) + " (через " + exp.Sub(now).Round(time.Minute).String() + ")"
}
