package pronostics

import (
	"sort"
	"time"

	"PronosticsPlatform/internal/api"
)

// Period переключатель периода списка
type Period string

const (
	PeriodToday    Period = "today"
	PeriodTomorrow Period = "tomorrow"
	PeriodWeek     Period = "week"
	PeriodUpcoming Period = "upcoming"
	PeriodHistory  Period = "history"
	PeriodAll      Period = "all"
)

// Periods все допустимые периоды
var Periods = []string{
	string(PeriodToday), string(PeriodTomorrow), string(PeriodWeek),
	string(PeriodUpcoming), string(PeriodHistory), string(PeriodAll),
}

// DefaultPageSize размер страницы по умолчанию
const DefaultPageSize = 10

// Filter параметры представления списка
type Filter struct {
	Period   Period
	Sport    string
	Status   api.PronosticStatus
	Page     int
	PageSize int
}

// Group прогнозы одного календарного дня
type Group struct {
	Date  time.Time
	Items []api.Pronostic
}

// Summary статистика завершенных прогнозов
type Summary struct {
	Total   int
	Won     int
	Lost    int
	Void    int
	Pending int
	WinRate float64
}

// Page страница списка
type Page struct {
	Groups     []Group
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	Summary    Summary
}

// Apply фильтрует, сортирует, разбивает на страницы и группирует по дням.
// День определяется в часовом поясе loc.
func Apply(list []api.Pronostic, f Filter, now time.Time, loc *time.Location) Page {
	if loc == nil {
		loc = time.Local
	}
	if f.Period == "" {
		f.Period = PeriodAll
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}

	filtered := make([]api.Pronostic, 0, len(list))
	for _, p := range list {
		if f.Sport != "" && p.Sport != f.Sport {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if !inPeriod(p, f.Period, now, loc) {
			continue
		}
		filtered = append(filtered, p)
	}

	descending := f.Period == PeriodHistory
	sort.SliceStable(filtered, func(i, j int) bool {
		if descending {
			return filtered[i].MatchDate.After(filtered[j].MatchDate)
		}
		return filtered[i].MatchDate.Before(filtered[j].MatchDate)
	})

	page := Page{
		PageSize:   f.PageSize,
		TotalItems: len(filtered),
		TotalPages: (len(filtered) + f.PageSize - 1) / f.PageSize,
		Summary:    Summarize(filtered),
	}

	page.Page = f.Page
	if page.Page < 1 || page.TotalPages == 0 {
		page.Page = 1
	}
	if page.TotalPages > 0 && page.Page > page.TotalPages {
		page.Page = page.TotalPages
	}

	start := (page.Page - 1) * f.PageSize
	end := start + f.PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	page.Groups = groupByDay(filtered[start:end], loc)
	return page
}

func inPeriod(p api.Pronostic, period Period, now time.Time, loc *time.Location) bool {
	today := startOfDay(now, loc)
	date := p.MatchDate.In(loc)

	switch period {
	case PeriodToday:
		return within(date, today, today.AddDate(0, 0, 1))
	case PeriodTomorrow:
		return within(date, today.AddDate(0, 0, 1), today.AddDate(0, 0, 2))
	case PeriodWeek:
		return within(date, today, today.AddDate(0, 0, 7))
	case PeriodUpcoming:
		return p.Status == api.PronosticPending && !date.Before(today)
	case PeriodHistory:
		return isFinished(p) || date.Before(today)
	}
	return true
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func isFinished(p api.Pronostic) bool {
	switch p.Status {
	case api.PronosticWon, api.PronosticLost, api.PronosticVoid:
		return true
	}
	return false
}

// groupByDay группирует уже отсортированный список, сохраняя порядок
func groupByDay(list []api.Pronostic, loc *time.Location) []Group {
	groups := []Group{}
	for _, p := range list {
		day := startOfDay(p.MatchDate, loc)
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(day) {
			groups[n-1].Items = append(groups[n-1].Items, p)
			continue
		}
		groups = append(groups, Group{Date: day, Items: []api.Pronostic{p}})
	}
	return groups
}

// Summarize считает результаты. WinRate в процентах от won+lost.
func Summarize(list []api.Pronostic) Summary {
	var s Summary
	for _, p := range list {
		s.Total++
		switch p.Status {
		case api.PronosticWon:
			s.Won++
		case api.PronosticLost:
			s.Lost++
		case api.PronosticVoid:
			s.Void++
		default:
			s.Pending++
		}
	}
	if decided := s.Won + s.Lost; decided > 0 {
		s.WinRate = float64(s.Won) * 100 / float64(decided)
	}
	return s
}
