package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/pronostics"
)

func sampleUser() *api.User {
	return &api.User{ID: "u1", Username: "alice", Email: "alice@example.com", Role: api.RoleUser, SubscriptionStatus: api.SubscriptionActive}
}

func TestTableFormatter_UserView(t *testing.T) {
	out, err := GetFormatter(FormatTable).Format(UserView{User: sampleUser()})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "Поле"))
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "active")
}

func TestTableData_Empty(t *testing.T) {
	td := NewTableData("A", "B")
	assert.Contains(t, td.String(), "Нет данных")
}

func TestJSONFormatter_UsesRaw(t *testing.T) {
	out, err := GetFormatter(FormatJSON).Format(UserView{User: sampleUser()})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, "active", decoded["subscriptionStatus"])
}

func TestYAMLFormatter_UsesJSONKeys(t *testing.T) {
	out, err := GetFormatter(FormatYAML).Format(UserView{User: sampleUser()})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, "active", decoded["subscriptionStatus"])
}

func TestPronosticsView_GroupsShowDayOnce(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	page := &pronostics.Page{
		Page: 1, TotalPages: 1, TotalItems: 2,
		Groups: []pronostics.Group{{
			Date: day,
			Items: []api.Pronostic{
				{ID: "p1", HomeTeam: "PSG", AwayTeam: "OM", MatchDate: day.Add(18 * time.Hour), Odds: 1.8},
				{ID: "p2", HomeTeam: "OL", AwayTeam: "LOSC", MatchDate: day.Add(21 * time.Hour), IsPremium: true},
			},
		}},
	}

	td := PronosticsView{Page: page}.Table()
	require.Len(t, td.Rows, 2)
	assert.Equal(t, "10.03.2026", td.Rows[0][0])
	assert.Empty(t, td.Rows[1][0])
	assert.Equal(t, "18:00", td.Rows[0][1])
	assert.Equal(t, "1.80", td.Rows[0][5])
	assert.Equal(t, "-", td.Rows[1][5])
	assert.True(t, strings.HasSuffix(td.Rows[1][6], "*"))
}

func TestDetailView_Locked(t *testing.T) {
	td := DetailView{Detail: &pronostics.Detail{Pronostic: api.Pronostic{IsPremium: true}, Locked: true}}.Table()
	assert.Contains(t, td.String(), "по подписке")
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)

	require.NoError(t, p.Print("готово"))
	p.Line("итого: %d", 3)
	assert.Equal(t, "готово\nитого: 3\n", buf.String())
}

func TestFormatExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "неизвестно", FormatExpiry(time.Time{}, false, now))
	assert.Contains(t, FormatExpiry(now.Add(-time.Minute), true, now), "истек")
	assert.Contains(t, FormatExpiry(now.Add(90*time.Minute), true, now), "1h30m0s")
}
