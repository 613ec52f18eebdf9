package bot

import (
	"fmt"
	"testing"
	"time"

	"match-predictor/config"
	"match-predictor/internal/clock"
	"match-predictor/internal/db/dbtest"
	"match-predictor/internal/handlers"
	"match-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin = int64(1)

var cairo = clock.MustZone("Africa/Cairo")

type env struct {
	b     *Bot
	base  models.Handler
	clock *clock.Fixed
	f     dbtest.Fixture
}

func newEnv(t *testing.T) env {
	t.Helper()
	base, c := dbtest.Base(t, cairo.At(2024, 1, 8, 12, 0))
	f := dbtest.Seed(t, base.DB)
	cfg := &config.Config{Admins: []int64{admin}}
	return env{b: New(cfg, handlers.New(base), base), base: base, clock: c, f: f}
}

func (e env) lastMatch(t *testing.T) models.Match {
	t.Helper()
	var m models.Match
	require.NoError(t, e.base.DB.Order("id DESC").First(&m).Error)
	return m
}

func (e env) chat(p models.Player, text string) string {
	return e.b.Reply(p.ChatID, p.Username, text)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in         string
		home, away int
		ok         bool
	}{
		{"2-1", 2, 1, true},
		{"0:0", 0, 0, true},
		{"10-3", 10, 3, true},
		{"", 0, 0, false},
		{"2", 0, 0, false},
		{"-1", 0, 0, false},
		{"2-", 0, 0, false},
		{"a-b", 0, 0, false},
		{"2-1-1", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			home, away, err := ParseScore(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.home, home)
			assert.Equal(t, tt.away, away)
		})
	}
}

func TestTimeLeft(t *testing.T) {
	tests := []struct {
		left time.Duration
		text string
		icon string
	}{
		{-time.Minute, "Deadline passed!", "❌"},
		{0, "Deadline passed!", "❌"},
		{30*time.Minute + 20*time.Second, "30 minute(s) left", "⏳"},
		{90 * time.Minute, "1.5 hour(s) left", "⏰"},
		{36 * time.Hour, "1.5 day(s) left", "📅"},
	}
	for _, tt := range tests {
		text, icon := TimeLeft(tt.left)
		assert.Equal(t, tt.text, text, tt.left.String())
		assert.Equal(t, tt.icon, icon, tt.left.String())
	}
}

func TestParseRules(t *testing.T) {
	rules, err := parseRules("two_legs,winner")
	require.NoError(t, err)
	assert.True(t, rules.TwoLegs)
	assert.True(t, rules.MustHaveWinner)
	assert.False(t, rules.CanBeDraw)

	rules, err = parseRules("-")
	require.NoError(t, err)
	assert.Zero(t, rules)

	_, err = parseRules("draw,golden_goal")
	assert.ErrorIs(t, err, errUsage)
}

func TestReplyRouting(t *testing.T) {
	e := newEnv(t)
	player := e.f.Players[0]

	assert.Equal(t, "Send /start to see the commands.", e.chat(player, "hello"))
	assert.Contains(t, e.chat(player, "/dance"), "Unknown command")
	assert.Equal(t, "You don't have permission to run this command.", e.chat(player, "/add_team Ismaily"))

	help := e.chat(player, "/start")
	assert.Contains(t, help, "/predict")
	assert.NotContains(t, help, "/add_match")
	assert.Contains(t, e.b.Reply(admin, "admin", "/start@predictor_bot"), "/add_match")

	assert.Contains(t, e.b.Reply(admin, "admin", "/add_match 1 2"), "Usage: /add_match")
	assert.Contains(t, e.chat(player, "/predict x 2-1"), "Usage: /predict")
	assert.Contains(t, e.chat(player, "/predict 1 two-one"), "Usage: /predict")
}

func TestReplyRegister(t *testing.T) {
	e := newEnv(t)

	assert.Contains(t, e.b.Reply(2000, "layla", "/register"), "✅ Registered as layla.")
	assert.Equal(t, "You are already registered as layla.", e.b.Reply(2000, "layla", "/register"))
	assert.Equal(t, "❌ Name must not be empty.", e.b.Reply(2001, "", "/register"))
	assert.Equal(t, "❌ Username already taken.", e.b.Reply(2002, "", "/register @layla"))
	assert.Equal(t, "❌ You are not registered yet. Use /register <username>.", e.b.Reply(3000, "", "/me"))
}

func TestReplyWeek(t *testing.T) {
	e := newEnv(t)
	basel, mona := e.f.Players[0], e.f.Players[1]
	home, away := e.f.Teams[0], e.f.Teams[1]

	out := e.b.Reply(admin, "admin", fmt.Sprintf("/add_match %d %d %d 2024-01-10 18:00", e.f.Group.ID, home.ID, away.ID))
	assert.Contains(t, out, "scheduled in Round 1")
	assert.Contains(t, out, "(new round 2024-01-06 to 2024-01-12)")
	m := e.lastMatch(t)

	assert.Equal(t, "✅ Saved: Al Ahly 2-1 Zamalek", e.chat(basel, fmt.Sprintf("/predict %d 2-1", m.ID)))

	deadline := e.chat(basel, "/deadline")
	assert.Contains(t, deadline, "Round 1 deadline: 2024-01-10 16:00")
	assert.Contains(t, deadline, "2.2 day(s) left")
	assert.Contains(t, e.chat(basel, "/matches"), "Al Ahly vs Zamalek, Wed 10 Jan 18:00 [upcoming]")

	e.clock.Set(cairo.At(2024, 1, 10, 16, 0))
	assert.Equal(t, "❌ The prediction deadline for this round has passed.",
		e.chat(mona, fmt.Sprintf("/predict %d 1-1", m.ID)))

	e.clock.Set(cairo.At(2024, 1, 10, 20, 0))
	out = e.b.Reply(admin, "admin", fmt.Sprintf("/result %d 2-1", m.ID))
	assert.Contains(t, out, "✅ Al Ahly 2-1 Zamalek")
	assert.Contains(t, out, "predictions scored")

	assert.Contains(t, e.chat(basel, "/me"), "rank 1, 3 points from 1 scored predictions")
	assert.Contains(t, e.chat(basel, "/leaderboard"), "1. basel, 3 pts")

	mine := e.chat(basel, fmt.Sprintf("/mypredictions %d", m.RoundID))
	assert.Contains(t, mine, "1 of 1 matches predicted")
	assert.Contains(t, mine, "points: 3")
}

func TestReplyResultNeedsDecider(t *testing.T) {
	e := newEnv(t)
	home, away := e.f.Teams[2], e.f.Teams[3]

	e.b.Reply(admin, "admin", fmt.Sprintf("/add_match %d %d %d 2024-01-11 20:00", e.f.Final.ID, home.ID, away.ID))
	m := e.lastMatch(t)
	e.clock.Set(cairo.At(2024, 1, 11, 23, 30))

	assert.Equal(t, "❌ The result is level. Add the team id of the penalty winner.",
		e.b.Reply(admin, "admin", fmt.Sprintf("/result %d 1-1", m.ID)))

	out := e.b.Reply(admin, "admin", fmt.Sprintf("/result %d 1-1 %d", m.ID, away.ID))
	assert.Contains(t, out, "Pyramids 1-1 Ismaily, Ismaily on penalties")
}

func TestReplyHidesIntegrityErrors(t *testing.T) {
	e := newEnv(t)
	e.b.Reply(admin, "admin", fmt.Sprintf("/add_match %d %d %d 2024-01-10 18:00",
		e.f.Knockout.ID, e.f.Teams[0].ID, e.f.Teams[1].ID))
	m := e.lastMatch(t)
	require.NoError(t, e.base.DB.Create(&models.TwoLeggedTie{FirstLegMatchID: m.ID, SecondLegMatchID: 999}).Error)

	out := e.b.Reply(admin, "admin", fmt.Sprintf("/result %d 1-0", m.ID))
	assert.Equal(t, "⚠️ Something went wrong on our side. Please try again later.", out)
}

func TestReplyRegistry(t *testing.T) {
	e := newEnv(t)

	out := e.b.Reply(admin, "admin", "/add_league Egyptian Premier League")
	assert.Contains(t, out, "Egyptian Premier League created")

	var league models.League
	require.NoError(t, e.base.DB.Where("name = ?", "Egyptian Premier League").First(&league).Error)
	out = e.b.Reply(admin, "admin", fmt.Sprintf("/add_stage %d 1 draw Regular season", league.ID))
	assert.Contains(t, out, "Regular season created [draw]")

	assert.Contains(t, e.b.Reply(admin, "admin", "/add_team Ceramica Cleopatra"), "Ceramica Cleopatra created")
	assert.Equal(t, "❌ Team already exists.", e.b.Reply(admin, "admin", "/add_team Zamalek"))

	assert.Contains(t, e.chat(e.f.Players[0], "/teams"), "Ceramica Cleopatra")
	stages := e.chat(e.f.Players[0], "/stages")
	assert.Contains(t, stages, "Quarter-final [two_legs,winner]")
	assert.Contains(t, stages, "Regular season [draw]")
}
