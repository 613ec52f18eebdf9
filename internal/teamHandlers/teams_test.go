package teamhandlers

import (
	"testing"
	"time"

	"match-predictor/internal/db/dbtest"
	"match-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	base, _ := dbtest.Base(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return &Handler{Handler: base}
}

func TestLeagueAndStages(t *testing.T) {
	h := newHandler(t)

	league, err := h.CreateLeague("Egyptian Cup", "Egypt")
	require.NoError(t, err)
	_, err = h.CreateLeague("Egyptian Cup", "Egypt")
	assert.ErrorIs(t, err, models.ErrDuplicateLeague)
	_, err = h.CreateLeague("  ", "")
	assert.ErrorIs(t, err, models.ErrEmptyName)

	final, err := h.CreateStage(league.ID, "Final", 3, StageRules{CanBeDraw: true, MustHaveWinner: true})
	require.NoError(t, err)
	assert.False(t, final.CanBeDraw)
	assert.True(t, final.MustHaveWinner)

	_, err = h.CreateStage(league.ID, "Round of 16", 1, StageRules{TwoLegs: true, MustHaveWinner: true})
	require.NoError(t, err)
	_, err = h.CreateStage(999, "Group", 1, StageRules{CanBeDraw: true})
	assert.ErrorIs(t, err, models.ErrLeagueNotFound)

	got, err := h.GetLeague(league.ID)
	require.NoError(t, err)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, "Round of 16", got.Stages[0].Name)
	assert.True(t, got.Stages[0].TwoLegs)
	assert.Equal(t, "Final", got.Stages[1].Name)

	stage, err := h.GetStage(final.ID)
	require.NoError(t, err)
	assert.False(t, stage.CanBeDraw, "false flags survive the round trip")

	_, err = h.GetStage(999)
	assert.ErrorIs(t, err, models.ErrStageNotFound)
}

func TestTeams(t *testing.T) {
	h := newHandler(t)

	ahly, err := h.CreateTeam(" Al Ahly ")
	require.NoError(t, err)
	assert.Equal(t, "Al Ahly", ahly.Name)
	_, err = h.CreateTeam("Zamalek")
	require.NoError(t, err)

	_, err = h.CreateTeam("Al Ahly")
	assert.ErrorIs(t, err, models.ErrDuplicateTeam)
	_, err = h.CreateTeam("")
	assert.ErrorIs(t, err, models.ErrEmptyName)

	found, err := h.GetTeamByName("al ahly")
	require.NoError(t, err)
	assert.Equal(t, ahly.ID, found.ID)
	_, err = h.GetTeamByName("Pyramids")
	assert.ErrorIs(t, err, models.ErrTeamNotFound)
	_, err = h.GetTeamByID(999)
	assert.ErrorIs(t, err, models.ErrTeamNotFound)

	teams, err := h.ListTeams()
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Al Ahly", teams[0].Name)
	assert.Equal(t, "Zamalek", teams[1].Name)
}
