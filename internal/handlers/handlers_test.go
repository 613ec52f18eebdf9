package handlers

import (
	"testing"
	"time"

	"match-predictor/internal/clock"
	"match-predictor/internal/db/dbtest"
	mtH "match-predictor/internal/matchHandlers"
	prH "match-predictor/internal/predictionHandlers"
	tmH "match-predictor/internal/teamHandlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A whole week through the wired set: registry, schedule, predictions,
// result and leaderboard.
func TestSetEndToEnd(t *testing.T) {
	cairo := clock.MustZone("Africa/Cairo")
	base, c := dbtest.Base(t, cairo.At(2024, 1, 8, 12, 0))
	set := New(base)

	league, err := set.Teams.CreateLeague("Egyptian Premier League", "Egypt")
	require.NoError(t, err)
	stage, err := set.Teams.CreateStage(league.ID, "Regular season", 1, tmH.StageRules{CanBeDraw: true})
	require.NoError(t, err)
	home, err := set.Teams.CreateTeam("Al Ahly")
	require.NoError(t, err)
	away, err := set.Teams.CreateTeam("Zamalek")
	require.NoError(t, err)

	kickoff := cairo.At(2024, 1, 10, 18, 0)
	s, err := set.Matches.AddMatch(stage.ID, home.ID, away.ID, kickoff)
	require.NoError(t, err)

	var players []uint
	for i, name := range []string{"basel", "mona", "omar"} {
		p, _, err := set.Users.RegisterPlayer(int64(100+i), name)
		require.NoError(t, err)
		players = append(players, p.ID)
	}
	for i, pick := range [][2]int{{2, 1}, {1, 0}, {0, 0}} {
		_, err := set.Predictions.Submit(prH.Submission{PlayerID: players[i], MatchID: s.Match.ID, Home: pick[0], Away: pick[1]})
		require.NoError(t, err)
	}

	deadline, ok, err := set.Rounds.Deadline(nil, s.Round.Round.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-01-10 16:00", cairo.Format(deadline, clock.DateTimeLayout))

	c.Set(kickoff.Add(2 * time.Hour))
	_, err = set.Matches.RecordResult(mtH.Result{MatchID: s.Match.ID, Home: 2, Away: 1})
	require.NoError(t, err)

	board, err := set.Users.Leaderboard()
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "basel", board[0].Username)
	assert.EqualValues(t, 3, board[0].Points)
	assert.EqualValues(t, 1, board[1].Points)
	assert.EqualValues(t, 0, board[2].Points)
}
