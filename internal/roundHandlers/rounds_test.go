package roundhandlers

import (
	"testing"
	"time"

	"match-predictor/internal/clock"
	"match-predictor/internal/db/dbtest"
	"match-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Saturday 2024-01-06 starts the first week used here. Cairo is UTC+2 in
// January.
var cairo = clock.MustZone("Africa/Cairo")

func newHandler(t *testing.T, now time.Time) (*Handler, dbtest.Fixture) {
	t.Helper()
	base, _ := dbtest.Base(t, now)
	return &Handler{Handler: base}, dbtest.Seed(t, base.DB)
}

func addMatch(t *testing.T, h *Handler, f dbtest.Fixture, home, away int, kickoff time.Time) models.Match {
	t.Helper()
	res, err := h.ResolveRound(kickoff)
	require.NoError(t, err)
	m := models.Match{
		RoundID:    res.Round.ID,
		LeagueID:   f.League.ID,
		StageID:    f.Group.ID,
		HomeTeamID: f.Teams[home].ID,
		AwayTeamID: f.Teams[away].ID,
		Kickoff:    kickoff,
		Status:     models.StatusUpcoming,
	}
	require.NoError(t, h.DB.Create(&m).Error)
	return m
}

func sameDay(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  time.Time
		want time.Time
	}{
		{clock.Date(2024, 1, 6), clock.Date(2024, 1, 6)},
		{clock.Date(2024, 1, 7), clock.Date(2024, 1, 6)},
		{clock.Date(2024, 1, 10), clock.Date(2024, 1, 6)},
		{clock.Date(2024, 1, 12), clock.Date(2024, 1, 6)},
		{clock.Date(2024, 1, 13), clock.Date(2024, 1, 13)},
		{clock.Date(2024, 3, 1), clock.Date(2024, 2, 24)},
	}
	for _, tt := range tests {
		t.Run(tt.day.Format(clock.DateLayout), func(t *testing.T) {
			got := WeekStart(tt.day)
			sameDay(t, tt.want, got)
			assert.Equal(t, time.Saturday, got.Weekday())
		})
	}
}

func TestResolveCreatesThenFinds(t *testing.T) {
	h, _ := newHandler(t, cairo.At(2024, 1, 1, 12, 0))

	first, err := h.ResolveRound(cairo.At(2024, 1, 10, 18, 0))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "Round 1", first.Round.Name)
	sameDay(t, clock.Date(2024, 1, 6), first.Round.StartDate)
	sameDay(t, clock.Date(2024, 1, 12), first.Round.EndDate)

	for _, kickoff := range []time.Time{
		cairo.At(2024, 1, 6, 0, 0),
		cairo.At(2024, 1, 12, 23, 59),
	} {
		again, err := h.ResolveRound(kickoff)
		require.NoError(t, err)
		assert.False(t, again.Created)
		assert.Equal(t, first.Round.ID, again.Round.ID)
	}

	var count int64
	require.NoError(t, h.DB.Model(&models.Round{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveUsesLocalDate(t *testing.T) {
	h, _ := newHandler(t, cairo.At(2024, 1, 1, 12, 0))

	friday, err := h.ResolveRound(cairo.At(2024, 1, 12, 23, 30))
	require.NoError(t, err)

	// 00:30 on Saturday in Cairo is still Friday in UTC.
	saturday := cairo.At(2024, 1, 13, 0, 30)
	require.Equal(t, time.Friday, saturday.Weekday())
	next, err := h.ResolveRound(saturday)
	require.NoError(t, err)

	assert.True(t, next.Created)
	assert.NotEqual(t, friday.Round.ID, next.Round.ID)
	sameDay(t, clock.Date(2024, 1, 13), next.Round.StartDate)
}

func TestResolveNamesByCreationOrder(t *testing.T) {
	h, _ := newHandler(t, cairo.At(2024, 1, 1, 12, 0))

	later, err := h.ResolveRound(cairo.At(2024, 1, 24, 18, 0))
	require.NoError(t, err)
	earlier, err := h.ResolveRound(cairo.At(2024, 1, 10, 18, 0))
	require.NoError(t, err)

	assert.Equal(t, "Round 1", later.Round.Name)
	assert.Equal(t, "Round 2", earlier.Round.Name)
}

func TestResolveFallsBackToCount(t *testing.T) {
	h, _ := newHandler(t, cairo.At(2024, 1, 1, 12, 0))
	require.NoError(t, h.DB.Create(&models.Round{
		Name:      "Round 1",
		StartDate: clock.Date(2023, 12, 23),
		EndDate:   clock.Date(2023, 12, 29),
	}).Error)
	require.NoError(t, h.DB.Create(&models.Round{
		Name:      "Festive week",
		StartDate: clock.Date(2023, 12, 30),
		EndDate:   clock.Date(2024, 1, 5),
	}).Error)

	res, err := h.ResolveRound(cairo.At(2024, 1, 10, 18, 0))
	require.NoError(t, err)
	assert.Equal(t, "Round 3", res.Round.Name)
}

func TestResolveRejectsOverlap(t *testing.T) {
	h, _ := newHandler(t, cairo.At(2024, 1, 1, 12, 0))
	require.NoError(t, h.DB.Create(&models.Round{
		Name:      "Round 1",
		StartDate: clock.Date(2024, 1, 8),
		EndDate:   clock.Date(2024, 1, 14),
	}).Error)

	_, err := h.ResolveRound(cairo.At(2024, 1, 6, 18, 0))
	require.Error(t, err)
	assert.True(t, models.IsIntegrity(err))
	assert.False(t, models.IsValidation(err))
}

func TestDeadline(t *testing.T) {
	h, f := newHandler(t, cairo.At(2024, 1, 1, 12, 0))

	empty, err := h.ResolveRound(cairo.At(2024, 1, 20, 18, 0))
	require.NoError(t, err)
	_, ok, err := h.Deadline(nil, empty.Round.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	thursday := addMatch(t, h, f, 2, 3, cairo.At(2024, 1, 11, 20, 0))
	addMatch(t, h, f, 0, 1, cairo.At(2024, 1, 10, 18, 0))

	deadline, ok, err := h.Deadline(nil, thursday.RoundID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cairo.At(2024, 1, 10, 16, 0).Equal(deadline))
	assert.Equal(t, "2024-01-10 16:00", cairo.Format(deadline, clock.DateTimeLayout))

	_, _, err = h.Deadline(nil, 999)
	assert.ErrorIs(t, err, models.ErrRoundNotFound)
}

func TestRoundSummary(t *testing.T) {
	h, f := newHandler(t, cairo.At(2024, 1, 1, 12, 0))
	m := addMatch(t, h, f, 0, 1, cairo.At(2024, 1, 10, 18, 0))
	addMatch(t, h, f, 2, 3, cairo.At(2024, 1, 10, 20, 0))

	s, err := h.RoundSummary(m.RoundID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.MatchCount)
	require.NotNil(t, s.Deadline)
	assert.True(t, cairo.At(2024, 1, 10, 16, 0).Equal(*s.Deadline))
}

func TestCurrentAndNextRound(t *testing.T) {
	h, f := newHandler(t, cairo.At(2024, 1, 8, 12, 0))

	_, err := h.CurrentRound()
	assert.ErrorIs(t, err, models.ErrRoundNotFound)

	current := addMatch(t, h, f, 0, 1, cairo.At(2024, 1, 10, 18, 0))
	later := addMatch(t, h, f, 2, 3, cairo.At(2024, 1, 24, 18, 0))
	addMatch(t, h, f, 1, 2, cairo.At(2024, 1, 17, 18, 0))

	got, err := h.CurrentRound()
	require.NoError(t, err)
	assert.Equal(t, current.RoundID, got.ID)

	upcoming, err := h.NextRound()
	require.NoError(t, err)
	assert.NotEqual(t, later.RoundID, upcoming.ID)
	sameDay(t, clock.Date(2024, 1, 13), upcoming.StartDate)
}

func TestDeleteRound(t *testing.T) {
	h, f := newHandler(t, cairo.At(2024, 1, 1, 12, 0))
	m := addMatch(t, h, f, 0, 1, cairo.At(2024, 1, 10, 18, 0))
	empty, err := h.ResolveRound(cairo.At(2024, 1, 17, 18, 0))
	require.NoError(t, err)

	assert.ErrorIs(t, h.DeleteRound(m.RoundID), models.ErrRoundNotEmpty)
	assert.ErrorIs(t, h.DeleteRound(999), models.ErrRoundNotFound)
	require.NoError(t, h.DeleteRound(empty.Round.ID))

	rounds, err := h.ListRounds()
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, m.RoundID, rounds[0].ID)
}

func TestReorganize(t *testing.T) {
	h, f := newHandler(t, cairo.At(2024, 1, 1, 12, 0))

	late := addMatch(t, h, f, 0, 1, cairo.At(2024, 1, 24, 18, 0))  // Round 1
	early := addMatch(t, h, f, 2, 3, cairo.At(2024, 1, 10, 18, 0)) // Round 2
	_, err := h.ResolveRound(cairo.At(2024, 2, 7, 18, 0))          // Round 3, empty
	require.NoError(t, err)

	// Rescheduling keeps the round until reorganize runs.
	moved := cairo.At(2024, 1, 17, 18, 0)
	require.NoError(t, h.DB.Model(&models.Match{}).Where("id = ?", late.ID).Update("match_datetime", moved).Error)

	report, err := h.Reorganize()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reassigned)
	assert.EqualValues(t, 2, report.Deleted)
	require.Len(t, report.Rounds, 2)

	assert.Equal(t, "Round 1", report.Rounds[0].Name)
	sameDay(t, clock.Date(2024, 1, 6), report.Rounds[0].StartDate)
	assert.Equal(t, "Round 2", report.Rounds[1].Name)
	sameDay(t, clock.Date(2024, 1, 13), report.Rounds[1].StartDate)

	var lateMatch, earlyMatch models.Match
	require.NoError(t, h.DB.First(&lateMatch, late.ID).Error)
	assert.Equal(t, report.Rounds[1].ID, lateMatch.RoundID)
	require.NoError(t, h.DB.First(&earlyMatch, early.ID).Error)
	assert.Equal(t, report.Rounds[0].ID, earlyMatch.RoundID)

	again, err := h.Reorganize()
	require.NoError(t, err)
	assert.False(t, again.Changed())
	require.Len(t, again.Rounds, 2)
	for i := range again.Rounds {
		assert.Equal(t, report.Rounds[i].ID, again.Rounds[i].ID)
		assert.Equal(t, report.Rounds[i].Name, again.Rounds[i].Name)
	}
}
