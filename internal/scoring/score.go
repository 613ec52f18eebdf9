// Package scoring turns finished results and predictions into points. It
// does no I/O; callers load the match, stage and tie context.
package scoring

import "match-predictor/internal/models"

const (
	ExactPoints   = 3
	OutcomePoints = 1
	DeciderBonus  = 1
)

type Outcome string

const (
	HomeWin Outcome = "home"
	AwayWin Outcome = "away"
	Draw    Outcome = "draw"
)

func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case home < away:
		return AwayWin
	}
	return Draw
}

// Context is everything needed to score predictions on one match. Tie is
// nil unless the match is a linked leg of a two-legged tie.
type Context struct {
	Stage models.Stage
	Match models.Match
	Tie   *Tie
}

// Result is the score of one prediction. Scored is false when the match
// cannot be scored yet, which is distinct from scoring zero.
type Result struct {
	Points int
	Base   int
	Bonus  int
	Scored bool
}

type reference struct {
	home, away int
	outcome    Outcome
	decider    bool
	winner     *uint
}

// NeedsDecider reports whether the deciding scoreline is level on a stage
// that must produce a winner.
func (c Context) NeedsDecider() bool {
	if c.Tie != nil {
		return c.Tie.State == AwaitingDecider || (c.Tie.State == Decided && c.Tie.ByDecider)
	}
	m := c.Match
	return c.Stage.MustHaveWinner && !c.Stage.TwoLegs && m.HasResult() && *m.HomeScore == *m.AwayScore
}

// Ready reports whether predictions on the match can be scored.
func (c Context) Ready() bool {
	_, ok := c.reference()
	return ok
}

func (c Context) reference() (reference, bool) {
	m := c.Match
	if m.Status != models.StatusFinished || !m.HasResult() {
		return reference{}, false
	}
	ref := reference{home: *m.HomeScore, away: *m.AwayScore}

	if c.Tie == nil {
		ref.outcome = OutcomeOf(ref.home, ref.away)
		if c.NeedsDecider() {
			if m.PenaltyWinnerTeamID == nil {
				return reference{}, false
			}
			ref.decider, ref.winner = true, m.PenaltyWinnerTeamID
		}
		return ref, true
	}

	switch c.Tie.State {
	case FirstLegOnly:
		ref.outcome = OutcomeOf(ref.home, ref.away)
		return ref, true
	case Decided, Drawn:
		// Exact scores are compared with the leg itself, the outcome with
		// the aggregate that decides progression.
		ref.outcome = c.Tie.OutcomeFor(m.HomeTeamID)
		if c.Tie.ByDecider {
			ref.decider, ref.winner = true, c.Tie.WinnerTeamID
		}
		return ref, true
	}
	return reference{}, false
}

// Score is a pure function of the context and the prediction.
func Score(c Context, p models.Prediction) Result {
	ref, ok := c.reference()
	if !ok {
		return Result{}
	}

	r := Result{Scored: true}
	switch {
	case p.PredictedHomeScore == ref.home && p.PredictedAwayScore == ref.away:
		r.Base = ExactPoints
	case OutcomeOf(p.PredictedHomeScore, p.PredictedAwayScore) == ref.outcome:
		r.Base = OutcomePoints
	}
	if ref.decider && p.PredictedPenaltyWinner != nil && ref.winner != nil &&
		*p.PredictedPenaltyWinner == *ref.winner {
		r.Bonus = DeciderBonus
	}
	r.Points = r.Base + r.Bonus
	return r
}
