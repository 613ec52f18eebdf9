package scoring

import "match-predictor/internal/models"

// TieState is how far a two-legged tie has been resolved from the point of
// view of one of its legs.
type TieState int

const (
	FirstLegOnly TieState = iota
	AwaitingResult
	AwaitingFirstLeg
	AwaitingDecider
	Decided
	Drawn
)

func (s TieState) String() string {
	switch s {
	case FirstLegOnly:
		return "first leg"
	case AwaitingResult:
		return "awaiting result"
	case AwaitingFirstLeg:
		return "awaiting first leg"
	case AwaitingDecider:
		return "awaiting penalty winner"
	case Decided:
		return "decided"
	case Drawn:
		return "drawn"
	}
	return "unknown"
}

// Complete reports whether the aggregate can be scored against.
func (s TieState) Complete() bool {
	return s == Decided || s == Drawn
}

// Tie is the resolved aggregate. Home and Away follow the first leg's
// orientation; for FirstLegOnly they hold that leg's own score.
type Tie struct {
	ID           uint
	State        TieState
	FirstLegID   uint
	SecondLegID  uint
	HomeTeamID   uint
	AwayTeamID   uint
	Home         int
	Away         int
	WinnerTeamID *uint
	ByDecider    bool
}

// OutcomeFor returns the aggregate outcome seen from a leg whose home team
// is homeTeamID.
func (t Tie) OutcomeFor(homeTeamID uint) Outcome {
	if homeTeamID == t.HomeTeamID {
		return OutcomeOf(t.Home, t.Away)
	}
	return OutcomeOf(t.Away, t.Home)
}

// ResolveTie computes the tie as seen from the leg inspectedID. The second
// leg reverses home and away, so its away goals count for the tie's home side.
func ResolveTie(stage models.Stage, tie models.TwoLeggedTie, first, second models.Match, inspectedID uint) (Tie, error) {
	if first.ID != tie.FirstLegMatchID || second.ID != tie.SecondLegMatchID {
		return Tie{}, models.Integrity("tie", tie.ID, "legs %d/%d do not match linked %d/%d",
			first.ID, second.ID, tie.FirstLegMatchID, tie.SecondLegMatchID)
	}
	if first.HomeTeamID != second.AwayTeamID || first.AwayTeamID != second.HomeTeamID {
		return Tie{}, models.Integrity("tie", tie.ID, "second leg does not reverse the first leg's teams")
	}

	t := Tie{
		ID:          tie.ID,
		FirstLegID:  first.ID,
		SecondLegID: second.ID,
		HomeTeamID:  first.HomeTeamID,
		AwayTeamID:  first.AwayTeamID,
	}

	switch inspectedID {
	case first.ID:
		t.State = FirstLegOnly
		if first.HasResult() {
			t.Home, t.Away = *first.HomeScore, *first.AwayScore
		}
		return t, nil
	case second.ID:
	default:
		return Tie{}, models.Integrity("tie", tie.ID, "match %d is not one of its legs", inspectedID)
	}

	if !second.HasResult() {
		t.State = AwaitingResult
		return t, nil
	}
	if first.Status != models.StatusFinished || !first.HasResult() {
		t.State = AwaitingFirstLeg
		return t, nil
	}

	t.Home = *first.HomeScore + *second.AwayScore
	t.Away = *first.AwayScore + *second.HomeScore

	home, away := t.HomeTeamID, t.AwayTeamID
	switch {
	case t.Home > t.Away:
		t.State, t.WinnerTeamID = Decided, &home
	case t.Away > t.Home:
		t.State, t.WinnerTeamID = Decided, &away
	case !stage.MustHaveWinner:
		t.State = Drawn
	case tie.WinnerTeamID == nil:
		t.State = AwaitingDecider
	default:
		w := *tie.WinnerTeamID
		if w != t.HomeTeamID && w != t.AwayTeamID {
			return Tie{}, models.Integrity("tie", tie.ID, "winner %d plays in neither leg", w)
		}
		t.State, t.WinnerTeamID, t.ByDecider = Decided, &w, true
	}
	return t, nil
}
