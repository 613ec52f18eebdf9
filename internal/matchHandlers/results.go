package matchhandlers

import (
	"fmt"

	"match-predictor/internal/models"
	predH "match-predictor/internal/predictionHandlers"
	"match-predictor/internal/scoring"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// Result is an administrator's final score entry. Decider is the penalty
// winner and is required exactly when the deciding scoreline is level on a
// stage that must have a winner.
type Result struct {
	MatchID uint
	Home    int
	Away    int
	Decider *uint
}

// Recorded is what a result entry changed. Context is the scoring context
// of the recorded match after commit; Scored holds one summary per match
// that was rescored.
type Recorded struct {
	Match   models.Match
	Context scoring.Context
	Scored  []predH.Summary
}

// RecordResult finishes the match and rescores it. Recording a first leg
// also rescores its second leg.
func (h *Handler) RecordResult(r Result) (Recorded, error) {
	if r.Home < 0 || r.Away < 0 {
		return Recorded{}, fmt.Errorf("goals cannot be negative: %w", models.ErrInvalidScore)
	}

	var tie *models.TwoLeggedTie
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		m, err := h.lock(tx, r.MatchID)
		if err != nil {
			return err
		}
		if m.Status == models.StatusCancelled {
			return fmt.Errorf("match %d: %w", m.ID, models.ErrMatchCancelled)
		}
		if tie, err = h.Ties.FindByMatch(tx, m.ID); err != nil {
			return err
		}

		err = tx.Model(&models.Match{}).Where("id = ?", m.ID).Updates(map[string]any{
			"home_score":             r.Home,
			"away_score":             r.Away,
			"status":                 models.StatusFinished,
			"penalty_winner_team_id": nil,
		}).Error
		if err != nil {
			return fmt.Errorf("save result of match %d: %w", m.ID, err)
		}
		m.HomeScore, m.AwayScore = &r.Home, &r.Away
		m.Status, m.PenaltyWinnerTeamID = models.StatusFinished, nil

		if err := h.applyDecider(tx, m, tie, r.Decider); err != nil {
			return err
		}
		if tie != nil && tie.FirstLegMatchID == m.ID {
			return h.clearStaleDecider(tx, tie)
		}
		return nil
	})
	if err != nil {
		return Recorded{}, err
	}

	h.Log.WithFields(logrus.Fields{
		"match": r.MatchID,
		"home":  r.Home,
		"away":  r.Away,
	}).Info("result recorded")

	affected := []uint{r.MatchID}
	if tie != nil && tie.FirstLegMatchID == r.MatchID {
		affected = append(affected, tie.SecondLegMatchID)
	}
	return h.rescore(r.MatchID, affected)
}

// RecordDecider enters the penalty winner of an already finished match,
// typically a second leg recorded before its first leg.
func (h *Handler) RecordDecider(matchID, teamID uint) (Recorded, error) {
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		m, err := h.lock(tx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.StatusFinished || !m.HasResult() {
			return fmt.Errorf("match %d: %w", m.ID, models.ErrMatchNotFinished)
		}
		tie, err := h.Ties.FindByMatch(tx, m.ID)
		if err != nil {
			return err
		}
		return h.applyDecider(tx, m, tie, &teamID)
	})
	if err != nil {
		return Recorded{}, err
	}
	h.Log.WithFields(logrus.Fields{"match": matchID, "winner": teamID}).Info("penalty winner recorded")
	return h.rescore(matchID, []uint{matchID})
}

// applyDecider validates decider against the stored result of m and
// persists it. A second leg keeps its decider on the tie as well, where the
// aggregate reads it.
func (h *Handler) applyDecider(tx *gorm.DB, m models.Match, tie *models.TwoLeggedTie, decider *uint) error {
	secondLeg := tie != nil && tie.SecondLegMatchID == m.ID
	if tie != nil && !secondLeg && decider != nil {
		return fmt.Errorf("first leg of tie %d: %w", tie.ID, models.ErrDeciderNotAllowed)
	}
	if secondLeg {
		if err := h.Ties.SetWinner(tx, tie.ID, nil); err != nil {
			return err
		}
	}

	ctx, err := h.Ties.Context(tx, m)
	if err != nil {
		if models.IsIntegrity(err) {
			h.Log.WithError(err).WithField("match", m.ID).Error("cannot resolve match context")
		}
		return err
	}

	needed := ctx.NeedsDecider()
	switch {
	case needed && decider == nil:
		return fmt.Errorf("match %d: %w", m.ID, models.ErrDeciderRequired)
	case !needed && decider != nil:
		return fmt.Errorf("match %d: %w", m.ID, models.ErrDeciderNotAllowed)
	case decider == nil:
		return nil
	}
	if !m.Involves(*decider) {
		return fmt.Errorf("team %d: %w", *decider, models.ErrInvalidDecider)
	}

	err = tx.Model(&models.Match{}).Where("id = ?", m.ID).Update("penalty_winner_team_id", *decider).Error
	if err != nil {
		return err
	}
	if secondLeg {
		return h.Ties.SetWinner(tx, tie.ID, decider)
	}
	return nil
}

// clearStaleDecider drops the second leg's penalty winner once a corrected
// first leg makes the aggregate decisive.
func (h *Handler) clearStaleDecider(tx *gorm.DB, tie *models.TwoLeggedTie) error {
	var second models.Match
	if err := tx.First(&second, tie.SecondLegMatchID).Error; err != nil {
		return err
	}
	if second.Status != models.StatusFinished || second.PenaltyWinnerTeamID == nil {
		return nil
	}
	ctx, err := h.Ties.Context(tx, second)
	if err != nil {
		return err
	}
	if ctx.Tie.State != scoring.Decided || ctx.Tie.ByDecider {
		return nil
	}
	err = tx.Model(&models.Match{}).Where("id = ?", second.ID).Update("penalty_winner_team_id", nil).Error
	if err != nil {
		return err
	}
	h.Log.WithField("match", second.ID).Warn("penalty winner cleared, aggregate no longer level")
	return h.Ties.SetWinner(tx, tie.ID, nil)
}

// rescore runs after the result transaction has committed.
func (h *Handler) rescore(matchID uint, affected []uint) (Recorded, error) {
	var rec Recorded
	for _, id := range affected {
		s, err := h.Predictions.RecomputeMatch(id)
		if err != nil {
			return Recorded{}, err
		}
		rec.Scored = append(rec.Scored, s)
	}

	m, err := h.GetMatch(matchID)
	if err != nil {
		return Recorded{}, err
	}
	rec.Match = m
	if rec.Context, err = h.Ties.Context(nil, m); err != nil {
		return Recorded{}, err
	}
	return rec, nil
}
