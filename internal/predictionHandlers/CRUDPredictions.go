package predictionhandlers

import (
	"errors"
	"fmt"

	"match-predictor/internal/clock"
	"match-predictor/internal/models"
	roundH "match-predictor/internal/roundHandlers"
	"match-predictor/internal/scoring"
	tieH "match-predictor/internal/tieHandlers"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxGoals bounds a predicted score per side.
const MaxGoals = 20

type Handler struct {
	models.Handler
	Rounds *roundH.Handler
	Ties   *tieH.Handler
}

// Submission is one player's forecast. Decider is the predicted penalty
// winner and may only be given where a winner is mandatory.
type Submission struct {
	PlayerID uint
	MatchID  uint
	Home     int
	Away     int
	Decider  *uint
}

// Summary reports a recompute. Ready is false while the match cannot be
// scored yet; its predictions are then left unscored.
type Summary struct {
	MatchID     uint
	Ready       bool
	Predictions int
	Changed     int
}

// Submit inserts or overwrites the player's prediction for the match until
// the round's deadline.
func (h *Handler) Submit(s Submission) (models.Prediction, error) {
	if s.Home < 0 || s.Away < 0 || s.Home > MaxGoals || s.Away > MaxGoals {
		return models.Prediction{}, fmt.Errorf("goals must be between 0 and %d: %w", MaxGoals, models.ErrInvalidScore)
	}

	var saved models.Prediction
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var player models.Player
		err := tx.First(&player, s.PlayerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("player %d: %w", s.PlayerID, models.ErrPlayerNotFound)
		} else if err != nil {
			return err
		}

		var match models.Match
		err = tx.First(&match, s.MatchID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("match %d: %w", s.MatchID, models.ErrMatchNotFound)
		} else if err != nil {
			return err
		}
		if match.Status == models.StatusCancelled {
			return fmt.Errorf("match %d: %w", match.ID, models.ErrMatchCancelled)
		}

		deadline, ok, err := h.Rounds.Deadline(tx, match.RoundID)
		if err != nil {
			return err
		}
		if ok && !h.Clock.Now().Before(deadline) {
			return fmt.Errorf("deadline was %s: %w", h.Zone.Format(deadline, clock.DateTimeLayout), models.ErrDeadlinePassed)
		}

		if s.Decider != nil {
			if err := h.checkDecider(tx, match, *s.Decider); err != nil {
				return err
			}
		}

		p := models.Prediction{
			PlayerID:               s.PlayerID,
			MatchID:                s.MatchID,
			PredictedHomeScore:     s.Home,
			PredictedAwayScore:     s.Away,
			PredictedPenaltyWinner: s.Decider,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "player_id"}, {Name: "match_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"predicted_home_score", "predicted_away_score", "predicted_penalty_winner", "updated_at",
			}),
		}).Create(&p).Error
		if err != nil {
			return fmt.Errorf("save prediction: %w", err)
		}
		return tx.Where("player_id = ? AND match_id = ?", s.PlayerID, s.MatchID).First(&saved).Error
	})
	if err != nil {
		return models.Prediction{}, err
	}

	h.Log.WithFields(logrus.Fields{
		"player": s.PlayerID,
		"match":  s.MatchID,
		"home":   s.Home,
		"away":   s.Away,
	}).Debug("prediction saved")
	return saved, nil
}

// checkDecider allows a penalty pick on must-win stages except on the first
// leg of a tie, where the aggregate is not decided yet.
func (h *Handler) checkDecider(tx *gorm.DB, match models.Match, teamID uint) error {
	var stage models.Stage
	if err := tx.First(&stage, match.StageID).Error; err != nil {
		return fmt.Errorf("load stage %d: %w", match.StageID, err)
	}
	if !stage.MustHaveWinner {
		return fmt.Errorf("stage %s allows draws: %w", stage.Name, models.ErrDeciderNotAllowed)
	}
	tie, err := h.Ties.FindByMatch(tx, match.ID)
	if err != nil {
		return err
	}
	if tie != nil && tie.FirstLegMatchID == match.ID {
		return fmt.Errorf("first leg of a tie: %w", models.ErrDeciderNotAllowed)
	}
	if !match.Involves(teamID) {
		return fmt.Errorf("team %d: %w", teamID, models.ErrInvalidDecider)
	}
	return nil
}

// RecomputeMatch rescores every prediction on the match in its own
// transaction. It must run after the result is committed.
func (h *Handler) RecomputeMatch(matchID uint) (Summary, error) {
	var s Summary
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		s, err = h.Recompute(tx, matchID)
		return err
	})
	return s, err
}

// Recompute overwrites every prediction's score with the engine's value.
// Running it again on unchanged inputs changes nothing.
func (h *Handler) Recompute(tx *gorm.DB, matchID uint) (Summary, error) {
	conn := h.Conn(tx)
	s := Summary{MatchID: matchID}

	var match models.Match
	err := conn.First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, fmt.Errorf("match %d: %w", matchID, models.ErrMatchNotFound)
	} else if err != nil {
		return s, err
	}
	if match.Status != models.StatusFinished {
		return s, nil
	}

	ctx, err := h.Ties.Context(conn, match)
	if err != nil {
		if models.IsIntegrity(err) {
			h.Log.WithError(err).WithField("match", matchID).Error("cannot score match")
		}
		return s, err
	}
	s.Ready = ctx.Ready()

	var predictions []models.Prediction
	if err := conn.Where("match_id = ?", matchID).Order("id").Find(&predictions).Error; err != nil {
		return s, fmt.Errorf("load predictions of match %d: %w", matchID, err)
	}
	s.Predictions = len(predictions)

	for _, p := range predictions {
		var score *int
		if r := scoring.Score(ctx, p); r.Scored {
			points := r.Points
			score = &points
		}
		if sameScore(p.Score, score) {
			continue
		}
		err := conn.Model(&models.Prediction{}).Where("id = ?", p.ID).UpdateColumn("score", score).Error
		if err != nil {
			return s, fmt.Errorf("score prediction %d: %w", p.ID, err)
		}
		s.Changed++
	}

	entry := h.Log.WithFields(logrus.Fields{
		"match":       matchID,
		"predictions": s.Predictions,
		"changed":     s.Changed,
	})
	if s.Ready {
		entry.Info("predictions scored")
	} else {
		entry.Info("match not ready for scoring")
	}
	return s, nil
}

func sameScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (h *Handler) GetPrediction(playerID, matchID uint) (*models.Prediction, error) {
	var p models.Prediction
	err := h.DB.Where("player_id = ? AND match_id = ?", playerID, matchID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForPlayer returns the player's predictions in a round by kickoff.
func (h *Handler) ListForPlayer(playerID, roundID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := h.DB.Select("predictions.*").
		Joins("JOIN matches ON matches.id = predictions.match_id").
		Where("predictions.player_id = ? AND matches.round_id = ?", playerID, roundID).
		Order("matches.match_datetime ASC").
		Find(&predictions).Error
	return predictions, err
}

// PredictedCount is how many matches of the round the player predicted.
func (h *Handler) PredictedCount(playerID, roundID uint) (int64, error) {
	var count int64
	err := h.DB.Model(&models.Prediction{}).
		Joins("JOIN matches ON matches.id = predictions.match_id").
		Where("predictions.player_id = ? AND matches.round_id = ?", playerID, roundID).
		Count(&count).Error
	return count, err
}
