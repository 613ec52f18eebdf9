package matchhandlers

import (
	"errors"
	"fmt"
	"time"

	"match-predictor/internal/models"
	predH "match-predictor/internal/predictionHandlers"
	roundH "match-predictor/internal/roundHandlers"
	tieH "match-predictor/internal/tieHandlers"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	models.Handler
	Rounds      *roundH.Handler
	Ties        *tieH.Handler
	Predictions *predH.Handler
}

// Scheduled is a new match and the round it landed in.
type Scheduled struct {
	Match models.Match
	Round roundH.Resolution
}

// ScheduledTie holds both legs of a new two-legged tie.
type ScheduledTie struct {
	First  Scheduled
	Second Scheduled
	Tie    models.TwoLeggedTie
}

// AddMatch schedules a fixture of stage. kickoff is an instant; its local
// date picks the round.
func (h *Handler) AddMatch(stageID, homeID, awayID uint, kickoff time.Time) (Scheduled, error) {
	var s Scheduled
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		s, err = h.addMatch(tx, stageID, homeID, awayID, kickoff)
		return err
	})
	if err != nil {
		return Scheduled{}, err
	}
	h.logScheduled(s)
	return s, nil
}

// AddTie schedules both legs, the second with home and away reversed, and
// links them in one transaction.
func (h *Handler) AddTie(stageID, homeID, awayID uint, firstAt, secondAt time.Time) (ScheduledTie, error) {
	var st ScheduledTie
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if st.First, err = h.addMatch(tx, stageID, homeID, awayID, firstAt); err != nil {
			return err
		}
		if st.Second, err = h.addMatch(tx, stageID, awayID, homeID, secondAt); err != nil {
			return err
		}
		st.Tie, err = h.Ties.LinkLegs(tx, st.First.Match, st.Second.Match)
		return err
	})
	if err != nil {
		return ScheduledTie{}, err
	}
	h.logScheduled(st.First)
	h.logScheduled(st.Second)
	return st, nil
}

func (h *Handler) addMatch(tx *gorm.DB, stageID, homeID, awayID uint, kickoff time.Time) (Scheduled, error) {
	if homeID == awayID {
		return Scheduled{}, models.ErrSameTeam
	}

	var stage models.Stage
	err := tx.First(&stage, stageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Scheduled{}, fmt.Errorf("stage %d: %w", stageID, models.ErrStageNotFound)
	} else if err != nil {
		return Scheduled{}, err
	}

	var teams int64
	if err := tx.Model(&models.Team{}).Where("id IN ?", []uint{homeID, awayID}).Count(&teams).Error; err != nil {
		return Scheduled{}, err
	}
	if teams != 2 {
		return Scheduled{}, fmt.Errorf("teams %d/%d: %w", homeID, awayID, models.ErrTeamNotFound)
	}

	res, err := h.Rounds.Resolve(tx, kickoff)
	if err != nil {
		return Scheduled{}, err
	}

	var existing int64
	err = tx.Model(&models.Match{}).
		Where("round_id = ? AND home_team_id = ? AND away_team_id = ?", res.Round.ID, homeID, awayID).
		Count(&existing).Error
	if err != nil {
		return Scheduled{}, err
	}
	if existing > 0 {
		return Scheduled{}, fmt.Errorf("%s: %w", res.Round.Name, models.ErrDuplicateMatch)
	}

	m := models.Match{
		RoundID:    res.Round.ID,
		LeagueID:   stage.LeagueID,
		StageID:    stage.ID,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		Kickoff:    kickoff.UTC(),
		Status:     models.StatusUpcoming,
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&m).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Scheduled{}, fmt.Errorf("%s: %w", res.Round.Name, models.ErrDuplicateMatch)
	} else if err != nil {
		return Scheduled{}, fmt.Errorf("create match: %w", err)
	}
	return Scheduled{Match: m, Round: res}, nil
}

func (h *Handler) logScheduled(s Scheduled) {
	h.Log.WithFields(logrus.Fields{
		"match":   s.Match.ID,
		"round":   s.Round.Round.Name,
		"created": s.Round.Created,
		"kickoff": s.Match.Kickoff.Format(time.RFC3339),
	}).Info("match scheduled")
}

// LinkTie links two existing matches and rescores the second leg, which
// may already be finished.
func (h *Handler) LinkTie(firstID, secondID uint) (models.TwoLeggedTie, error) {
	tie, err := h.Ties.Link(firstID, secondID)
	if err != nil {
		return models.TwoLeggedTie{}, err
	}
	if _, err := h.Predictions.RecomputeMatch(tie.SecondLegMatchID); err != nil {
		return tie, err
	}
	return tie, nil
}

func (h *Handler) GetMatch(matchID uint) (models.Match, error) {
	var m models.Match
	err := h.DB.Preload("HomeTeam").Preload("AwayTeam").Preload("Stage").Preload("Round").
		First(&m, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Match{}, fmt.Errorf("match %d: %w", matchID, models.ErrMatchNotFound)
	} else if err != nil {
		return models.Match{}, err
	}
	if err := h.advance(&m); err != nil {
		return models.Match{}, err
	}
	return m, nil
}

// ListRound returns the round's matches by kickoff with their statuses
// brought up to date.
func (h *Handler) ListRound(roundID uint) ([]models.Match, error) {
	if _, err := h.Rounds.GetRound(nil, roundID); err != nil {
		return nil, err
	}
	var matches []models.Match
	err := h.DB.Preload("HomeTeam").Preload("AwayTeam").Preload("Stage").
		Where("round_id = ?", roundID).
		Order("match_datetime ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if err := h.advance(&matches[i]); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

// advance applies the automatic lifecycle. The write is conditional on the
// status read, so a concurrent administrative change always wins.
func (h *Handler) advance(m *models.Match) error {
	next := models.NextStatus(m.Status, m.Kickoff, h.Clock.Now(), h.Rules.LiveWindow)
	if next == m.Status {
		return nil
	}
	res := h.DB.Model(&models.Match{}).
		Where("id = ? AND status = ?", m.ID, m.Status).
		Update("status", next)
	if res.Error != nil {
		return fmt.Errorf("advance match %d: %w", m.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return h.DB.Model(&models.Match{}).Select("status").Where("id = ?", m.ID).Scan(&m.Status).Error
	}
	h.Log.WithFields(logrus.Fields{"match": m.ID, "from": m.Status, "to": next}).Debug("match status advanced")
	m.Status = next
	return nil
}

// Cancel is only allowed while the match has not finished.
func (h *Handler) Cancel(matchID uint) (models.Match, error) {
	var m models.Match
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if m, err = h.lock(tx, matchID); err != nil {
			return err
		}
		status := models.NextStatus(m.Status, m.Kickoff, h.Clock.Now(), h.Rules.LiveWindow)
		if !status.CanCancel() {
			return fmt.Errorf("match %d is %s: %w", m.ID, status, models.ErrInvalidTransition)
		}
		m.Status = models.StatusCancelled
		return tx.Model(&models.Match{}).Where("id = ?", m.ID).Update("status", m.Status).Error
	})
	if err != nil {
		return models.Match{}, err
	}
	h.Log.WithField("match", m.ID).Info("match cancelled")
	return m, nil
}

// Reschedule moves an upcoming match's kickoff. The match keeps its round;
// outside reports that the new local date falls out of it, which a
// reorganize resolves.
func (h *Handler) Reschedule(matchID uint, kickoff time.Time) (m models.Match, outside bool, err error) {
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if m, err = h.lock(tx, matchID); err != nil {
			return err
		}
		status := models.NextStatus(m.Status, m.Kickoff, h.Clock.Now(), h.Rules.LiveWindow)
		if status != models.StatusUpcoming {
			return fmt.Errorf("match %d is %s: %w", m.ID, status, models.ErrInvalidTransition)
		}
		round, err := h.Rounds.GetRound(tx, m.RoundID)
		if err != nil {
			return err
		}
		m.Kickoff = kickoff.UTC()
		outside = !round.Contains(h.Zone.LocalDate(m.Kickoff))
		return tx.Model(&models.Match{}).Where("id = ?", m.ID).Update("match_datetime", m.Kickoff).Error
	})
	if err != nil {
		return models.Match{}, false, err
	}
	h.Log.WithFields(logrus.Fields{
		"match":   m.ID,
		"kickoff": m.Kickoff.Format(time.RFC3339),
		"outside": outside,
	}).Info("match rescheduled")
	return m, outside, nil
}

func (h *Handler) lock(tx *gorm.DB, matchID uint) (models.Match, error) {
	var m models.Match
	err := tx.Clauses(forUpdate).First(&m, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Match{}, fmt.Errorf("match %d: %w", matchID, models.ErrMatchNotFound)
	}
	return m, err
}
