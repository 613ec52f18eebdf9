package tiehandlers

import (
	"errors"
	"fmt"

	"match-predictor/internal/models"
	"match-predictor/internal/scoring"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	models.Handler
}

// FindByMatch returns the tie the match is a leg of, or nil.
func (h *Handler) FindByMatch(tx *gorm.DB, matchID uint) (*models.TwoLeggedTie, error) {
	var ties []models.TwoLeggedTie
	err := h.Conn(tx).
		Where("first_leg_match_id = ? OR second_leg_match_id = ?", matchID, matchID).
		Limit(2).Find(&ties).Error
	if err != nil {
		return nil, fmt.Errorf("load tie of match %d: %w", matchID, err)
	}
	switch len(ties) {
	case 0:
		return nil, nil
	case 1:
		return &ties[0], nil
	}
	return nil, models.Integrity("match", matchID, "is a leg of ties %d and %d", ties[0].ID, ties[1].ID)
}

// Context loads what the scoring engine needs for m. A leg that the tie
// references but the store does not hold is an integrity violation.
func (h *Handler) Context(tx *gorm.DB, m models.Match) (scoring.Context, error) {
	conn := h.Conn(tx)

	var stage models.Stage
	err := conn.First(&stage, m.StageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scoring.Context{}, models.Integrity("match", m.ID, "references missing stage %d", m.StageID)
	} else if err != nil {
		return scoring.Context{}, err
	}

	c := scoring.Context{Stage: stage, Match: m}
	tie, err := h.FindByMatch(conn, m.ID)
	if err != nil || tie == nil {
		return c, err
	}

	first, second := m, m
	if m.ID == tie.FirstLegMatchID {
		second, err = h.leg(conn, tie, tie.SecondLegMatchID)
	} else {
		first, err = h.leg(conn, tie, tie.FirstLegMatchID)
	}
	if err != nil {
		return scoring.Context{}, err
	}

	resolved, err := scoring.ResolveTie(stage, *tie, first, second, m.ID)
	if err != nil {
		return scoring.Context{}, err
	}
	c.Tie = &resolved
	return c, nil
}

func (h *Handler) leg(conn *gorm.DB, tie *models.TwoLeggedTie, matchID uint) (models.Match, error) {
	var m models.Match
	err := conn.First(&m, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Match{}, models.Integrity("tie", tie.ID, "references missing match %d", matchID)
	}
	return m, err
}

// Link makes two existing matches the legs of one tie.
func (h *Handler) Link(firstID, secondID uint) (models.TwoLeggedTie, error) {
	var tie models.TwoLeggedTie
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var first, second models.Match
		for _, leg := range []struct {
			id uint
			m  *models.Match
		}{{firstID, &first}, {secondID, &second}} {
			err := tx.First(leg.m, leg.id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("match %d: %w", leg.id, models.ErrMatchNotFound)
			} else if err != nil {
				return err
			}
		}
		var err error
		tie, err = h.LinkLegs(tx, first, second)
		return err
	})
	return tie, err
}

// LinkLegs validates and links the legs inside the caller's transaction.
// At most one tie per leg is enforced by the store's unique indexes.
func (h *Handler) LinkLegs(tx *gorm.DB, first, second models.Match) (models.TwoLeggedTie, error) {
	conn := h.Conn(tx)

	if first.ID == second.ID {
		return models.TwoLeggedTie{}, fmt.Errorf("match %d twice: %w", first.ID, models.ErrInvalidTie)
	}
	if first.StageID != second.StageID {
		return models.TwoLeggedTie{}, fmt.Errorf("legs are in different stages: %w", models.ErrInvalidTie)
	}
	var stage models.Stage
	err := conn.First(&stage, first.StageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TwoLeggedTie{}, fmt.Errorf("stage %d: %w", first.StageID, models.ErrStageNotFound)
	} else if err != nil {
		return models.TwoLeggedTie{}, err
	}
	if !stage.TwoLegs {
		return models.TwoLeggedTie{}, fmt.Errorf("stage %s is played over one match: %w", stage.Name, models.ErrInvalidTie)
	}
	if first.HomeTeamID != second.AwayTeamID || first.AwayTeamID != second.HomeTeamID {
		return models.TwoLeggedTie{}, fmt.Errorf("second leg must reverse home and away: %w", models.ErrInvalidTie)
	}
	if !first.Kickoff.Before(second.Kickoff) {
		return models.TwoLeggedTie{}, fmt.Errorf("first leg must kick off before the second: %w", models.ErrInvalidTie)
	}

	var taken int64
	err = conn.Model(&models.TwoLeggedTie{}).
		Where("first_leg_match_id IN ? OR second_leg_match_id IN ?",
			[]uint{first.ID, second.ID}, []uint{first.ID, second.ID}).
		Count(&taken).Error
	if err != nil {
		return models.TwoLeggedTie{}, err
	}
	if taken > 0 {
		return models.TwoLeggedTie{}, fmt.Errorf("matches %d/%d: %w", first.ID, second.ID, models.ErrTieExists)
	}

	tie := models.TwoLeggedTie{FirstLegMatchID: first.ID, SecondLegMatchID: second.ID}
	err = conn.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&tie).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.TwoLeggedTie{}, fmt.Errorf("matches %d/%d: %w", first.ID, second.ID, models.ErrTieExists)
	} else if err != nil {
		return models.TwoLeggedTie{}, fmt.Errorf("create tie: %w", err)
	}

	h.Log.WithFields(logrus.Fields{
		"tie":        tie.ID,
		"first_leg":  first.ID,
		"second_leg": second.ID,
	}).Info("two-legged tie linked")
	return tie, nil
}

// SetWinner persists the decider of a level aggregate.
func (h *Handler) SetWinner(tx *gorm.DB, tieID uint, teamID *uint) error {
	return h.Conn(tx).Model(&models.TwoLeggedTie{}).Where("id = ?", tieID).
		Update("winner_team_id", teamID).Error
}
