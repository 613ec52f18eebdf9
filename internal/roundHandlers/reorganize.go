package roundhandlers

import (
	"errors"
	"fmt"

	"match-predictor/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Report counts what a reorganize changed. Running it again on an unchanged
// store reports zero everywhere.
type Report struct {
	Reassigned int
	Deleted    int64
	Renamed    int
	Rounds     []models.Round
}

func (r Report) Changed() bool {
	return r.Reassigned > 0 || r.Deleted > 0 || r.Renamed > 0
}

// Reorganize moves every match into the round containing its local date,
// deletes rounds left empty and renumbers the rest by start date.
func (h *Handler) Reorganize() (Report, error) {
	var report Report
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var matches []models.Match
		if err := tx.Order("match_datetime ASC").Find(&matches).Error; err != nil {
			return fmt.Errorf("load matches: %w", err)
		}
		for _, m := range matches {
			res, err := h.Resolve(tx, m.Kickoff)
			if err != nil {
				return err
			}
			if res.Round.ID == m.RoundID {
				continue
			}
			err = tx.Model(&models.Match{}).Where("id = ?", m.ID).Update("round_id", res.Round.ID).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("move match %d to %s: %w", m.ID, res.Round.Name, models.ErrDuplicateMatch)
			} else if err != nil {
				return fmt.Errorf("move match %d: %w", m.ID, err)
			}
			report.Reassigned++
		}

		del := tx.Where("NOT EXISTS (SELECT 1 FROM matches WHERE matches.round_id = rounds.id)").
			Delete(&models.Round{})
		if del.Error != nil {
			return fmt.Errorf("delete empty rounds: %w", del.Error)
		}
		report.Deleted = del.RowsAffected

		rounds, err := h.list(tx)
		if err != nil {
			return err
		}
		for i := range rounds {
			name := models.RoundName(i + 1)
			if rounds[i].Name == name {
				continue
			}
			if err := tx.Model(&rounds[i]).Update("name", name).Error; err != nil {
				return fmt.Errorf("rename round %d: %w", rounds[i].ID, err)
			}
			rounds[i].Name = name
			report.Renamed++
		}
		report.Rounds = rounds
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	h.Log.WithFields(logrus.Fields{
		"reassigned": report.Reassigned,
		"deleted":    report.Deleted,
		"renamed":    report.Renamed,
		"rounds":     len(report.Rounds),
	}).Info("rounds reorganized")
	return report, nil
}
