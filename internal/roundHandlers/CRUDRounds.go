package roundhandlers

import (
	"errors"
	"fmt"
	"time"

	"match-predictor/internal/clock"
	"match-predictor/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	models.Handler
}

// Resolution tells a caller whether the round already existed.
type Resolution struct {
	Round   models.Round
	Created bool
}

// Summary is the read-only view notification and leaderboard consumers use.
type Summary struct {
	Round      models.Round
	MatchCount int64
	Deadline   *time.Time
}

// WeekStart returns the Saturday on or before the civil date day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) - int(time.Saturday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// ResolveRound returns the round containing the local date of kickoff,
// creating the canonical week when none does.
func (h *Handler) ResolveRound(kickoff time.Time) (Resolution, error) {
	var res Resolution
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = h.Resolve(tx, kickoff)
		return err
	})
	return res, err
}

// Resolve is ResolveRound inside the caller's transaction.
func (h *Handler) Resolve(tx *gorm.DB, kickoff time.Time) (Resolution, error) {
	conn := h.Conn(tx)
	day := h.Zone.LocalDate(kickoff)

	rounds, err := h.list(conn)
	if err != nil {
		return Resolution{}, err
	}

	var found []models.Round
	for _, r := range rounds {
		if r.Contains(day) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
	case 1:
		return Resolution{Round: found[0]}, nil
	default:
		return Resolution{}, models.Integrity("round", found[1].ID, "overlaps round %d on %s",
			found[0].ID, day.Format(clock.DateLayout))
	}

	start := WeekStart(day)
	end := start.AddDate(0, 0, 6)
	for _, r := range rounds {
		if r.Overlaps(start, end) {
			return Resolution{}, models.Integrity("round", r.ID, "partially overlaps week %s..%s",
				start.Format(clock.DateLayout), end.Format(clock.DateLayout))
		}
	}

	name, err := h.nextName(conn, len(rounds))
	if err != nil {
		return Resolution{}, err
	}
	round := models.Round{Name: name, StartDate: start, EndDate: end}

	// A concurrent writer may have created the same week; the unique start
	// date makes the loser pick the winner's row up instead.
	err = conn.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&round).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing models.Round
		if err := conn.Where("start_date = ?", start).First(&existing).Error; err != nil {
			return Resolution{}, fmt.Errorf("reload round for %s: %w", start.Format(clock.DateLayout), err)
		}
		return Resolution{Round: existing}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("create round: %w", err)
	}

	h.Log.WithFields(logrus.Fields{
		"round": round.Name,
		"start": start.Format(clock.DateLayout),
		"end":   end.Format(clock.DateLayout),
	}).Info("round created")
	return Resolution{Round: round, Created: true}, nil
}

// nextName increments the trailing number of the most recently created
// round. A name that does not parse falls back to count+1, which no
// existing "Round n" name can repeat.
func (h *Handler) nextName(conn *gorm.DB, count int) (string, error) {
	var last []models.Round
	if err := conn.Order("id DESC").Limit(1).Find(&last).Error; err != nil {
		return "", fmt.Errorf("load last round: %w", err)
	}
	if len(last) == 0 {
		return models.RoundName(1), nil
	}
	if n, ok := last[0].Number(); ok {
		return models.RoundName(n + 1), nil
	}
	h.Log.WithField("round", last[0].Name).Warn("round name has no number, numbering from count")
	return models.RoundName(count + 1), nil
}

func (h *Handler) list(conn *gorm.DB) ([]models.Round, error) {
	var rounds []models.Round
	if err := conn.Order("start_date ASC").Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	return rounds, nil
}

func (h *Handler) ListRounds() ([]models.Round, error) {
	return h.list(h.DB)
}

func (h *Handler) GetRound(tx *gorm.DB, roundID uint) (models.Round, error) {
	var round models.Round
	err := h.Conn(tx).First(&round, roundID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Round{}, fmt.Errorf("round %d: %w", roundID, models.ErrRoundNotFound)
	} else if err != nil {
		return models.Round{}, err
	}
	return round, nil
}

// CurrentRound is the round containing today's local date.
func (h *Handler) CurrentRound() (models.Round, error) {
	today := h.Zone.LocalDate(h.Clock.Now())
	rounds, err := h.list(h.DB)
	if err != nil {
		return models.Round{}, err
	}
	for _, r := range rounds {
		if r.Contains(today) {
			return r, nil
		}
	}
	return models.Round{}, fmt.Errorf("no round on %s: %w", today.Format(clock.DateLayout), models.ErrRoundNotFound)
}

// NextRound is the earliest round starting after today.
func (h *Handler) NextRound() (models.Round, error) {
	today := h.Zone.LocalDate(h.Clock.Now())
	rounds, err := h.list(h.DB)
	if err != nil {
		return models.Round{}, err
	}
	for _, r := range rounds {
		if r.StartDate.After(today) {
			return r, nil
		}
	}
	return models.Round{}, fmt.Errorf("no round after %s: %w", today.Format(clock.DateLayout), models.ErrRoundNotFound)
}

// Deadline is the earliest kickoff in the round minus the deadline lead.
// ok is false while the round has no matches.
func (h *Handler) Deadline(tx *gorm.DB, roundID uint) (deadline time.Time, ok bool, err error) {
	conn := h.Conn(tx)
	if _, err := h.GetRound(conn, roundID); err != nil {
		return time.Time{}, false, err
	}
	var first []models.Match
	err = conn.Where("round_id = ?", roundID).Order("match_datetime ASC").Limit(1).Find(&first).Error
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load first match of round %d: %w", roundID, err)
	}
	if len(first) == 0 {
		return time.Time{}, false, nil
	}
	return first[0].Kickoff.UTC().Add(-h.Rules.DeadlineLead), true, nil
}

func (h *Handler) RoundSummary(roundID uint) (Summary, error) {
	round, err := h.GetRound(nil, roundID)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Round: round}
	if err := h.DB.Model(&models.Match{}).Where("round_id = ?", roundID).Count(&s.MatchCount).Error; err != nil {
		return Summary{}, err
	}
	deadline, ok, err := h.Deadline(nil, roundID)
	if err != nil {
		return Summary{}, err
	}
	if ok {
		s.Deadline = &deadline
	}
	return s, nil
}

// DeleteRound removes a round that holds no matches.
func (h *Handler) DeleteRound(roundID uint) error {
	return h.DB.Transaction(func(tx *gorm.DB) error {
		round, err := h.GetRound(tx, roundID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Match{}).Where("round_id = ?", roundID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%s has %d matches: %w", round.Name, count, models.ErrRoundNotEmpty)
		}
		if err := tx.Delete(&round).Error; err != nil {
			return err
		}
		h.Log.WithField("round", round.Name).Info("round deleted")
		return nil
	})
}
