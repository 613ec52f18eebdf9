package models

import (
	"errors"
	"fmt"
)

// Validation errors. Callers get these back wrapped with context and match
// them with errors.Is.
var (
	ErrSameTeam          = errors.New("home and away team must differ")
	ErrDuplicateMatch    = errors.New("this match already exists in this round")
	ErrDeadlinePassed    = errors.New("prediction deadline has passed")
	ErrDeciderRequired   = errors.New("a penalty winner is required for a level result")
	ErrDeciderNotAllowed = errors.New("a penalty winner is not expected here")
	ErrInvalidDecider    = errors.New("penalty winner must be one of the two teams")
	ErrInvalidScore      = errors.New("invalid score")
	ErrMatchCancelled    = errors.New("match is cancelled")
	ErrMatchNotFinished  = errors.New("match is not finished")
	ErrInvalidTransition = errors.New("status change not allowed")
	ErrRoundNotEmpty     = errors.New("round still has matches")
	ErrTieExists         = errors.New("leg already belongs to a two-legged tie")
	ErrInvalidTie        = errors.New("matches cannot form a two-legged tie")
	ErrDuplicateTeam     = errors.New("team already exists")
	ErrDuplicatePlayer   = errors.New("username already taken")
	ErrDuplicateLeague   = errors.New("league already exists")
	ErrEmptyName         = errors.New("name must not be empty")

	ErrRoundNotFound  = errors.New("round not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrStageNotFound  = errors.New("stage not found")
	ErrLeagueNotFound = errors.New("league not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")
)

var validationErrors = []error{
	ErrSameTeam, ErrDuplicateMatch, ErrDeadlinePassed, ErrDeciderRequired,
	ErrDeciderNotAllowed, ErrInvalidDecider, ErrInvalidScore, ErrMatchCancelled,
	ErrMatchNotFinished, ErrInvalidTransition, ErrRoundNotEmpty, ErrTieExists,
	ErrInvalidTie, ErrDuplicateTeam, ErrDuplicatePlayer, ErrDuplicateLeague, ErrEmptyName,
	ErrRoundNotFound, ErrMatchNotFound, ErrStageNotFound, ErrLeagueNotFound,
	ErrTeamNotFound, ErrPlayerNotFound,
}

// IsValidation reports whether err is a rejected operation the caller can
// show to a user.
func IsValidation(err error) bool {
	return Reason(err) != nil
}

// Reason returns the validation sentinel err wraps, or nil.
func Reason(err error) error {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// IntegrityError marks stored data that breaks an invariant scoring relies
// on. It must never be shown to a player.
type IntegrityError struct {
	Entity string
	ID     uint
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %s %d: %s", e.Entity, e.ID, e.Reason)
}

func Integrity(entity string, id uint, format string, args ...any) error {
	return &IntegrityError{Entity: entity, ID: id, Reason: fmt.Sprintf(format, args...)}
}

func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
