package models

import (
	"time"

	"match-predictor/internal/clock"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultDeadlineLead = 2 * time.Hour
	DefaultLiveWindow   = 3 * time.Hour
)

// Rules holds the timing rules shared by the lifecycle and the deadline.
type Rules struct {
	DeadlineLead time.Duration
	LiveWindow   time.Duration
}

func DefaultRules() Rules {
	return Rules{DeadlineLead: DefaultDeadlineLead, LiveWindow: DefaultLiveWindow}
}

// Handler is embedded by every handler package. It carries the request
// independent dependencies; nothing in it is mutated after construction.
type Handler struct {
	DB    *gorm.DB
	Log   *logrus.Entry
	Clock clock.Clock
	Zone  *clock.Zone
	Rules Rules
}

// Conn returns tx when a caller runs inside a transaction, the pool otherwise.
func (h Handler) Conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.DB
}

func (h Handler) Component(name string) Handler {
	h.Log = h.Log.WithField("component", name)
	return h
}
