// Package handlers wires every entity handler onto one shared base.
package handlers

import (
	mtH "match-predictor/internal/matchHandlers"
	"match-predictor/internal/models"
	prH "match-predictor/internal/predictionHandlers"
	rdH "match-predictor/internal/roundHandlers"
	tmH "match-predictor/internal/teamHandlers"
	tiH "match-predictor/internal/tieHandlers"
	usH "match-predictor/internal/userHandlers"
)

// Set groups the entity handlers. It is built once at startup and shared
// read-only by the bot and the web server.
type Set struct {
	Rounds      *rdH.Handler
	Ties        *tiH.Handler
	Predictions *prH.Handler
	Matches     *mtH.Handler
	Teams       *tmH.Handler
	Users       *usH.Handler
}

func New(base models.Handler) *Set {
	rounds := &rdH.Handler{Handler: base.Component("rounds")}
	ties := &tiH.Handler{Handler: base.Component("ties")}
	predictions := &prH.Handler{
		Handler: base.Component("predictions"),
		Rounds:  rounds,
		Ties:    ties,
	}
	return &Set{
		Rounds:      rounds,
		Ties:        ties,
		Predictions: predictions,
		Matches: &mtH.Handler{
			Handler:     base.Component("matches"),
			Rounds:      rounds,
			Ties:        ties,
			Predictions: predictions,
		},
		Teams: &tmH.Handler{Handler: base.Component("teams")},
		Users: &usH.Handler{Handler: base.Component("users")},
	}
}
