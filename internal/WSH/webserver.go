package wsh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"match-predictor/internal/clock"
	"match-predictor/internal/handlers"
	"match-predictor/internal/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type MatchResponse struct {
	ID            uint   `json:"id"`
	Round         uint   `json:"round_id"`
	Stage         string `json:"stage"`
	Home          string `json:"home"`
	Away          string `json:"away"`
	Kickoff       string `json:"kickoff"`
	Status        string `json:"status"`
	HomeScore     *int   `json:"home_score"`
	AwayScore     *int   `json:"away_score"`
	PenaltyWinner string `json:"penalty_winner,omitempty"`
}

type RoundResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	MatchCount  *int64 `json:"match_count,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	SecondsLeft *int64 `json:"seconds_left,omitempty"`
}

type AchievementsResponse struct {
	PlayerID   uint   `json:"player_id"`
	Username   string `json:"username"`
	Rank       int    `json:"rank"`
	Points     int64  `json:"points"`
	LeaguesWon int    `json:"leagues_won"`
	CupsWon    int    `json:"cups_won"`
}

// Server is the read-only JSON view of rounds, matches and standings.
type Server struct {
	Handlers *handlers.Set
	Zone     *clock.Zone
	Clock    clock.Clock
	Log      *logrus.Entry
}

func NewServer(set *handlers.Set, base models.Handler) *Server {
	return &Server{
		Handlers: set,
		Zone:     base.Zone,
		Clock:    base.Clock,
		Log:      base.Log.WithField("component", "http"),
	}
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(withCORS)

	get := []string{http.MethodGet, http.MethodOptions}
	r.HandleFunc("/leaderboard", s.serveLeaderboard).Methods(get...)
	r.HandleFunc("/rounds", s.serveRounds).Methods(get...)
	r.HandleFunc("/rounds/current", s.serveCurrentRound).Methods(get...)
	r.HandleFunc("/rounds/{id:[0-9]+}", s.serveRound).Methods(get...)
	r.HandleFunc("/rounds/{id:[0-9]+}/matches", s.serveRoundMatches).Methods(get...)
	r.HandleFunc("/players/{id:[0-9]+}/achievements", s.serveAchievements).Methods(get...)
	return r
}

func (s *Server) serveLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Handlers.Users.Leaderboard()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Server) serveRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.Handlers.Rounds.ListRounds()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]RoundResponse, 0, len(rounds))
	for _, round := range rounds {
		out = append(out, roundResponse(round))
	}
	s.writeJSON(w, out)
}

func (s *Server) serveCurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.Handlers.Rounds.CurrentRound()
	if errors.Is(err, models.ErrRoundNotFound) {
		round, err = s.Handlers.Rounds.NextRound()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSummary(w, r, round.ID)
}

func (s *Server) serveRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSummary(w, r, id)
}

func (s *Server) writeSummary(w http.ResponseWriter, r *http.Request, roundID uint) {
	summary, err := s.Handlers.Rounds.RoundSummary(roundID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := roundResponse(summary.Round)
	out.MatchCount = &summary.MatchCount
	if summary.Deadline != nil {
		out.Deadline = s.Zone.Local(*summary.Deadline).Format(time.RFC3339)
		left := int64(summary.Deadline.Sub(s.Clock.Now()) / time.Second)
		if left < 0 {
			left = 0
		}
		out.SecondsLeft = &left
	}
	s.writeJSON(w, out)
}

func (s *Server) serveRoundMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	matches, err := s.Handlers.Matches.ListRound(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		res := MatchResponse{
			ID:        m.ID,
			Round:     m.RoundID,
			Stage:     m.Stage.Name,
			Home:      m.HomeTeam.Name,
			Away:      m.AwayTeam.Name,
			Kickoff:   s.Zone.Local(m.Kickoff).Format(time.RFC3339),
			Status:    string(m.Status),
			HomeScore: m.HomeScore,
			AwayScore: m.AwayScore,
		}
		if id := m.PenaltyWinnerTeamID; id != nil {
			if *id == m.HomeTeamID {
				res.PenaltyWinner = m.HomeTeam.Name
			} else {
				res.PenaltyWinner = m.AwayTeam.Name
			}
		}
		out = append(out, res)
	}
	s.writeJSON(w, out)
}

func (s *Server) serveAchievements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.Handlers.Users.Achievements(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	standing, err := s.Handlers.Users.Rank(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, AchievementsResponse{
		PlayerID:   id,
		Username:   standing.Username,
		Rank:       standing.Rank,
		Points:     standing.Points,
		LeaguesWon: a.TotalLeaguesWon,
		CupsWon:    a.TotalCupsWon,
	})
}

func roundResponse(r models.Round) RoundResponse {
	return RoundResponse{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: r.StartDate.Format(clock.DateLayout),
		EndDate:   r.EndDate.Format(clock.DateLayout),
	}
}

func pathID(r *http.Request) (uint, error) {
	n, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

var notFound = []error{
	models.ErrRoundNotFound, models.ErrMatchNotFound, models.ErrPlayerNotFound,
	models.ErrTeamNotFound, models.ErrStageNotFound, models.ErrLeagueNotFound,
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.Log.WithError(err).WithField("path", r.URL.Path)
	reason := models.Reason(err)
	switch {
	case models.IsIntegrity(err):
		log.Error("stored data is inconsistent")
		http.Error(w, "internal error", http.StatusInternalServerError)
	case reason == nil:
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		log.Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		log.Warn("request rejected")
		status := http.StatusBadRequest
		for _, target := range notFound {
			if reason == target {
				status = http.StatusNotFound
			}
		}
		http.Error(w, reason.Error(), status)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.WithError(err).Debug("write response")
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartWS serves until ctx is done, then shuts down gracefully.
func StartWS(ctx context.Context, addr string, s *Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	s.Log.WithField("addr", addr).Info("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
