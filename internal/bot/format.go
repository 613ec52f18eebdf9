package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"match-predictor/internal/clock"
	mtH "match-predictor/internal/matchHandlers"
	"match-predictor/internal/models"
	"match-predictor/internal/scoring"
	tmH "match-predictor/internal/teamHandlers"
)

// errUsage makes Reply answer with the command's usage line.
var errUsage = errors.New("bad arguments")

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 32)
	if err != nil || n == 0 {
		return 0, errUsage
	}
	return uint(n), nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errUsage
	}
	return n, nil
}

func optionalID(args []string, i int) (*uint, error) {
	if len(args) <= i {
		return nil, nil
	}
	id, err := parseID(args[i])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseScore reads a scoreline written as "2-1" or "2:1".
func ParseScore(s string) (home, away int, err error) {
	sep := strings.IndexAny(s, "-:")
	if sep <= 0 || sep == len(s)-1 {
		return 0, 0, errUsage
	}
	home, herr := strconv.Atoi(s[:sep])
	away, aerr := strconv.Atoi(s[sep+1:])
	if herr != nil || aerr != nil {
		return 0, 0, errUsage
	}
	return home, away, nil
}

// parseKickoff reads a local wall time in the league zone.
func (b *Bot) parseKickoff(date, hm string) (time.Time, error) {
	t, err := b.Zone.ParseLocal(clock.DateTimeLayout, date+" "+hm)
	if err != nil {
		return time.Time{}, errUsage
	}
	return t, nil
}

// parseRules reads a comma separated flag list; "-" sets none.
func parseRules(s string) (tmH.StageRules, error) {
	var rules tmH.StageRules
	if s == "-" {
		return rules, nil
	}
	for _, flag := range strings.Split(strings.ToLower(s), ",") {
		switch strings.TrimSpace(flag) {
		case "draw":
			rules.CanBeDraw = true
		case "two_legs":
			rules.TwoLegs = true
		case "winner":
			rules.MustHaveWinner = true
		default:
			return tmH.StageRules{}, errUsage
		}
	}
	return rules, nil
}

func formatRules(s models.Stage) string {
	var flags []string
	if s.CanBeDraw {
		flags = append(flags, "draw")
	}
	if s.TwoLegs {
		flags = append(flags, "two_legs")
	}
	if s.MustHaveWinner {
		flags = append(flags, "winner")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// TimeLeft renders the time remaining before a deadline with its icon.
func TimeLeft(d time.Duration) (text, icon string) {
	switch {
	case d <= 0:
		return "Deadline passed!", "❌"
	case d < time.Hour:
		return fmt.Sprintf("%d minute(s) left", int(d/time.Minute)), "⏳"
	case d < 10*time.Hour:
		return fmt.Sprintf("%.1f hour(s) left", d.Hours()), "⏰"
	}
	return fmt.Sprintf("%.1f day(s) left", d.Hours()/24), "📅"
}

func teamName(m models.Match, teamID uint) string {
	switch teamID {
	case m.HomeTeamID:
		return m.HomeTeam.Name
	case m.AwayTeamID:
		return m.AwayTeam.Name
	}
	return fmt.Sprintf("team #%d", teamID)
}

const kickoffLayout = "Mon 02 Jan 15:04"

func (b *Bot) formatMatch(m models.Match) string {
	line := fmt.Sprintf("#%d %s vs %s, %s", m.ID, m.HomeTeam.Name, m.AwayTeam.Name, b.Zone.Format(m.Kickoff, kickoffLayout))
	if m.HasResult() {
		line += fmt.Sprintf(", %d-%d", *m.HomeScore, *m.AwayScore)
		if m.PenaltyWinnerTeamID != nil {
			line += fmt.Sprintf(" (%s on penalties)", teamName(m, *m.PenaltyWinnerTeamID))
		}
	}
	return line + fmt.Sprintf(" [%s]", m.Status)
}

func describeScheduled(s mtH.Scheduled) string {
	out := fmt.Sprintf("match #%d scheduled in %s", s.Match.ID, s.Round.Round.Name)
	if s.Round.Created {
		out += fmt.Sprintf(" (new round %s to %s)",
			s.Round.Round.StartDate.Format(clock.DateLayout), s.Round.Round.EndDate.Format(clock.DateLayout))
	}
	return out
}

func describeRecorded(rec mtH.Recorded) string {
	m := rec.Match
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %s %d-%d %s", m.HomeTeam.Name, *m.HomeScore, *m.AwayScore, m.AwayTeam.Name)
	if m.PenaltyWinnerTeamID != nil {
		fmt.Fprintf(&sb, ", %s on penalties", teamName(m, *m.PenaltyWinnerTeamID))
	}
	if t := rec.Context.Tie; t != nil && t.State != scoring.FirstLegOnly {
		if t.State.Complete() {
			fmt.Fprintf(&sb, "\nAggregate: %s %d-%d %s", teamName(m, t.HomeTeamID), t.Home, t.Away, teamName(m, t.AwayTeamID))
		} else {
			fmt.Fprintf(&sb, "\nTie: %s", t.State)
		}
	}
	for _, s := range rec.Scored {
		if s.Ready {
			fmt.Fprintf(&sb, "\nMatch #%d: %d predictions scored", s.MatchID, s.Predictions)
		} else {
			fmt.Fprintf(&sb, "\nMatch #%d: scoring waits for the rest of the tie", s.MatchID)
		}
	}
	return sb.String()
}
