package bot

import (
	"errors"
	"fmt"
	"strings"

	"match-predictor/internal/clock"
	mtH "match-predictor/internal/matchHandlers"
	"match-predictor/internal/models"
	prH "match-predictor/internal/predictionHandlers"
)

type call struct {
	chatID   int64
	username string
	args     []string
}

type command struct {
	name    string
	usage   string
	help    string
	admin   bool
	minArgs int
	run     func(*Bot, call) (string, error)
}

func (b *Bot) routes() []command {
	return []command{
		{name: "/start", usage: "/start", help: "show this help", run: (*Bot).start},
		{name: "/register", usage: "/register [username]", help: "join the game", run: (*Bot).register},
		{name: "/rounds", usage: "/rounds", help: "list rounds", run: (*Bot).rounds},
		{name: "/matches", usage: "/matches [round_id]", help: "matches of a round", run: (*Bot).matches},
		{name: "/deadline", usage: "/deadline [round_id]", help: "time left to predict", run: (*Bot).deadline},
		{name: "/predict", usage: "/predict <match_id> <home-away> [winner_team_id]", help: "predict a score", minArgs: 2, run: (*Bot).predict},
		{name: "/mypredictions", usage: "/mypredictions [round_id]", help: "your predictions in a round", run: (*Bot).myPredictions},
		{name: "/leaderboard", usage: "/leaderboard", help: "points table", run: (*Bot).leaderboard},
		{name: "/me", usage: "/me", help: "your rank and achievements", run: (*Bot).me},
		{name: "/teams", usage: "/teams", help: "list teams", run: (*Bot).teams},
		{name: "/stages", usage: "/stages", help: "list leagues and stages", run: (*Bot).stages},

		{name: "/add_league", usage: "/add_league <name>", help: "create a league", admin: true, minArgs: 1, run: (*Bot).addLeague},
		{name: "/add_stage", usage: "/add_stage <league_id> <order> <draw,two_legs,winner|-> <name>", help: "create a stage", admin: true, minArgs: 4, run: (*Bot).addStage},
		{name: "/add_team", usage: "/add_team <name>", help: "create a team", admin: true, minArgs: 1, run: (*Bot).addTeam},
		{name: "/add_match", usage: "/add_match <stage_id> <home_id> <away_id> <YYYY-MM-DD> <HH:MM>", help: "schedule a match", admin: true, minArgs: 5, run: (*Bot).addMatch},
		{name: "/add_tie", usage: "/add_tie <stage_id> <home_id> <away_id> <YYYY-MM-DD> <HH:MM> <YYYY-MM-DD> <HH:MM>", help: "schedule both legs of a tie", admin: true, minArgs: 7, run: (*Bot).addTie},
		{name: "/link_tie", usage: "/link_tie <first_leg_id> <second_leg_id>", help: "link two matches as a tie", admin: true, minArgs: 2, run: (*Bot).linkTie},
		{name: "/result", usage: "/result <match_id> <home-away> [winner_team_id]", help: "record a final score", admin: true, minArgs: 2, run: (*Bot).result},
		{name: "/decider", usage: "/decider <match_id> <team_id>", help: "record a penalty winner", admin: true, minArgs: 2, run: (*Bot).decider},
		{name: "/cancel", usage: "/cancel <match_id>", help: "cancel a match", admin: true, minArgs: 1, run: (*Bot).cancel},
		{name: "/reschedule", usage: "/reschedule <match_id> <YYYY-MM-DD> <HH:MM>", help: "move a kickoff", admin: true, minArgs: 3, run: (*Bot).reschedule},
		{name: "/reorganize", usage: "/reorganize", help: "reassign matches to rounds", admin: true, run: (*Bot).reorganize},
		{name: "/delete_round", usage: "/delete_round <round_id>", help: "delete an empty round", admin: true, minArgs: 1, run: (*Bot).deleteRound},
	}
}

func (b *Bot) start(c call) (string, error) {
	admin := b.Config.IsAdmin(c.chatID)
	var sb strings.Builder
	sb.WriteString("⚽ Match predictor\n\n")
	for _, cmd := range b.commands {
		if cmd.admin && !admin {
			continue
		}
		fmt.Fprintf(&sb, "%s - %s\n", cmd.usage, cmd.help)
	}
	return sb.String(), nil
}

func (b *Bot) register(c call) (string, error) {
	username := c.username
	if len(c.args) > 0 {
		username = c.args[0]
	}
	p, created, err := b.Handlers.Users.RegisterPlayer(c.chatID, username)
	if err != nil {
		return "", err
	}
	if !created {
		return fmt.Sprintf("You are already registered as %s.", p.Username), nil
	}
	return fmt.Sprintf("✅ Registered as %s. Send /matches to start predicting.", p.Username), nil
}

func (b *Bot) player(c call) (models.Player, error) {
	return b.Handlers.Users.GetPlayerByChatId(c.chatID)
}

// round reads an optional round id at args[i]; without one it is the
// current round, or the next one between rounds.
func (b *Bot) round(c call, i int) (models.Round, error) {
	if len(c.args) > i {
		id, err := parseID(c.args[i])
		if err != nil {
			return models.Round{}, err
		}
		return b.Handlers.Rounds.GetRound(nil, id)
	}
	r, err := b.Handlers.Rounds.CurrentRound()
	if errors.Is(err, models.ErrRoundNotFound) {
		return b.Handlers.Rounds.NextRound()
	}
	return r, err
}

func (b *Bot) rounds(c call) (string, error) {
	rounds, err := b.Handlers.Rounds.ListRounds()
	if err != nil {
		return "", err
	}
	if len(rounds) == 0 {
		return "No rounds yet.", nil
	}
	var sb strings.Builder
	for _, r := range rounds {
		fmt.Fprintf(&sb, "#%d %s: %s to %s\n", r.ID, r.Name,
			r.StartDate.Format(clock.DateLayout), r.EndDate.Format(clock.DateLayout))
	}
	return sb.String(), nil
}

func (b *Bot) matches(c call) (string, error) {
	r, err := b.round(c, 0)
	if err != nil {
		return "", err
	}
	matches, err := b.Handlers.Matches.ListRound(r.ID)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No matches in %s yet.", r.Name), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %s\n", r.Name)
	for _, m := range matches {
		sb.WriteString(b.formatMatch(m))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (b *Bot) deadline(c call) (string, error) {
	r, err := b.round(c, 0)
	if err != nil {
		return "", err
	}
	d, ok, err := b.Handlers.Rounds.Deadline(nil, r.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("%s has no matches yet.", r.Name), nil
	}
	left, icon := TimeLeft(d.Sub(b.Clock.Now()))
	return fmt.Sprintf("%s %s deadline: %s\n%s", icon, r.Name, b.Zone.Format(d, clock.DateTimeLayout), left), nil
}

func (b *Bot) predict(c call) (string, error) {
	p, err := b.player(c)
	if err != nil {
		return "", err
	}
	matchID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	home, away, err := ParseScore(c.args[1])
	if err != nil {
		return "", err
	}
	decider, err := optionalID(c.args, 2)
	if err != nil {
		return "", err
	}

	_, err = b.Handlers.Predictions.Submit(prH.Submission{
		PlayerID: p.ID,
		MatchID:  matchID,
		Home:     home,
		Away:     away,
		Decider:  decider,
	})
	if err != nil {
		return "", err
	}
	m, err := b.Handlers.Matches.GetMatch(matchID)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("✅ Saved: %s %d-%d %s", m.HomeTeam.Name, home, away, m.AwayTeam.Name)
	if decider != nil {
		out += fmt.Sprintf(", %s on penalties", teamName(m, *decider))
	}
	return out, nil
}

func (b *Bot) myPredictions(c call) (string, error) {
	p, err := b.player(c)
	if err != nil {
		return "", err
	}
	r, err := b.round(c, 0)
	if err != nil {
		return "", err
	}
	predictions, err := b.Handlers.Predictions.ListForPlayer(p.ID, r.ID)
	if err != nil {
		return "", err
	}
	summary, err := b.Handlers.Rounds.RoundSummary(r.ID)
	if err != nil {
		return "", err
	}
	count, err := b.Handlers.Predictions.PredictedCount(p.ID, r.ID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔮 %s: %d of %d matches predicted\n", r.Name, count, summary.MatchCount)
	for _, pr := range predictions {
		m, err := b.Handlers.Matches.GetMatch(pr.MatchID)
		if err != nil {
			return "", err
		}
		points := "-"
		if pr.Score != nil {
			points = fmt.Sprint(*pr.Score)
		}
		fmt.Fprintf(&sb, "#%d %s %d-%d %s, points: %s\n", m.ID,
			m.HomeTeam.Name, pr.PredictedHomeScore, pr.PredictedAwayScore, m.AwayTeam.Name, points)
	}
	return sb.String(), nil
}

const leaderboardSize = 20

func (b *Bot) leaderboard(c call) (string, error) {
	rows, err := b.Handlers.Users.Leaderboard()
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No players yet.", nil
	}
	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard\n")
	for i, row := range rows {
		if i == leaderboardSize {
			break
		}
		fmt.Fprintf(&sb, "%d. %s, %d pts\n", row.Rank, row.Username, row.Points)
	}
	return sb.String(), nil
}

func (b *Bot) me(c call) (string, error) {
	p, err := b.player(c)
	if err != nil {
		return "", err
	}
	standing, err := b.Handlers.Users.Rank(p.ID)
	if err != nil {
		return "", err
	}
	a, err := b.Handlers.Users.Achievements(p.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("👤 %s: rank %d, %d points from %d scored predictions\nLeagues won: %d, cups won: %d",
		p.Username, standing.Rank, standing.Points, standing.Scored, a.TotalLeaguesWon, a.TotalCupsWon), nil
}

func (b *Bot) teams(c call) (string, error) {
	teams, err := b.Handlers.Teams.ListTeams()
	if err != nil {
		return "", err
	}
	if len(teams) == 0 {
		return "No teams yet.", nil
	}
	var sb strings.Builder
	for _, t := range teams {
		fmt.Fprintf(&sb, "#%d %s\n", t.ID, t.Name)
	}
	return sb.String(), nil
}

func (b *Bot) stages(c call) (string, error) {
	leagues, err := b.Handlers.Teams.ListLeagues()
	if err != nil {
		return "", err
	}
	if len(leagues) == 0 {
		return "No leagues yet.", nil
	}
	var sb strings.Builder
	for _, l := range leagues {
		fmt.Fprintf(&sb, "%s (#%d)\n", l.Name, l.ID)
		for _, s := range l.Stages {
			fmt.Fprintf(&sb, "  #%d %s [%s]\n", s.ID, s.Name, formatRules(s))
		}
	}
	return sb.String(), nil
}

func (b *Bot) addLeague(c call) (string, error) {
	l, err := b.Handlers.Teams.CreateLeague(strings.Join(c.args, " "), "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ League #%d %s created.", l.ID, l.Name), nil
}

func (b *Bot) addStage(c call) (string, error) {
	leagueID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	order, err := parseInt(c.args[1])
	if err != nil {
		return "", err
	}
	rules, err := parseRules(c.args[2])
	if err != nil {
		return "", err
	}
	s, err := b.Handlers.Teams.CreateStage(leagueID, strings.Join(c.args[3:], " "), order, rules)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Stage #%d %s created [%s].", s.ID, s.Name, formatRules(s)), nil
}

func (b *Bot) addTeam(c call) (string, error) {
	t, err := b.Handlers.Teams.CreateTeam(strings.Join(c.args, " "))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Team #%d %s created.", t.ID, t.Name), nil
}

func (b *Bot) fixture(args []string) (stageID, homeID, awayID uint, err error) {
	if stageID, err = parseID(args[0]); err != nil {
		return
	}
	if homeID, err = parseID(args[1]); err != nil {
		return
	}
	awayID, err = parseID(args[2])
	return
}

func (b *Bot) addMatch(c call) (string, error) {
	stageID, homeID, awayID, err := b.fixture(c.args)
	if err != nil {
		return "", err
	}
	kickoff, err := b.parseKickoff(c.args[3], c.args[4])
	if err != nil {
		return "", err
	}
	s, err := b.Handlers.Matches.AddMatch(stageID, homeID, awayID, kickoff)
	if err != nil {
		return "", err
	}
	return "✅ " + describeScheduled(s), nil
}

func (b *Bot) addTie(c call) (string, error) {
	stageID, homeID, awayID, err := b.fixture(c.args)
	if err != nil {
		return "", err
	}
	firstAt, err := b.parseKickoff(c.args[3], c.args[4])
	if err != nil {
		return "", err
	}
	secondAt, err := b.parseKickoff(c.args[5], c.args[6])
	if err != nil {
		return "", err
	}
	st, err := b.Handlers.Matches.AddTie(stageID, homeID, awayID, firstAt, secondAt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Tie #%d\nLeg 1: %s\nLeg 2: %s", st.Tie.ID,
		describeScheduled(st.First), describeScheduled(st.Second)), nil
}

func (b *Bot) linkTie(c call) (string, error) {
	firstID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	secondID, err := parseID(c.args[1])
	if err != nil {
		return "", err
	}
	tie, err := b.Handlers.Matches.LinkTie(firstID, secondID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Matches #%d and #%d linked as tie #%d.", tie.FirstLegMatchID, tie.SecondLegMatchID, tie.ID), nil
}

func (b *Bot) result(c call) (string, error) {
	matchID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	home, away, err := ParseScore(c.args[1])
	if err != nil {
		return "", err
	}
	decider, err := optionalID(c.args, 2)
	if err != nil {
		return "", err
	}
	rec, err := b.Handlers.Matches.RecordResult(mtH.Result{MatchID: matchID, Home: home, Away: away, Decider: decider})
	if err != nil {
		return "", err
	}
	return describeRecorded(rec), nil
}

func (b *Bot) decider(c call) (string, error) {
	matchID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	teamID, err := parseID(c.args[1])
	if err != nil {
		return "", err
	}
	rec, err := b.Handlers.Matches.RecordDecider(matchID, teamID)
	if err != nil {
		return "", err
	}
	return describeRecorded(rec), nil
}

func (b *Bot) cancel(c call) (string, error) {
	matchID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	m, err := b.Handlers.Matches.Cancel(matchID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🚫 Match #%d cancelled.", m.ID), nil
}

func (b *Bot) reschedule(c call) (string, error) {
	matchID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	kickoff, err := b.parseKickoff(c.args[1], c.args[2])
	if err != nil {
		return "", err
	}
	m, outside, err := b.Handlers.Matches.Reschedule(matchID, kickoff)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("🕒 Match #%d now kicks off %s.", m.ID, b.Zone.Format(m.Kickoff, clock.DateTimeLayout))
	if outside {
		out += "\nThe new date is outside its round. Run /reorganize to move it."
	}
	return out, nil
}

func (b *Bot) reorganize(c call) (string, error) {
	report, err := b.Handlers.Rounds.Reorganize()
	if err != nil {
		return "", err
	}
	if !report.Changed() {
		return "Rounds are already in order.", nil
	}
	return fmt.Sprintf("🔄 %d matches moved, %d empty rounds deleted, %d rounds renamed.",
		report.Reassigned, report.Deleted, report.Renamed), nil
}

func (b *Bot) deleteRound(c call) (string, error) {
	roundID, err := parseID(c.args[0])
	if err != nil {
		return "", err
	}
	if err := b.Handlers.Rounds.DeleteRound(roundID); err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑 Round #%d deleted.", roundID), nil
}
