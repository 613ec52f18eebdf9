package dbtest

import (
	"testing"

	"match-predictor/internal/models"

	"gorm.io/gorm"
)

// Fixture is a league with one stage of each rule set, four teams and
// three players.
type Fixture struct {
	League   models.League
	Group    models.Stage // draws allowed
	Final    models.Stage // single match, must have a winner
	Knockout models.Stage // two legs, must have a winner
	Teams    []models.Team
	Players  []models.Player
}

func Seed(t testing.TB, DB *gorm.DB) Fixture {
	t.Helper()
	must := func(err error) {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	f := Fixture{League: models.League{Name: "Champions Cup", Country: "Europe"}}
	must(DB.Create(&f.League).Error)

	f.Group = models.Stage{LeagueID: f.League.ID, Name: "Group", Order: 1, CanBeDraw: true}
	f.Knockout = models.Stage{LeagueID: f.League.ID, Name: "Quarter-final", Order: 2, TwoLegs: true, MustHaveWinner: true}
	f.Final = models.Stage{LeagueID: f.League.ID, Name: "Final", Order: 3, MustHaveWinner: true}
	for _, s := range []*models.Stage{&f.Group, &f.Knockout, &f.Final} {
		must(DB.Create(s).Error)
	}
	for _, name := range []string{"Al Ahly", "Zamalek", "Pyramids", "Ismaily"} {
		team := models.Team{Name: name}
		must(DB.Create(&team).Error)
		f.Teams = append(f.Teams, team)
	}
	for i, name := range []string{"basel", "mona", "omar"} {
		p := models.Player{Username: name, ChatID: int64(1000 + i)}
		must(DB.Create(&p).Error)
		f.Players = append(f.Players, p)
	}
	return f
}
