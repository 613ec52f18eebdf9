package teamhandlers

import (
	"errors"
	"fmt"
	"strings"

	"match-predictor/internal/models"

	"gorm.io/gorm"
)

type Handler struct {
	models.Handler
}

// StageRules are the rule flags a stage passes on to its matches.
type StageRules struct {
	CanBeDraw      bool
	TwoLegs        bool
	MustHaveWinner bool
}

func (h *Handler) CreateLeague(name, country string) (models.League, error) {
	league := models.League{Name: strings.TrimSpace(name), Country: strings.TrimSpace(country)}
	if league.Name == "" {
		return models.League{}, fmt.Errorf("league: %w", models.ErrEmptyName)
	}
	if err := h.DB.Create(&league).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.League{}, fmt.Errorf("league %q: %w", league.Name, models.ErrDuplicateLeague)
		}
		return models.League{}, err
	}
	h.Log.WithField("league", league.Name).Info("league created")
	return league, nil
}

func (h *Handler) GetLeague(leagueID uint) (models.League, error) {
	var league models.League
	err := h.DB.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("stage_order ASC")
	}).First(&league, leagueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.League{}, fmt.Errorf("league %d: %w", leagueID, models.ErrLeagueNotFound)
	} else if err != nil {
		return models.League{}, err
	}
	return league, nil
}

func (h *Handler) ListLeagues() ([]models.League, error) {
	var leagues []models.League
	err := h.DB.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("stage_order ASC")
	}).Order("name ASC").Find(&leagues).Error
	return leagues, err
}

// CreateStage adds a stage to the league. A stage that must produce a winner
// never allows a draw.
func (h *Handler) CreateStage(leagueID uint, name string, order int, rules StageRules) (models.Stage, error) {
	if _, err := h.GetLeague(leagueID); err != nil {
		return models.Stage{}, err
	}
	if rules.MustHaveWinner {
		rules.CanBeDraw = false
	}
	stage := models.Stage{
		LeagueID:       leagueID,
		Name:           strings.TrimSpace(name),
		Order:          order,
		CanBeDraw:      rules.CanBeDraw,
		TwoLegs:        rules.TwoLegs,
		MustHaveWinner: rules.MustHaveWinner,
	}
	if stage.Name == "" {
		return models.Stage{}, fmt.Errorf("stage: %w", models.ErrEmptyName)
	}
	if err := h.DB.Create(&stage).Error; err != nil {
		return models.Stage{}, err
	}
	h.Log.WithField("stage", stage.Name).WithField("league", leagueID).Info("stage created")
	return stage, nil
}

func (h *Handler) GetStage(stageID uint) (models.Stage, error) {
	var stage models.Stage
	err := h.DB.First(&stage, stageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Stage{}, fmt.Errorf("stage %d: %w", stageID, models.ErrStageNotFound)
	} else if err != nil {
		return models.Stage{}, err
	}
	return stage, nil
}

func (h *Handler) CreateTeam(name string) (models.Team, error) {
	team := models.Team{Name: strings.TrimSpace(name)}
	if team.Name == "" {
		return models.Team{}, fmt.Errorf("team: %w", models.ErrEmptyName)
	}

	var existing int64
	if err := h.DB.Model(&models.Team{}).Where("name = ?", team.Name).Count(&existing).Error; err != nil {
		return models.Team{}, err
	}
	if existing > 0 {
		return models.Team{}, fmt.Errorf("team %q: %w", team.Name, models.ErrDuplicateTeam)
	}

	if err := h.DB.Create(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Team{}, fmt.Errorf("team %q: %w", team.Name, models.ErrDuplicateTeam)
		}
		return models.Team{}, err
	}
	h.Log.WithField("team", team.Name).Info("team created")
	return team, nil
}

func (h *Handler) GetTeamByID(teamID uint) (models.Team, error) {
	var team models.Team
	err := h.DB.First(&team, teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Team{}, fmt.Errorf("team %d: %w", teamID, models.ErrTeamNotFound)
	} else if err != nil {
		return models.Team{}, err
	}
	return team, nil
}

// GetTeamByName matches the name case-insensitively.
func (h *Handler) GetTeamByName(name string) (models.Team, error) {
	var team models.Team
	err := h.DB.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Team{}, fmt.Errorf("team %q: %w", name, models.ErrTeamNotFound)
	} else if err != nil {
		return models.Team{}, err
	}
	return team, nil
}

func (h *Handler) ListTeams() ([]models.Team, error) {
	var teams []models.Team
	err := h.DB.Order("name ASC").Find(&teams).Error
	return teams, err
}
