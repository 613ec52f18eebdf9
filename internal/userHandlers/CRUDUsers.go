package userhandlers

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

// Standing is one leaderboard row. Unscored predictions count as zero.
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID uint   `json:"player_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	Scored   int64  `json:"scored"`
}

// RegisterPlayer returns the player of chatID, creating it on first contact.
func (h *Handler) RegisterPlayer(chatID int64, username string) (models.Player, bool, error) {
	existing, err := h.GetPlayerByChatId(chatID)
	if err == nil {
		return existing, false, nil
	} else if !errors.Is(err, models.ErrPlayerNotFound) {
		return models.Player{}, false, err
	}

	player := models.Player{Username: strings.TrimPrefix(strings.TrimSpace(username), "@"), ChatID: chatID}
	if player.Username == "" {
		return models.Player{}, false, fmt.Errorf("username: %w", models.ErrEmptyName)
	}
	if err := h.DB.Create(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Player{}, false, fmt.Errorf("%q: %w", player.Username, models.ErrDuplicatePlayer)
		}
		return models.Player{}, false, err
	}
	h.Log.WithField("player", player.Username).Info("player registered")
	return player, true, nil
}

func (h *Handler) GetPlayerByChatId(chatID int64) (models.Player, error) {
	var player models.Player
	if err := h.DB.Where("chat_id = ?", chatID).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Player{}, fmt.Errorf("chat %d: %w", chatID, models.ErrPlayerNotFound)
		}
		return models.Player{}, err
	}
	return player, nil
}

func (h *Handler) GetPlayer(playerID uint) (models.Player, error) {
	var player models.Player
	if err := h.DB.First(&player, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Player{}, fmt.Errorf("player %d: %w", playerID, models.ErrPlayerNotFound)
		}
		return models.Player{}, err
	}
	return player, nil
}

// Leaderboard sums every player's prediction scores. Equal points share a
// rank and the next rank skips accordingly.
func (h *Handler) Leaderboard() ([]Standing, error) {
	var rows []Standing
	err := h.DB.Model(&models.Player{}).
		Select("players.id AS player_id, players.username AS username, " +
			"COALESCE(SUM(predictions.score), 0) AS points, COUNT(predictions.score) AS scored").
		Joins("LEFT JOIN predictions ON predictions.player_id = players.id").
		Group("players.id, players.username").
		Order("points DESC, players.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	for i := range rows {
		if i > 0 && rows[i].Points == rows[i-1].Points {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}
	return rows, nil
}

func (h *Handler) Rank(playerID uint) (Standing, error) {
	rows, err := h.Leaderboard()
	if err != nil {
		return Standing{}, err
	}
	for _, row := range rows {
		if row.PlayerID == playerID {
			return row, nil
		}
	}
	return Standing{}, fmt.Errorf("player %d: %w", playerID, models.ErrPlayerNotFound)
}

// Achievements are maintained elsewhere; a player without a row has won
// nothing yet.
func (h *Handler) Achievements(playerID uint) (models.Achievement, error) {
	if _, err := h.GetPlayer(playerID); err != nil {
		return models.Achievement{}, err
	}
	a := models.Achievement{PlayerID: playerID}
	err := h.DB.Where("player_id = ?", playerID).Limit(1).Find(&a).Error
	return a, err
}
