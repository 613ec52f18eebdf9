package models

import "time"

type Player struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:64;not null;uniqueIndex"`
	ChatID    int64  `gorm:"uniqueIndex;not null"` // Telegram chat of the player
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Achievement totals are maintained outside the scoring engine.
type Achievement struct {
	PlayerID        uint `gorm:"primaryKey"`
	TotalLeaguesWon int  `gorm:"not null;default:0"`
	TotalCupsWon    int  `gorm:"not null;default:0"`
	UpdatedAt       time.Time
}
