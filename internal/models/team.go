package models

import "time"

type League struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null;uniqueIndex"`
	Country   string `gorm:"size:64"`
	LogoPath  string
	Stages    []Stage `gorm:"foreignKey:LeagueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time
}

// Stage is a phase of a league with its own draw and winner rules.
type Stage struct {
	ID             uint   `gorm:"primaryKey"`
	LeagueID       uint   `gorm:"not null;index"`
	Name           string `gorm:"size:128;not null"`
	Order          int    `gorm:"column:stage_order;not null;default:0"`
	CanBeDraw      bool   `gorm:"not null"`
	TwoLegs        bool   `gorm:"not null"`
	MustHaveWinner bool   `gorm:"not null"`
	CreatedAt      time.Time
}

type Team struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:128;not null;uniqueIndex"`
	PathToLogo string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
