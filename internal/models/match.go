package models

import "time"

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// Match is a scheduled fixture. Kickoff is always stored in UTC.
type Match struct {
	ID                  uint      `gorm:"primaryKey"`
	RoundID             uint      `gorm:"not null;index;uniqueIndex:idx_round_fixture"`
	LeagueID            uint      `gorm:"not null;index"`
	StageID             uint      `gorm:"not null;index"`
	HomeTeamID          uint      `gorm:"not null;uniqueIndex:idx_round_fixture"`
	AwayTeamID          uint      `gorm:"not null;uniqueIndex:idx_round_fixture"`
	Round               Round     `gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Stage               Stage     `gorm:"foreignKey:StageID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	HomeTeam            Team      `gorm:"foreignKey:HomeTeamID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AwayTeam            Team      `gorm:"foreignKey:AwayTeamID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Kickoff             time.Time `gorm:"column:match_datetime;not null;index"`
	Status              Status    `gorm:"size:16;not null;default:upcoming"`
	HomeScore           *int
	AwayScore           *int
	PenaltyWinnerTeamID *uint
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (m Match) HasResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Involves reports whether teamID plays in the match.
func (m Match) Involves(teamID uint) bool {
	return teamID == m.HomeTeamID || teamID == m.AwayTeamID
}

// Final reports whether the status can no longer change automatically.
func (s Status) Final() bool {
	return s == StatusFinished || s == StatusCancelled
}

// NextStatus is the automatic lifecycle: upcoming turns live at kickoff and
// live turns finished once the live window has elapsed. Finished and
// cancelled are never left.
func NextStatus(status Status, kickoff, now time.Time, liveWindow time.Duration) Status {
	switch status {
	case StatusUpcoming:
		if now.Before(kickoff) {
			return StatusUpcoming
		}
		if !now.Before(kickoff.Add(liveWindow)) {
			return StatusFinished
		}
		return StatusLive
	case StatusLive:
		if !now.Before(kickoff.Add(liveWindow)) {
			return StatusFinished
		}
		return StatusLive
	default:
		return status
	}
}

// CanCancel reports whether an administrator may cancel from status.
func (s Status) CanCancel() bool {
	return s == StatusUpcoming || s == StatusLive
}

// TwoLeggedTie links the legs of a knockout tie. The second leg reverses
// home and away.
type TwoLeggedTie struct {
	ID               uint `gorm:"primaryKey"`
	FirstLegMatchID  uint `gorm:"not null;uniqueIndex"`
	SecondLegMatchID uint `gorm:"not null;uniqueIndex"`
	WinnerTeamID     *uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Prediction is unique per player and match. Score stays nil until the
// match is scored.
type Prediction struct {
	ID                     uint `gorm:"primaryKey"`
	PlayerID               uint `gorm:"not null;uniqueIndex:idx_player_match"`
	MatchID                uint `gorm:"not null;uniqueIndex:idx_player_match;index"`
	PredictedHomeScore     int  `gorm:"not null"`
	PredictedAwayScore     int  `gorm:"not null"`
	PredictedPenaltyWinner *uint
	Score                  *int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
