package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Round is a Saturday..Friday bucket of matches. StartDate and EndDate are
// civil dates stored as midnight UTC.
type Round struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;not null"`
	StartDate time.Time `gorm:"not null;uniqueIndex"`
	EndDate   time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func RoundName(n int) string {
	return fmt.Sprintf("Round %d", n)
}

// Number parses the trailing integer of the round name.
func (r Round) Number() (int, bool) {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Contains reports whether the civil date day falls inside the round.
func (r Round) Contains(day time.Time) bool {
	return !day.Before(r.StartDate) && !day.After(r.EndDate)
}

// Overlaps reports whether the two date ranges share at least one day.
func (r Round) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}
