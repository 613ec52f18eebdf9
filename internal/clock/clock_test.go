package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalConvertsToUTC(t *testing.T) {
	z := MustZone("Africa/Cairo")

	got, err := z.ParseLocal(DateTimeLayout, "2025-01-15 18:00")
	require.NoError(t, err)

	// Cairo is UTC+2 in January.
	assert.Equal(t, time.Date(2025, 1, 15, 16, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestLocalDateCrossesDayBoundary(t *testing.T) {
	z := MustZone("Africa/Cairo")

	// 23:30 UTC on the 14th is already the 15th in Cairo.
	instant := time.Date(2025, 1, 14, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, Date(2025, 1, 15), z.LocalDate(instant))
	assert.Equal(t, Date(2025, 1, 14), MustZone("UTC").LocalDate(instant))
}

func TestAtMatchesParseLocal(t *testing.T) {
	z := MustZone("Europe/London")
	parsed, err := z.ParseLocal(DateTimeLayout, "2025-07-01 20:45")
	require.NoError(t, err)

	assert.True(t, parsed.Equal(z.At(2025, time.July, 1, 20, 45)))
}

func TestLoadZoneRejectsUnknown(t *testing.T) {
	_, err := LoadZone("Mars/Olympus")
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	c.Advance(90 * time.Minute)

	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
