// Package clock is the single conversion point between the league's local
// wall time and the UTC instants the store keeps.
package clock

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

var System Clock = systemClock{}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t.UTC()
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// Zone is the league time zone.
type Zone struct {
	loc *time.Location
}

func LoadZone(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

func MustZone(name string) *Zone {
	z, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return z
}

func (z *Zone) Name() string { return z.loc.String() }

func (z *Zone) Location() *time.Location { return z.loc }

// ParseLocal reads a wall time in the league zone and returns it in UTC.
func (z *Zone) ParseLocal(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, z.loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// At builds the UTC instant of a local wall time.
func (z *Zone) At(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, z.loc).UTC()
}

func (z *Zone) Local(t time.Time) time.Time { return t.In(z.loc) }

// LocalDate returns the civil date of instant t in the league zone as
// midnight UTC, the form round boundaries are stored in.
func (z *Zone) LocalDate(t time.Time) time.Time {
	l := t.In(z.loc)
	return Date(l.Year(), l.Month(), l.Day())
}

func (z *Zone) Format(t time.Time, layout string) string {
	return t.In(z.loc).Format(layout)
}

// Date is a civil date as midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
