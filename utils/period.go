package utils

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrInvalidPeriod  = errors.New(`value for "period" query param is invalid`)
	ErrInvalidUnit    = errors.New(`value for "unit" query param is invalid`)
	ErrPeriodTooLarge = errors.New(`"length" is too large`)
)

// MaxPeriodLength bounds how far back a single count query may reach.
const MaxPeriodLength = 1000

const Year = 365 * 24 * time.Hour

var unitDurations = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"y": Year,
}

var (
	periodLengthPattern = regexp.MustCompile(`\d+`)
	periodUnitPattern   = regexp.MustCompile(`[a-z]+`)
)

// Period is a parsed "<length><unit>" expression such as "30m" or "1y".
type Period struct {
	Unit   string
	Length int
}

// TimeRange is an absolute [StartTime, EndTime] window.
type TimeRange struct {
	StartTime time.Time
	EndTime   time.Time
}

// ParsePeriod reads the first run of digits as the length and the first run
// of lowercase letters as the unit.
func ParsePeriod(s string) (Period, error) {
	digits := periodLengthPattern.FindString(s)
	unit := periodUnitPattern.FindString(s)
	if digits == "" || unit == "" {
		return Period{}, ErrInvalidPeriod
	}

	length, err := strconv.Atoi(digits)
	if err != nil {
		// Only overflow can fail here, the pattern guarantees digits.
		return Period{}, ErrPeriodTooLarge
	}
	if length == 0 {
		return Period{}, ErrInvalidPeriod
	}
	if _, ok := unitDurations[unit]; !ok {
		return Period{}, ErrInvalidUnit
	}
	if length >= MaxPeriodLength {
		return Period{}, ErrPeriodTooLarge
	}

	return Period{Unit: unit, Length: length}, nil
}

// Duration returns length * unit.
func (p Period) Duration() time.Duration {
	return time.Duration(p.Length) * unitDurations[p.Unit]
}

// Range anchors the period at now.
func (p Period) Range(now time.Time) TimeRange {
	return TimeRange{
		StartTime: now.Add(-p.Duration()),
		EndTime:   now,
	}
}

func (p Period) String() string {
	return strconv.Itoa(p.Length) + p.Unit
}
