// Package nstime represents record timestamps as int64 nanoseconds since the
// Unix epoch and renders them in the two styles used by seismic tooling.
//
// SEED ordinal style is "YYYY,DDD,HH:MM:SS.ffffff" where DDD is the day of the
// year. ISO style is "YYYY-MM-DDTHH:MM:SS.ffffffZ". Both are always UTC.
package nstime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Time is a UTC instant in nanoseconds since the Unix epoch.
type Time int64

// FromTime converts a time.Time.
func FromTime(t time.Time) Time {
	return Time(t.UnixNano())
}

// Date builds a Time from calendar fields, in UTC.
func Date(year int, month time.Month, day, hour, minute, sec, nsec int) Time {
	return FromTime(time.Date(year, month, day, hour, minute, sec, nsec, time.UTC))
}

// Std returns t as a UTC time.Time.
func (t Time) Std() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

// Period returns the sample period in nanoseconds for rate samples per second.
//
// A rate of zero or less has no period and returns 0.
func Period(rate float64) int64 {
	if rate <= 0 {
		return 0
	}

	return int64(math.Round(1e9 / rate))
}

// SampleTime returns the time of sample index in a series starting at start.
func SampleTime(start Time, rate float64, index int64) Time {
	if index <= 0 || rate <= 0 {
		return start
	}

	return start + Time(math.Round(float64(index)*1e9/rate))
}

// EndTime returns the time of the last of count samples starting at start.
//
// A record with zero or one sample, or with a zero rate, ends where it starts.
func EndTime(start Time, rate float64, count int64) Time {
	return SampleTime(start, rate, count-1)
}

// Style selects a rendering of timestamps.
type Style uint8

const (
	StyleSEED Style = iota // StyleSEED renders "YYYY,DDD,HH:MM:SS.ffffff".
	StyleISO               // StyleISO renders "YYYY-MM-DDTHH:MM:SS.ffffffZ".
)

func (s Style) String() string {
	switch s {
	case StyleSEED:
		return "seed"
	case StyleISO:
		return "iso"
	default:
		return "unknown"
	}
}

// UnmarshalText parses "seed" or "iso".
func (s *Style) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "seed", "":
		*s = StyleSEED
	case "iso":
		*s = StyleISO
	default:
		return fmt.Errorf("invalid time format: %q", string(text))
	}

	return nil
}

// Format renders t in the given style with microsecond precision.
func (t Time) Format(style Style) string {
	st := t.Std()
	if style == StyleISO {
		return st.Format("2006-01-02T15:04:05.000000Z")
	}

	return fmt.Sprintf("%04d,%03d,%s", st.Year(), st.YearDay(), st.Format("15:04:05.000000"))
}

func (t Time) String() string {
	return t.Format(StyleSEED)
}

// Parse accepts ISO "YYYY-MM-DD[THH:MM:SS[.fraction]][Z]" or SEED ordinal
// "YYYY,DDD[,HH:MM:SS[.fraction]]" and returns the UTC instant.
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}

	if strings.Contains(s, ",") {
		return parseOrdinal(s)
	}

	iso := strings.TrimSuffix(s, "Z")
	layout := "2006-01-02"
	if strings.Contains(iso, "T") {
		layout = "2006-01-02T15:04:05"
	}

	t, err := time.Parse(layout, iso)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}

	return FromTime(t), nil
}

func parseOrdinal(s string) (Time, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid ordinal time %q", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("invalid year in %q", s)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > daysIn(year) {
		return 0, fmt.Errorf("invalid day of year in %q", s)
	}

	t := time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
	if len(parts) == 3 {
		clock, err := time.Parse("15:04:05", strings.TrimSuffix(parts[2], "Z"))
		if err != nil {
			return 0, fmt.Errorf("invalid time of day in %q: %w", s, err)
		}
		t = t.Add(time.Duration(clock.Hour())*time.Hour +
			time.Duration(clock.Minute())*time.Minute +
			time.Duration(clock.Second())*time.Second +
			time.Duration(clock.Nanosecond()))
	}

	return FromTime(t), nil
}

func daysIn(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}

	return 365
}
