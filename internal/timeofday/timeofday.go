// Package timeofday converts between clock strings and minute-of-day integers.
//
// Two input forms are accepted: 24-hour ("09:00", "9:05", "17:30:00") and 12-hour with a
// meridiem ("9:00 AM", "12:15pm"). Anything else is rejected with ErrInvalidTime; there is no
// silent fallback to midnight. ParseEnd also accepts "24:00" for the end of a window.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a Minute.
const MinutesPerDay = 24 * 60

var ErrInvalidTime = errors.New("invalid time of day")

// Minute is a time of day expressed as minutes since midnight, in [0, MinutesPerDay).
type Minute int

// Parse converts a 12-hour or 24-hour clock string into a Minute.
func Parse(s string) (Minute, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	clock, meridiem := splitMeridiem(raw)

	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	h, err := parseField(parts[0], 1, 2)
	if err != nil {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
	}
	m, err := parseField(parts[1], 2, 2)
	if err != nil || m > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		sec, err := parseField(parts[2], 2, 2)
		if err != nil || sec > 59 {
			return 0, fmt.Errorf("%w: second in %q", ErrInvalidTime, s)
		}
	}

	switch meridiem {
	case "":
		if h > 23 {
			return 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
		}
	case "AM", "PM":
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
		}
		if h == 12 {
			h = 0
		}
		if meridiem == "PM" {
			h += 12
		}
	default:
		return 0, fmt.Errorf("%w: meridiem in %q", ErrInvalidTime, s)
	}

	return Minute(h*60 + m), nil
}

// ParseEnd is Parse for the exclusive end of a window. It additionally accepts "24:00" and
// "24:00:00" as MinutesPerDay, so a window can run to midnight.
func ParseEnd(s string) (Minute, error) {
	switch strings.TrimSpace(s) {
	case "24:00", "24:00:00":
		return MinutesPerDay, nil
	}
	return Parse(s)
}

// MustParse is Parse for compile-time constants; it panics on malformed input.
func MustParse(s string) Minute {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromClock builds a Minute from an hour and minute pair.
func FromClock(hour, minute int) (Minute, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return Minute(hour*60 + minute), nil
}

// Valid reports whether m lies within a single day.
func (m Minute) Valid() bool {
	return m >= 0 && m < MinutesPerDay
}

// Hour returns the 24-hour clock hour.
func (m Minute) Hour() int { return int(m) / 60 }

// Min returns the minute within the hour.
func (m Minute) Min() int { return int(m) % 60 }

// Storage formats m as "HH:MM:SS", the 24-hour form used by the store.
func (m Minute) Storage() string {
	return fmt.Sprintf("%02d:%02d:00", m.Hour(), m.Min())
}

// Clock formats m as "HH:MM".
func (m Minute) Clock() string {
	return fmt.Sprintf("%02d:%02d", m.Hour(), m.Min())
}

// Display formats m as "h:mm AM" for people.
func (m Minute) Display() string {
	h := m.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	dh := h % 12
	if dh == 0 {
		dh = 12
	}
	return fmt.Sprintf("%d:%02d %s", dh, m.Min(), suffix)
}

func (m Minute) String() string { return m.Clock() }

// Add returns m shifted by n minutes. The result may fall outside a single day; callers that
// display it should check Valid.
func (m Minute) Add(n int) Minute { return m + Minute(n) }

func splitMeridiem(s string) (clock, meridiem string) {
	upper := strings.ToUpper(s)
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(upper, suffix) {
			return strings.TrimSpace(s[:len(s)-2]), suffix
		}
	}
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		// Trailing token that is not AM/PM.
		return s[:i], strings.ToUpper(strings.TrimSpace(s[i+1:]))
	}
	return s, ""
}

func parseField(s string, minLen, maxLen int) (int, error) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, errors.New("bad width")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("not a digit")
		}
	}
	return strconv.Atoi(s)
}
