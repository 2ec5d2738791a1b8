package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidClockTime = errors.New("invalid clock time")

// ClockTime is a wall-clock time of day with minute resolution.
type ClockTime struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// clockLayouts covers the formats seen across vendor export versions.
// The 12-hour forms come first because that is what HungerRush emits.
var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"15:04",
	"15:04:05",
}

// ParseClockTime parses a time-of-day string such as "10:30 AM" or "14:05".
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ClockTime{}, ErrInvalidClockTime
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
}

// ClockTimeOf extracts only the hour and minute from a full timestamp.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// Before reports whether c is strictly earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	if c.Hour != other.Hour {
		return c.Hour < other.Hour
	}
	return c.Minute < other.Minute
}

// After reports whether c is strictly later in the day than other.
func (c ClockTime) After(other ClockTime) bool {
	return other.Before(c)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// TimeWindow is an inclusive [Start, End] range of clock times within a
// single nominal day. It is applied to orders by time-of-day only: the
// calendar date of an order never affects inclusion. That matches how the
// report has always been requested ("lunch window, whatever day the rows
// are from") and is intentional, not a defect.
type TimeWindow struct {
	Start ClockTime
	End   ClockTime
}

// NewTimeWindow builds a window from two full timestamps, keeping only
// their hour and minute components. Windows wrapping past midnight are
// not supported; Start is assumed to be <= End.
func NewTimeWindow(start, end time.Time) TimeWindow {
	return TimeWindow{Start: ClockTimeOf(start), End: ClockTimeOf(end)}
}

// Contains reports whether t falls inside the window, inclusive on both ends.
func (w TimeWindow) Contains(t ClockTime) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}
