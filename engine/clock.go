package engine

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// WALL-CLOCK HELPERS
// =============================================================================
// The engine never reads the clock itself; "now" is always a parameter.
// These helpers turn timestamps and "HH:MM" strings into the whole-minute
// arithmetic the attendance and reporting rules run on.

// DiffMinutes returns the whole minutes between start and end, truncated
// toward zero. It returns 0 when either timestamp is absent or when
// end <= start; a duration is never negative.
func DiffMinutes(start, end *time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	if !end.After(*start) {
		return 0
	}
	return int(end.Sub(*start) / time.Minute)
}

// ParseClock parses an "HH:MM" wall-clock string into minutes-of-day.
// ok is false for anything unparseable or out of range.
func ParseClock(s string) (minutes int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// IsBeforeCloseTime reports whether now's wall-clock time is strictly before
// the facility closing time ("HH:MM"). It gates whether a check-out or
// absence action is still permitted for today. An unparseable close time
// denies the action (a conservative decision, never a crash).
func IsBeforeCloseTime(now time.Time, closeTimeHHMM string) bool {
	closeMin, ok := ParseClock(closeTimeHHMM)
	if !ok {
		return false
	}
	nowMin := now.Hour()*60 + now.Minute()
	return nowMin < closeMin
}

// DateKey formats a timestamp as the facility's per-day key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthWindow returns the [first day 00:00, first day of next month 00:00)
// window for a "2006-01" month key. ok is false for unparseable input.
func MonthWindow(month string, loc *time.Location) (start, end time.Time, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return t, t.AddDate(0, 1, 0), true
}
