package hours

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bookme/models"
)

// ErrInvalidSchedule means the employee's shift cannot be interpreted.
var ErrInvalidSchedule = errors.New("employee schedule is not configured")

// DefaultDurationMinutes applies when a nominal duration carries no number.
const DefaultDurationMinutes = 60

var (
	shorthandPattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
	bareHourPattern  = regexp.MustCompile(`^\d{1,2}$`)
	digitRunPattern  = regexp.MustCompile(`\d+`)

	// Checked in this order; the first contained value wins.
	knownDurations = []string{"30", "60", "90", "120"}
)

// ParseClock parses "HH:MM" (or a bare hour) into minutes since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if bareHourPattern.MatchString(raw) {
		raw += ":00"
	}
	h, m, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: missing ':'", raw)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("clock %q: bad hour: %w", raw, err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("clock %q: bad minute: %w", raw, err)
	}
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("clock %q: out of range", raw)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeLunch expands legacy lunch values to "HH:MM".
// The shorthand "A-B" means A:00 to B:00, with 12 added to B only when B < A,
// so "12-1" is 12:00-13:00 and "9-10" is 09:00-10:00. Only whole hours are understood.
// A shorthand in start takes precedence over end. ok is false when no usable window remains.
func NormalizeLunch(start, end string) (string, string, bool) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	for _, raw := range []string{start, end} {
		if m := shorthandPattern.FindStringSubmatch(raw); m != nil {
			from, _ := strconv.Atoi(m[1])
			to, _ := strconv.Atoi(m[2])
			if to < from {
				to += 12
			}
			return checkWindow(fmt.Sprintf("%02d:00", from), fmt.Sprintf("%02d:00", to))
		}
	}

	if start == "" || end == "" {
		return "", "", false
	}
	return checkWindow(start, end)
}

func checkWindow(start, end string) (string, string, bool) {
	s, err := ParseClock(start)
	if err != nil {
		return "", "", false
	}
	e, err := ParseClock(end)
	if err != nil || e <= s {
		return "", "", false
	}
	return FormatClock(s), FormatClock(e), true
}

// ScheduleFor builds the working-day schedule of an employee.
// A lunch value that cannot be normalized is treated as no lunch.
func ScheduleFor(e models.Employee) (Schedule, error) {
	start, err := ParseClock(e.StartTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: start: %v", ErrInvalidSchedule, err)
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: end: %v", ErrInvalidSchedule, err)
	}
	if start >= end || end > minutesPerDay {
		return Schedule{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidSchedule, e.StartTime, e.EndTime)
	}

	s := Schedule{ShiftStart: start, ShiftEnd: end}
	if ls, le, ok := NormalizeLunch(e.LunchTimeStart, e.LunchTimeEnd); ok {
		s.LunchStart, _ = ParseClock(ls)
		s.LunchEnd, _ = ParseClock(le)
		s.HasLunch = true
	}
	return s, nil
}

// LunchIgnored reports whether the employee declares a lunch that could not be normalized.
func LunchIgnored(e models.Employee) bool {
	if strings.TrimSpace(e.LunchTimeStart) == "" && strings.TrimSpace(e.LunchTimeEnd) == "" {
		return false
	}
	_, _, ok := NormalizeLunch(e.LunchTimeStart, e.LunchTimeEnd)
	return !ok
}

// ParseDuration interprets a free-text nominal duration in minutes.
func ParseDuration(raw string) int {
	for _, known := range knownDurations {
		if strings.Contains(raw, known) {
			n, _ := strconv.Atoi(known)
			return n
		}
	}
	if run := digitRunPattern.FindString(raw); run != "" {
		if n, err := strconv.Atoi(run); err == nil && n > 0 {
			return n
		}
	}
	return DefaultDurationMinutes
}

// DurationOptions is the menu offered for every employee.
func DurationOptions() []int {
	return []int{30, 60, 90}
}

// DefaultDuration is the employee's nominal duration, used to preselect a menu entry.
func DefaultDuration(e models.Employee) int {
	return ParseDuration(e.Duration)
}
