// Package hours decides whether a candidate booking fits an employee's shift and lunch break.
package hours

import "time"

const (
	ReasonBeforeShift  = "before shift start"
	ReasonAfterShift   = "after shift end"
	ReasonOverlapLunch = "overlaps lunch"
)

const minutesPerDay = 24 * 60

// Schedule is an employee's working day in minutes since midnight.
type Schedule struct {
	ShiftStart int
	ShiftEnd   int
	LunchStart int
	LunchEnd   int
	HasLunch   bool
}

// Verdict is the outcome of a legality check.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func valid() Verdict { return Verdict{Valid: true} }

func invalid(reason string) Verdict { return Verdict{Reason: reason} }

// Evaluate checks [start, start+duration) against the schedule.
// Rules run in order and the first failure wins.
func Evaluate(s Schedule, start, duration int) Verdict {
	if start < s.ShiftStart {
		return invalid(ReasonBeforeShift)
	}
	// Compared before adding so oversized durations cannot wrap around.
	if duration <= 0 || duration > s.ShiftEnd-start {
		return invalid(ReasonAfterShift)
	}
	end := start + duration
	// Closed-open overlap: touching the lunch window on either side is fine.
	if s.HasLunch && start < s.LunchEnd && s.LunchStart < end {
		return invalid(ReasonOverlapLunch)
	}
	return valid()
}

// EvaluateAt converts an absolute instant into the business day of loc and evaluates it.
func EvaluateAt(s Schedule, at time.Time, duration int, loc *time.Location) Verdict {
	return Evaluate(s, MinuteOfDay(at, loc), duration)
}

// MinuteOfDay returns minutes since local midnight of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Hour()*60 + t.Minute()
}

// DayStart returns local midnight of the day containing t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// At returns the instant minutes after local midnight of day.
func At(day time.Time, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(minutes) * time.Minute)
}
