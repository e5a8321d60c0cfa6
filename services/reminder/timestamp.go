package reminder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnparseableTime = errors.New("reminder: unparseable selectedTime")

// selectedTimeLayouts are tried in order. Layouts without an offset are read
// in the business timezone.
var selectedTimeLayouts = []string{
	time.RFC3339Nano,                    // 2025-06-02T03:00:00.000Z, 2025-06-02T11:00:00+08:00
	"2006-01-02T15:04:05Z0700",          // 2025-06-02T11:00:00+0800
	"2006-01-02T15:04:05",               // 2025-06-02T11:00:00
	"2006-01-02T15:04",                  // 2025-06-02T11:00
	"2006-01-02 15:04:05",               // 2025-06-02 11:00:00
	"2006-01-02 15:04",                  // 2025-06-02 11:00
	"Mon Jan 02 2006 15:04:05 GMT-0700", // Date.toString() with the zone name stripped
}

// ParseSelectedTime interprets a stored booking time.
func ParseSelectedTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseableTime)
	}
	for _, layout := range selectedTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, raw)
}
