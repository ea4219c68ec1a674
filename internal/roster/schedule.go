package roster

import "regexp"

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTime reports whether s is a zero-padded 24h HH:MM wall-clock time.
// Zero padding matters: it is what makes lexicographic comparison of two
// times on the same day chronologically correct.
func ValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// Overlaps reports whether the candidate (dayOfWeek, start, end) window
// collides with any existing class on the same day. excludeID skips the
// class being edited. Intervals are half-open: [start, end).
func Overlaps(existing []Class, dayOfWeek int, start, end, excludeID string) bool {
	for _, c := range existing {
		if c.ID == excludeID {
			continue
		}
		if c.DayOfWeek != dayOfWeek {
			continue
		}
		// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
		if start < c.EndTime && c.StartTime < end {
			return true
		}
	}
	return false
}
