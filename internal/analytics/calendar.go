package analytics

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// dayStart truncates t to midnight in its own location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b. Both arguments are
// midnights in the same location; rounding absorbs DST-shortened days.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// monthEnd returns the first instant of the month after t's month, i.e. the
// exclusive upper bound of t's calendar month.
func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
}
