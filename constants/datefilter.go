package constants

import "time"

// DateFilter is a named time-window predicate applied to extraction_date.
type DateFilter string

// Stable values (these exact strings arrive on the wire).
const (
	DateFilterNone  DateFilter = ""      // no time constraint
	DateFilterToday DateFilter = "today" // the reference calendar day
	DateFilterWeek  DateFilter = "week"  // trailing 7 days
	DateFilterMonth DateFilter = "month" // trailing 30 days
)

// Window maps the filter to a half-open UTC interval [start, end) relative
// to ref. A zero end means the window is unbounded above. ok is false when
// the filter does not constrain anything, which covers both the empty tag
// and unrecognized values.
func (f DateFilter) Window(ref time.Time) (start, end time.Time, ok bool) {
	ref = ref.UTC()
	switch f {
	case DateFilterToday:
		start = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.Add(24 * time.Hour), true
	case DateFilterWeek:
		return ref.AddDate(0, 0, -7), time.Time{}, true
	case DateFilterMonth:
		return ref.AddDate(0, 0, -30), time.Time{}, true
	default:
		return time.Time{}, time.Time{}, false
	}
}
