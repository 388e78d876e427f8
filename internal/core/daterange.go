package core

import "time"

const dateLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] span of calendar days. Both bounds
// are truncated to midnight in the local location.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive number of calendar days covered by the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return !day.Before(r.Start) && !day.After(r.End)
}

// MonthBounds returns the first and last calendar day of d's month.
func MonthBounds(d time.Time) DateRange {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	last := first.AddDate(0, 1, -1)
	return DateRange{Start: first, End: last}
}

// ResolveRange turns a named period plus optional explicit start/end strings
// into an effective date range. Explicit dates override the period when both
// parse as YYYY-MM-DD and start <= end; malformed or partial explicit dates
// are silently ignored. An unrecognized period with no valid explicit pair
// yields ok=false, meaning no date filter at all.
func ResolveRange(period, startStr, endStr string, today time.Time) (DateRange, bool) {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var rng DateRange
	ok := false

	switch period {
	case "this_month":
		rng, ok = MonthBounds(today), true
	case "last_30":
		rng, ok = DateRange{Start: today.AddDate(0, 0, -29), End: today}, true
	case "this_year":
		rng = DateRange{
			Start: time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()),
			End:   time.Date(today.Year(), 12, 31, 0, 0, 0, 0, today.Location()),
		}
		ok = true
	}

	start, sOK := parseDate(startStr, today.Location())
	end, eOK := parseDate(endStr, today.Location())
	if sOK && eOK && !start.After(end) {
		return DateRange{Start: start, End: end}, true
	}

	return rng, ok
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
