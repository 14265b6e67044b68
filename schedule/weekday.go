package schedule

import (
	"time"

	"github.com/warp/boothrent/generic"
)

// FindWeekday locates the pos-th wd in the given month.
//
// Last walks back from the final day of the month. The ordinal positions
// take the first wd on or after the 1st and add whole weeks; every month has
// at least 28 days, so the fourth occurrence always lands inside the month.
// An invalid position resolves like First.
func FindWeekday(year int, month time.Month, wd time.Weekday, pos Position) generic.Date {
	if pos == Last {
		return OnOrBefore(generic.EndOfMonth(year, month), wd)
	}
	first := OnOrAfter(generic.StartOfMonth(year, month), wd)
	return first.AddDays(7 * pos.offset())
}

// OnOrAfter is the first wd at or after d.
func OnOrAfter(d generic.Date, wd time.Weekday) generic.Date {
	return d.AddDays((int(wd) - int(d.Weekday()) + 7) % 7)
}

// OnOrBefore is the last wd at or before d.
func OnOrBefore(d generic.Date, wd time.Weekday) generic.Date {
	return d.AddDays(-((int(d.Weekday()) - int(wd) + 7) % 7))
}
