package schedule

import (
	"time"

	"github.com/warp/boothrent/generic"
)

// sequence yields a family's occurrences in strictly increasing order.
type sequence func() generic.Date

// Project returns the next count collection dates in chronological order.
//
// Weekly and monthly schedules start from today (inclusive); biweekly and
// custom schedules start from their own start date. A past start date is
// a validation problem, not a projection error: the dates are still
// produced. Rules that cannot generate dates at all (no weekdays, interval
// below 1, ...) return a *generic.ValidationError.
func Project(cfg Config, count int, today generic.Date) ([]generic.Date, error) {
	if err := checkRule(cfg); err != nil {
		return nil, err
	}
	if count <= 0 {
		return []generic.Date{}, nil
	}

	next := cfg.Rule.sequence(today)
	dates := make([]generic.Date, 0, count)
	for len(dates) < count {
		dates = append(dates, next())
	}
	return dates, nil
}

// ProjectWithin returns every occurrence inside the period (both ends
// inclusive), with the same today rules as Project.
func ProjectWithin(cfg Config, p generic.Period, today generic.Date) ([]generic.Date, error) {
	if err := checkRule(cfg); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	next := cfg.Rule.sequence(today)
	dates := []generic.Date{}
	for {
		d := next()
		if d.After(p.End) {
			return dates, nil
		}
		if p.Contains(d) {
			dates = append(dates, d)
		}
	}
}

// =============================================================================
// FAMILY GENERATORS
// =============================================================================

func (w Weekly) sequence(today generic.Date) sequence {
	var selected [7]bool
	for _, wd := range w.Unique() {
		selected[wd] = true
	}

	cursor := today
	return func() generic.Date {
		for !selected[cursor.Weekday()] {
			cursor = cursor.AddDays(1)
		}
		d := cursor
		cursor = cursor.AddDays(1)
		return d
	}
}

func (b Biweekly) sequence(generic.Date) sequence {
	anchor := OnOrAfter(b.StartDate, b.Day)
	i := 0
	return func() generic.Date {
		d := anchor.AddDays(14 * i)
		i++
		return d
	}
}

func (m MonthlyOnDay) sequence(today generic.Date) sequence {
	return monthly(today, func(year int, month time.Month) generic.Date {
		return generic.ClampedDate(year, month, m.DayOfMonth)
	})
}

func (m MonthlyOnWeekday) sequence(today generic.Date) sequence {
	return monthly(today, func(year int, month time.Month) generic.Date {
		return FindWeekday(year, month, m.Weekday, m.Position)
	})
}

// monthly walks month by month from today's month, skipping any month whose
// date already passed. The cursor advances whether or not a date is emitted.
func monthly(today generic.Date, inMonth func(year int, month time.Month) generic.Date) sequence {
	cursor := generic.StartOfMonth(today.Year(), today.Month())
	return func() generic.Date {
		for {
			d := inMonth(cursor.Year(), cursor.Month())
			cursor = cursor.AddMonths(1)
			if d.AfterOrEqual(today) {
				return d
			}
		}
	}
}

// Custom month steps are measured from the start date, so a start on the
// 31st yields Jan 31, Feb 28, Mar 31 rather than drifting to the 28th.
func (c Custom) sequence(generic.Date) sequence {
	i := 0
	return func() generic.Date {
		var d generic.Date
		switch c.Unit {
		case UnitWeeks:
			d = c.StartDate.AddDays(7 * c.Interval * i)
		case UnitMonths:
			d = c.StartDate.AddMonths(c.Interval * i)
		default:
			d = c.StartDate.AddDays(c.Interval * i)
		}
		i++
		return d
	}
}
