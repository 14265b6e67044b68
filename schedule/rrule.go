package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/warp/boothrent/generic"
)

// ruleOption keeps the rrule import out of the family declarations.
type ruleOption = rrule.ROption

var rruleWeekdays = [7]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// ToRRule exports the schedule as an RFC 5545 recurrence rule whose
// occurrences match Project, for calendar subscriptions.
func ToRRule(cfg Config, today generic.Date) (*rrule.RRule, error) {
	if err := checkRule(cfg); err != nil {
		return nil, err
	}
	return rrule.NewRRule(cfg.Rule.rruleOption(today))
}

// RRuleString is ToRRule rendered as DTSTART/RRULE text.
func RRuleString(cfg Config, today generic.Date) (string, error) {
	r, err := ToRRule(cfg, today)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// clampedMonthDays expresses "day N, or the last day when the month is
// shorter" as BYMONTHDAY=28..N with BYSETPOS=-1.
func clampedMonthDays(day int) (bymonthday, bysetpos []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	for d := 28; d <= day; d++ {
		bymonthday = append(bymonthday, d)
	}
	return bymonthday, []int{-1}
}

func (w Weekly) rruleOption(today generic.Date) ruleOption {
	days := w.Unique()
	byweekday := make([]rrule.Weekday, len(days))
	for i, wd := range days {
		byweekday[i] = rruleWeekdays[wd]
	}
	return ruleOption{
		Freq:      rrule.WEEKLY,
		Interval:  1,
		Byweekday: byweekday,
		Dtstart:   today.Time,
	}
}

// The anchor, not the start date, is DTSTART: with INTERVAL=2 the RRULE
// week parity is counted from DTSTART's week.
func (b Biweekly) rruleOption(generic.Date) ruleOption {
	return ruleOption{
		Freq:      rrule.WEEKLY,
		Interval:  2,
		Byweekday: []rrule.Weekday{rruleWeekdays[b.Day]},
		Dtstart:   OnOrAfter(b.StartDate, b.Day).Time,
	}
}

func (m MonthlyOnDay) rruleOption(today generic.Date) ruleOption {
	bymonthday, bysetpos := clampedMonthDays(m.DayOfMonth)
	return ruleOption{
		Freq:       rrule.MONTHLY,
		Interval:   1,
		Bymonthday: bymonthday,
		Bysetpos:   bysetpos,
		Dtstart:    today.Time,
	}
}

func (m MonthlyOnWeekday) rruleOption(today generic.Date) ruleOption {
	n := int(m.Position)
	if m.Position == Last {
		n = -1
	}
	return ruleOption{
		Freq:      rrule.MONTHLY,
		Interval:  1,
		Byweekday: []rrule.Weekday{rruleWeekdays[m.Weekday].Nth(n)},
		Dtstart:   today.Time,
	}
}

func (c Custom) rruleOption(generic.Date) ruleOption {
	opt := ruleOption{
		Interval: c.Interval,
		Dtstart:  c.StartDate.Time,
	}
	switch c.Unit {
	case UnitWeeks:
		opt.Freq = rrule.WEEKLY
	case UnitMonths:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday, opt.Bysetpos = clampedMonthDays(c.StartDate.Day())
	default:
		opt.Freq = rrule.DAILY
	}
	return opt
}
