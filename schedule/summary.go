package schedule

import "fmt"

const (
	summaryPrefix   = "Payments will be automatically collected "
	DisabledSummary = "Automated collection is disabled"
	InvalidSummary  = "Invalid schedule configuration"
)

// Summarize renders the schedule as one sentence for the operator.
// Incomplete rules degrade to a short notice ("No days selected") and
// out-of-range values to InvalidSummary rather than a misleading sentence.
func Summarize(cfg Config) string {
	if !cfg.Enabled {
		return DisabledSummary
	}
	if cfg.Rule == nil {
		return InvalidSummary
	}
	return cfg.Rule.summary()
}

func (w Weekly) summary() string {
	for _, wd := range w.Days {
		if !validWeekday(wd) {
			return InvalidSummary
		}
	}
	days := w.Unique()
	if len(days) == 0 {
		return "No days selected"
	}
	if len(days) == 7 {
		return summaryPrefix + "every day."
	}

	names := make([]string, len(days))
	for i, wd := range days {
		names[i] = wd.String()
	}
	return summaryPrefix + "every " + joinList(names) + "."
}

func (b Biweekly) summary() string {
	if !validWeekday(b.Day) {
		return InvalidSummary
	}
	if b.StartDate.IsZero() {
		return "Start date not specified"
	}
	return fmt.Sprintf("%severy other %s, starting %s.", summaryPrefix, b.Day, FormatDate(b.StartDate))
}

func (m MonthlyOnDay) summary() string {
	if len(m.check()) > 0 {
		return InvalidSummary
	}
	return fmt.Sprintf("%son the %s day of each month.", summaryPrefix, Ordinal(m.DayOfMonth))
}

func (m MonthlyOnWeekday) summary() string {
	if len(m.check()) > 0 {
		return InvalidSummary
	}
	return fmt.Sprintf("%son the %s %s of each month.", summaryPrefix, capitalizeFirst(m.Position.String()), m.Weekday)
}

func (c Custom) summary() string {
	if c.Interval < 1 || c.Interval > MaxInterval || !c.Unit.Valid() {
		return InvalidSummary
	}
	if c.StartDate.IsZero() {
		return "Start date not specified"
	}
	if c.Interval == 1 {
		return fmt.Sprintf("%severy %s, starting %s.", summaryPrefix, c.Unit.Singular(), FormatDate(c.StartDate))
	}
	return fmt.Sprintf("%severy %d %s, starting %s.", summaryPrefix, c.Interval, c.Unit, FormatDate(c.StartDate))
}
