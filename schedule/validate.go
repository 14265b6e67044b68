package schedule

import "github.com/warp/boothrent/generic"

// MaxInterval bounds Custom.Interval so every step stays inside the
// calendar range generic.Date can represent.
const MaxInterval = 1000

// Messages are shown to the operator verbatim next to the form.
const (
	MsgUnsupportedFrequency = "Unsupported schedule frequency"
	MsgSelectDay            = "Please select at least one day of the week"
	MsgInvalidWeekday       = "Invalid day of the week"
	MsgBiweeklyStartDate    = "Please select a start date for biweekly payments"
	MsgStartDateInPast      = "Start date cannot be in the past"
	MsgDayOfMonth           = "Day of month must be between 1 and 31"
	MsgInvalidPosition      = "Invalid weekday position"
	MsgInterval             = "Custom interval must be at least 1"
	MsgIntervalTooLarge     = "Custom interval must be at most 1000"
	MsgInvalidUnit          = "Invalid interval unit"
	MsgCustomStartDate      = "Please select a start date for custom schedule"
)

// Validate returns every configuration problem, in form order. An empty
// result means the schedule is safe to summarize and project. Start dates
// are compared to today as calendar dates; today itself is allowed.
//
// Enabled is not consulted: a disabled schedule is still checked so it can
// be saved and switched on later.
func Validate(cfg Config, today generic.Date) []string {
	if cfg.Rule == nil {
		return []string{MsgUnsupportedFrequency}
	}

	problems := cfg.Rule.check()
	if a, ok := cfg.Rule.(anchored); ok {
		start := a.anchor()
		if !start.IsZero() && start.Before(today) {
			problems = append(problems, MsgStartDateInPast)
		}
	}
	return problems
}

// Valid is shorthand for len(Validate(cfg, today)) == 0.
func Valid(cfg Config, today generic.Date) bool {
	return len(Validate(cfg, today)) == 0
}

// checkRule is the structural gate used before generating dates.
func checkRule(cfg Config) error {
	if cfg.Rule == nil {
		return generic.NewValidationError(MsgUnsupportedFrequency)
	}
	if problems := cfg.Rule.check(); len(problems) > 0 {
		return generic.NewValidationError(problems...)
	}
	return nil
}

func (w Weekly) check() []string {
	var problems []string
	for _, wd := range w.Days {
		if !validWeekday(wd) {
			problems = append(problems, MsgInvalidWeekday)
			break
		}
	}
	if len(w.Unique()) == 0 {
		problems = append(problems, MsgSelectDay)
	}
	return problems
}

func (b Biweekly) check() []string {
	var problems []string
	if !validWeekday(b.Day) {
		problems = append(problems, MsgInvalidWeekday)
	}
	if b.StartDate.IsZero() {
		problems = append(problems, MsgBiweeklyStartDate)
	}
	return problems
}

func (m MonthlyOnDay) check() []string {
	if m.DayOfMonth < 1 || m.DayOfMonth > 31 {
		return []string{MsgDayOfMonth}
	}
	return nil
}

func (m MonthlyOnWeekday) check() []string {
	var problems []string
	if !m.Position.Valid() {
		problems = append(problems, MsgInvalidPosition)
	}
	if !validWeekday(m.Weekday) {
		problems = append(problems, MsgInvalidWeekday)
	}
	return problems
}

func (c Custom) check() []string {
	var problems []string
	switch {
	case c.Interval < 1:
		problems = append(problems, MsgInterval)
	case c.Interval > MaxInterval:
		problems = append(problems, MsgIntervalTooLarge)
	}
	if !c.Unit.Valid() {
		problems = append(problems, MsgInvalidUnit)
	}
	if c.StartDate.IsZero() {
		problems = append(problems, MsgCustomStartDate)
	}
	return problems
}
