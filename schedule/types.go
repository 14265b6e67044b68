/*
Package schedule is the recurrence engine for automated rent collection.

PURPOSE:
  Given a collection schedule (weekly, biweekly, monthly, or a custom
  interval), it validates the configuration, renders a sentence describing
  it, and projects the concrete upcoming collection dates.

FAMILIES:
  Weekly:            every selected weekday, every week
  Biweekly:          every 14 days on one weekday, anchored on/after a start date
  MonthlyOnDay:      day N of each month, clamped to short months
  MonthlyOnWeekday:  first/second/third/fourth/last <weekday> of each month
  Custom:            every N days, weeks, or months from a start date

PURITY:
  Every operation is a function of its inputs. "Today" is always passed in
  by the caller (generic.Today() in production, a fixed date in tests).
  Nothing here logs, blocks, or touches storage.

USAGE:
  cfg := schedule.Config{Enabled: true, Rule: schedule.Weekly{Days: []time.Weekday{time.Monday}}}
  if problems := schedule.Validate(cfg, today); len(problems) > 0 {
      return problems
  }
  summary := schedule.Summarize(cfg)
  dates, err := schedule.Project(cfg, 5, today)

SEE ALSO:
  - validate.go:  Configuration errors
  - summary.go:   Natural-language rendering
  - project.go:   Date generation per family
  - weekday.go:   Weekday resolution within a month
  - factory/schedule.go: JSON wire shape
*/
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/boothrent/generic"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyCustom   Frequency = "custom"
)

type MonthlyOption string

const (
	OptionSpecific MonthlyOption = "specific" // day N of the month
	OptionWeekday  MonthlyOption = "weekday"  // Kth weekday of the month
)

// Position is the ordinal of a weekday within a month. The zero value is invalid.
type Position int

const (
	First Position = iota + 1
	Second
	Third
	Fourth
	Last
)

var positionNames = map[Position]string{
	First:  "first",
	Second: "second",
	Third:  "third",
	Fourth: "fourth",
	Last:   "last",
}

func (p Position) Valid() bool { _, ok := positionNames[p]; return ok }

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// offset is the number of whole weeks after the first occurrence.
func (p Position) offset() int {
	switch p {
	case Second:
		return 1
	case Third:
		return 2
	case Fourth:
		return 3
	default:
		return 0
	}
}

func ParsePosition(s string) (Position, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, name := range positionNames {
		if name == want {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday position %q", s)
}

type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

// Singular strips the plural "s": days -> day.
func (u Unit) Singular() string { return strings.TrimSuffix(string(u), "s") }

func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("unknown interval unit %q", s)
	}
	return u, nil
}

// =============================================================================
// WEEKDAY NAMES
// =============================================================================

func validWeekday(wd time.Weekday) bool { return wd >= time.Sunday && wd <= time.Saturday }

// ParseWeekday accepts English weekday names in any case ("monday", "Friday").
func ParseWeekday(s string) (time.Weekday, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.ToLower(wd.String()) == want {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayName is the lowercase wire name ("monday").
func WeekdayName(wd time.Weekday) string { return strings.ToLower(wd.String()) }

// =============================================================================
// CONFIG - Tagged union of the four families
// =============================================================================

// Config is one collection schedule. Rule carries exactly the fields of its
// family; a nil Rule is an unsupported frequency.
type Config struct {
	Enabled bool
	Rule    Rule
}

// Frequency is the family of the rule, or "" when unset.
func (c Config) Frequency() Frequency {
	if c.Rule == nil {
		return ""
	}
	return c.Rule.Frequency()
}

// Rule is implemented only by the family types in this package.
type Rule interface {
	Frequency() Frequency

	// check lists structural problems that make projection impossible.
	check() []string
	summary() string
	sequence(today generic.Date) sequence
	rruleOption(today generic.Date) ruleOption
}

// anchored rules start from a caller-supplied date that must not be in the past.
type anchored interface {
	anchor() generic.Date
}

// Weekly collects on every listed weekday. Duplicates are ignored.
type Weekly struct {
	Days []time.Weekday
}

// Biweekly collects every 14 days on Day, first on or after StartDate.
type Biweekly struct {
	Day       time.Weekday
	StartDate generic.Date
}

// MonthlyOnDay collects on DayOfMonth, or the month's last day when shorter.
type MonthlyOnDay struct {
	DayOfMonth int
}

// MonthlyOnWeekday collects on the Position-th Weekday of each month.
type MonthlyOnWeekday struct {
	Position Position
	Weekday  time.Weekday
}

// Custom collects every Interval Units from StartDate.
type Custom struct {
	Interval  int
	Unit      Unit
	StartDate generic.Date
}

func (Weekly) Frequency() Frequency           { return FrequencyWeekly }
func (Biweekly) Frequency() Frequency         { return FrequencyBiweekly }
func (MonthlyOnDay) Frequency() Frequency     { return FrequencyMonthly }
func (MonthlyOnWeekday) Frequency() Frequency { return FrequencyMonthly }
func (Custom) Frequency() Frequency           { return FrequencyCustom }

func (MonthlyOnDay) Option() MonthlyOption     { return OptionSpecific }
func (MonthlyOnWeekday) Option() MonthlyOption { return OptionWeekday }

func (b Biweekly) anchor() generic.Date { return b.StartDate }
func (c Custom) anchor() generic.Date   { return c.StartDate }

// Unique returns the selected days in the given order without repeats.
func (w Weekly) Unique() []time.Weekday {
	var seen [7]bool
	days := make([]time.Weekday, 0, len(w.Days))
	for _, wd := range w.Days {
		if !validWeekday(wd) || seen[wd] {
			continue
		}
		seen[wd] = true
		days = append(days, wd)
	}
	return days
}

var (
	_ Rule = Weekly{}
	_ Rule = Biweekly{}
	_ Rule = MonthlyOnDay{}
	_ Rule = MonthlyOnWeekday{}
	_ Rule = Custom{}
)
