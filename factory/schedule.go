/*
Package factory provides JSON to Go schedule conversion.

PURPOSE:
  Converts the collection-schedule JSON sent by the operator UI into a
  schedule.Config (a tagged union of the four families), and back. The
  engine itself never sees JSON.

JSON SCHEMA:
  {
    "frequency":  "weekly" | "biweekly" | "monthly" | "custom",
    "enabled":    true,
    "days":       ["monday", "friday"],          // weekly
    "day":        "friday",                       // biweekly
    "startDate":  "2025-11-11",                   // biweekly, custom
    "option":     "specific" | "weekday",         // monthly
    "dayOfMonth": "21",                           // monthly specific (string or number)
    "position":   "first" .. "fourth" | "last",   // monthly weekday
    "weekday":    "friday",                       // monthly weekday
    "interval":   2,                              // custom (number or string)
    "unit":       "days" | "weeks" | "months"     // custom
  }

LENIENCY:
  Only fields of the selected frequency are read. Unknown weekday,
  position, and unit names become out-of-range values, numbers keep their
  leading integer ("21.5" is 21) and unparseable ones become 0, so schedule.Validate reports them together with every
  other problem. An unknown frequency or monthly option, or a malformed
  date, cannot be represented and fails here with a *generic.ValidationError.

USAGE:
  f := factory.NewScheduleFactory()
  cfg, err := f.ParseSchedule(body)
  problems := schedule.Validate(cfg, generic.Today())

SEE ALSO:
  - schedule/types.go: Config and the family types
  - api/handlers.go: Schedule endpoints
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/schedule"
)

// Messages for fields that cannot be carried into a schedule.Config.
const (
	MsgInvalidMonthlyOption = "Please choose a monthly option"
	MsgInvalidStartDate     = "Start date must be a valid date"
)

// invalidWeekday stands in for a weekday name that did not parse.
const invalidWeekday = time.Weekday(-1)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of a collection schedule.
type ScheduleJSON struct {
	Frequency  string   `json:"frequency"`
	Enabled    bool     `json:"enabled"`
	Days       []string `json:"days,omitempty"`
	Day        string   `json:"day,omitempty"`
	StartDate  string   `json:"startDate,omitempty"`
	Option     string   `json:"option,omitempty"`
	DayOfMonth FlexInt  `json:"dayOfMonth,omitempty"`
	Position   string   `json:"position,omitempty"`
	Weekday    string   `json:"weekday,omitempty"`
	Interval   FlexInt  `json:"interval,omitempty"`
	Unit       string   `json:"unit,omitempty"`
}

// FlexInt decodes a JSON number or a numeric string the way a form field
// is read: the leading integer counts ("21.5" is 21, 2.0 is 2) and input
// without one ("", null, "abc") decodes to 0. Magnitudes saturate at
// flexIntLimit so oversized values still reach the validator.
type FlexInt int

const flexIntLimit = math.MaxInt32

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = FlexInt(leadingInt(s))
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = FlexInt(math.Max(-flexIntLimit, math.Min(flexIntLimit, math.Trunc(f))))
	return nil
}

// leadingInt reads an optional sign and the digits after it.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	v := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		v = v*10 + int(s[i]-'0')
		if v >= flexIntLimit {
			v = flexIntLimit
			break
		}
	}
	if neg {
		return -v
	}
	return v
}

// =============================================================================
// SCHEDULE FACTORY
// =============================================================================

// ScheduleFactory converts JSON schedules to schedule.Config.
type ScheduleFactory struct{}

func NewScheduleFactory() *ScheduleFactory {
	return &ScheduleFactory{}
}

// ParseSchedule parses a JSON document into a schedule.Config.
func (f *ScheduleFactory) ParseSchedule(data []byte) (schedule.Config, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return schedule.Config{}, fmt.Errorf("%w: failed to parse schedule JSON: %v", generic.ErrInvalidInput, err)
	}
	return f.FromJSON(sj)
}

// FromJSON converts ScheduleJSON to schedule.Config.
func (f *ScheduleFactory) FromJSON(sj ScheduleJSON) (schedule.Config, error) {
	cfg := schedule.Config{Enabled: sj.Enabled}

	switch schedule.Frequency(strings.ToLower(strings.TrimSpace(sj.Frequency))) {
	case schedule.FrequencyWeekly:
		days := make([]time.Weekday, len(sj.Days))
		for i, name := range sj.Days {
			days[i] = parseWeekday(name)
		}
		cfg.Rule = schedule.Weekly{Days: days}

	case schedule.FrequencyBiweekly:
		start, err := parseStartDate(sj.StartDate)
		if err != nil {
			return schedule.Config{}, err
		}
		cfg.Rule = schedule.Biweekly{Day: parseWeekday(sj.Day), StartDate: start}

	case schedule.FrequencyMonthly:
		switch schedule.MonthlyOption(strings.ToLower(strings.TrimSpace(sj.Option))) {
		case schedule.OptionSpecific, "":
			cfg.Rule = schedule.MonthlyOnDay{DayOfMonth: int(sj.DayOfMonth)}
		case schedule.OptionWeekday:
			pos, _ := schedule.ParsePosition(sj.Position)
			cfg.Rule = schedule.MonthlyOnWeekday{Position: pos, Weekday: parseWeekday(sj.Weekday)}
		default:
			return schedule.Config{}, generic.NewValidationError(MsgInvalidMonthlyOption)
		}

	case schedule.FrequencyCustom:
		start, err := parseStartDate(sj.StartDate)
		if err != nil {
			return schedule.Config{}, err
		}
		cfg.Rule = schedule.Custom{
			Interval:  int(sj.Interval),
			Unit:      schedule.Unit(strings.ToLower(strings.TrimSpace(sj.Unit))),
			StartDate: start,
		}

	default:
		return schedule.Config{}, generic.NewValidationError(schedule.MsgUnsupportedFrequency)
	}

	return cfg, nil
}

// ToJSON converts a schedule.Config to ScheduleJSON.
func (f *ScheduleFactory) ToJSON(cfg schedule.Config) ScheduleJSON {
	sj := ScheduleJSON{
		Frequency: string(cfg.Frequency()),
		Enabled:   cfg.Enabled,
	}

	switch r := cfg.Rule.(type) {
	case schedule.Weekly:
		sj.Days = make([]string, 0, len(r.Days))
		for _, wd := range r.Unique() {
			sj.Days = append(sj.Days, schedule.WeekdayName(wd))
		}
	case schedule.Biweekly:
		sj.Day = schedule.WeekdayName(r.Day)
		sj.StartDate = r.StartDate.String()
	case schedule.MonthlyOnDay:
		sj.Option = string(r.Option())
		sj.DayOfMonth = FlexInt(r.DayOfMonth)
	case schedule.MonthlyOnWeekday:
		sj.Option = string(r.Option())
		sj.Position = r.Position.String()
		sj.Weekday = schedule.WeekdayName(r.Weekday)
	case schedule.Custom:
		sj.Interval = FlexInt(r.Interval)
		sj.Unit = string(r.Unit)
		sj.StartDate = r.StartDate.String()
	}

	return sj
}

// Marshal renders a schedule.Config as JSON.
func (f *ScheduleFactory) Marshal(cfg schedule.Config) ([]byte, error) {
	return json.Marshal(f.ToJSON(cfg))
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseWeekday(name string) time.Weekday {
	wd, err := schedule.ParseWeekday(name)
	if err != nil {
		return invalidWeekday
	}
	return wd
}

// parseStartDate keeps an empty date as zero so the validator can ask for it.
func parseStartDate(s string) (generic.Date, error) {
	if strings.TrimSpace(s) == "" {
		return generic.Date{}, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.Date{}, generic.NewValidationError(MsgInvalidStartDate)
	}
	return d, nil
}
