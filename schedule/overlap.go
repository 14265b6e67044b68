package schedule

import "github.com/warp/boothrent/generic"

// OverlapHorizon is how many upcoming dates of each schedule Overlap compares.
const OverlapHorizon = 10

// Overlap reports whether two enabled schedules would collect on the same
// date within their next OverlapHorizon occurrences. Disabled or unusable
// schedules never overlap.
func Overlap(a, b Config, today generic.Date) bool {
	if !a.Enabled || !b.Enabled {
		return false
	}
	shared, err := SharedDates(a, b, OverlapHorizon, today)
	return err == nil && len(shared) > 0
}

// SharedDates returns the dates, in order, that appear in both schedules'
// next horizon occurrences. Enabled is not consulted.
func SharedDates(a, b Config, horizon int, today generic.Date) ([]generic.Date, error) {
	first, err := Project(a, horizon, today)
	if err != nil {
		return nil, err
	}
	second, err := Project(b, horizon, today)
	if err != nil {
		return nil, err
	}

	inSecond := make(map[string]bool, len(second))
	for _, d := range second {
		inSecond[d.String()] = true
	}

	shared := []generic.Date{}
	for _, d := range first {
		if inSecond[d.String()] {
			shared = append(shared, d)
		}
	}
	return shared, nil
}
