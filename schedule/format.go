package schedule

import (
	"fmt"
	"strings"

	"github.com/warp/boothrent/generic"
)

// OrdinalSuffix returns the English suffix for n: 1st, 2nd, 3rd, 4th, 11th, 21st, 112th.
func OrdinalSuffix(n int) string {
	j, k := n%10, n%100
	switch {
	case j == 1 && k != 11:
		return "st"
	case j == 2 && k != 12:
		return "nd"
	case j == 3 && k != 13:
		return "rd"
	default:
		return "th"
	}
}

// Ordinal renders n with its suffix ("21st").
func Ordinal(n int) string { return fmt.Sprintf("%d%s", n, OrdinalSuffix(n)) }

// FormatDate renders a collection date for display: "Mon, Nov 11, 2025".
func FormatDate(d generic.Date) string { return d.Display() }

// FormatDates renders a projection for display.
func FormatDates(dates []generic.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = FormatDate(d)
	}
	return out
}

func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// joinList joins with English conjunction rules: "A", "A and B", "A, B, and C".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
