package dates

import (
	"strings"
	"time"
)

const Layout = "2006-01-02"

var layouts = []string{Layout, "01/02/2006", "2006/01/02", time.RFC3339}

// Parse accepts the date formats the portal forms send. Empty input returns
// the zero time and ok=false.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Format renders a date for tables; the zero time renders as "-".
func Format(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(Layout)
}

// Long renders a date the way reports print it, e.g. "March 4, 2025".
func Long(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("January 2, 2006")
}
