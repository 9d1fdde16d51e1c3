package tui

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// formatAgo renders a relative timestamp for feed and table displays.
func formatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if
// needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// formatCoord renders a lat/lon pair the way mapping tools accept it.
func formatCoord(lat, lon float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lon)
}

// formatSpeed renders a speed in km/h, dash when stationary-unknown.
func formatSpeed(kph float64) string {
	if kph <= 0 {
		return "—"
	}
	return fmt.Sprintf("%.0f km/h", kph)
}

// parseISO renders a wire timestamp as a relative time, falling back to the
// raw string when it does not parse.
func parseISO(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return formatAgo(t)
}
