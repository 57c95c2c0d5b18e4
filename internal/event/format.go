package event

import "fmt"

// FormatTime renders seconds as M:SS.s, e.g. 83.25 -> "1:23.2".
// Negative or NaN-ish inputs render as the zero position.
func FormatTime(seconds float64) string {
	if !(seconds > 0) {
		return "0:00.0"
	}
	minutes := int(seconds) / 60
	secs := seconds - float64(minutes*60)
	return fmt.Sprintf("%d:%04.1f", minutes, secs)
}

// FormatOffset renders seconds as a filename-safe XmYYs marker, e.g. 83 -> "1m23s".
func FormatOffset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%dm%02ds", minutes, secs)
}
