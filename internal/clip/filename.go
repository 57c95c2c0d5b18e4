package clip

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/playbridge/playbridge/internal/event"
)

// sanitizeName strips characters that are unsafe in filenames, replacing them
// with underscores, and caps the length in runes.
func sanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// clipFilename builds a deterministic output name from the wall clock and the
// formatted clip markers, e.g. clip-20260830-142310-0m10s-0m16s.mp3.
func clipFilename(kind string, at time.Time, startSeconds, endSeconds float64) string {
	name := fmt.Sprintf("%s-%s-%s-%s.mp3",
		kind,
		at.Format("20060102-150405"),
		event.FormatOffset(startSeconds),
		event.FormatOffset(endSeconds),
	)
	return sanitizeName(name, 120)
}
