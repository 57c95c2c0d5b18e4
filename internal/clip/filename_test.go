package clip

import (
	"strings"
	"testing"
	"time"
)

func TestClipFilename(t *testing.T) {
	at := time.Date(2026, 8, 30, 14, 23, 10, 0, time.UTC)

	got := clipFilename(KindClip, at, 10, 16)
	want := "clip-20260830-142310-0m10s-0m16s.mp3"
	if got != want {
		t.Errorf("clipFilename() = %q, want %q", got, want)
	}

	got = clipFilename(KindSnippet, at, 83, 145.7)
	if !strings.HasPrefix(got, "snippet-") || !strings.Contains(got, "1m23s-2m25s") {
		t.Errorf("clipFilename() = %q", got)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"clip-0m10s.mp3", 120, "clip-0m10s.mp3"},
		{"a/b\\c:d.mp3", 120, "a_b_c_d.mp3"},
		{"tab\there", 120, "tabhere"},
		{"abcdef", 3, "abc"},
		{"  padded  ", 120, "padded"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("sanitizeName(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
