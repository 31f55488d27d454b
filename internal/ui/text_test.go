package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello w…"},
		{"width one", "hello", 1, "…"},
		{"zero width", "hello", 0, ""},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.width)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncate_PreservesANSI(t *testing.T) {
	styled := "\x1b[31mhello world\x1b[0m"
	got := Truncate(styled, 8)
	if w := ansi.StringWidth(got); w > 8 {
		t.Errorf("truncated width = %d, want <= 8", w)
	}
	if !strings.Contains(got, "\x1b[31m") {
		t.Error("ANSI sequence should survive truncation")
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("got %q, want ellipsis suffix", got)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		width     int
		wantWidth int
	}{
		{"pads short", "ab", 6, 6},
		{"exact", "abcdef", 6, 6},
		{"truncates long", "abcdefgh", 6, 6},
		{"wide runes", "日本語のパス", 8, 8},
		{"zero", "ab", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadRight(tt.in, tt.width)
			if w := runewidth.StringWidth(got); w != tt.wantWidth {
				t.Errorf("PadRight(%q, %d) width = %d, want %d", tt.in, tt.width, w, tt.wantWidth)
			}
		})
	}
}
