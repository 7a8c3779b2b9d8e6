package stats

import (
	"strings"
	"testing"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Word", "Freq.", "Score"}
	rows := [][]string{
		{"the", "120", "360"},
		{"<tab>", "8", "16"},
	}
	lines := formatTable(headers, rows, 1, 2)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Word  Freq. Score" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "the     120   360" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "<tab>     8    16" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Word", "Freq."}, [][]string{{"日本", "2"}}, 1)
	if lines[1] != "日本     2" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}

func TestFormatTableLastColumnUnpadded(t *testing.T) {
	lines := formatTable(BanlistHeaders, [][]string{{"spam", "insensitive", "2024-03-01"}, {"x", "sensitive", "-"}})
	if lines[2] != "x    sensitive   -" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
	for _, line := range lines {
		if strings.HasSuffix(line, " ") {
			t.Fatalf("trailing padding in %q", line)
		}
	}
}

func TestFitLinesTruncates(t *testing.T) {
	lines := fitLines([]string{"abcdefgh", "ab"}, 5)
	if lines[0] != "abcd…" {
		t.Fatalf("unexpected truncation: %q", lines[0])
	}
	if lines[1] != "ab" {
		t.Fatalf("short line changed: %q", lines[1])
	}
}
