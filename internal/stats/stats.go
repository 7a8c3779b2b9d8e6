// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/freqlog/internal/model"
)

const lastUsedLayout = "2006-01-02 15:04:05"

// FormatSpeed renders an average entry duration in seconds.
func FormatSpeed(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// FormatTime renders a timestamp in local time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(lastUsedLayout)
}

// DisplayText makes whitespace inside entries visible.
func DisplayText(text string) string {
	r := strings.NewReplacer(" ", "␣", "\t", "<tab>", "\n", "<enter>")
	return r.Replace(text)
}

// WordRows converts word aggregates into table cells.
func WordRows(words []model.WordMetadata) [][]string {
	rows := make([][]string, 0, len(words))
	for _, w := range words {
		rows = append(rows, []string{
			DisplayText(w.Word),
			fmt.Sprintf("%d", w.Frequency),
			FormatTime(w.LastUsed),
			FormatSpeed(w.AverageSpeed),
			fmt.Sprintf("%d", w.Score()),
		})
	}
	return rows
}

// ChordRows converts chord aggregates into table cells.
func ChordRows(chords []model.ChordMetadata) [][]string {
	rows := make([][]string, 0, len(chords))
	for _, c := range chords {
		rows = append(rows, []string{
			DisplayText(c.Chord),
			fmt.Sprintf("%d", c.Frequency),
			FormatTime(c.LastUsed),
			fmt.Sprintf("%d", c.Score()),
		})
	}
	return rows
}

// BanlistRows converts ban entries into table cells.
func BanlistRows(entries []model.BanlistEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			DisplayText(e.Word),
			e.Case.String(),
			FormatTime(e.DateAdded),
		})
	}
	return rows
}

// WordHeaders are the column titles of word tables.
var WordHeaders = []string{"Word", "Freq.", "Last used", "Avg. speed", "Score"}

// ChordHeaders are the column titles of chord tables.
var ChordHeaders = []string{"Chord", "Freq.", "Last used", "Score"}

// BanlistHeaders are the column titles of banlist tables.
var BanlistHeaders = []string{"Word", "Case", "Date added"}

// RenderWords prints a word table.
func RenderWords(w io.Writer, words []model.WordMetadata) error {
	if len(words) == 0 {
		_, err := fmt.Fprintln(w, "No words found.")
		return err
	}
	return writeTable(w, WordHeaders, WordRows(words), 1, 3, 4)
}

// RenderChords prints a chord table.
func RenderChords(w io.Writer, chords []model.ChordMetadata) error {
	if len(chords) == 0 {
		_, err := fmt.Fprintln(w, "No chords found.")
		return err
	}
	return writeTable(w, ChordHeaders, ChordRows(chords), 1, 3)
}

// RenderBanlist prints banned entries.
func RenderBanlist(w io.Writer, entries []model.BanlistEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No banned words.")
		return err
	}
	return writeTable(w, BanlistHeaders, BanlistRows(entries))
}

func writeTable(w io.Writer, headers []string, rows [][]string, numeric ...int) error {
	lines := fitLines(formatTable(headers, rows, numeric...), outputWidth(w))
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// outputWidth returns the terminal width when w is a terminal, otherwise 0 (unlimited).
func outputWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}
