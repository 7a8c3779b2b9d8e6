package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
)

// WriteWordsCSV writes a header row and one row per word.
func WriteWordsCSV(w io.Writer, words []model.WordMetadata) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"word", "frequency", "last_used", "average_speed_s", "score"}); err != nil {
		return err
	}
	for _, word := range words {
		if err := cw.Write([]string{
			word.Word,
			fmt.Sprintf("%d", word.Frequency),
			word.LastUsed.UTC().Format(time.RFC3339Nano),
			fmt.Sprintf("%.6f", word.AverageSpeed.Seconds()),
			fmt.Sprintf("%d", word.Score()),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteChordsCSV writes a header row and one row per chord.
func WriteChordsCSV(w io.Writer, chords []model.ChordMetadata) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"chord", "frequency", "last_used", "score"}); err != nil {
		return err
	}
	for _, chord := range chords {
		if err := cw.Write([]string{
			chord.Chord,
			fmt.Sprintf("%d", chord.Frequency),
			chord.LastUsed.UTC().Format(time.RFC3339Nano),
			fmt.Sprintf("%d", chord.Score()),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
