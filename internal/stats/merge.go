package stats

import (
	"fmt"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
)

// MergeWords combines two aggregates of the same word. A nil operand is the identity.
// Merging different words is a grouping bug and panics.
func MergeWords(a, b *model.WordMetadata) *model.WordMetadata {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Word != b.Word {
		panic(fmt.Sprintf("stats: cannot merge word metadata for %q and %q", a.Word, b.Word))
	}
	freq := a.Frequency + b.Frequency
	weighted := int64(a.AverageSpeed)*int64(a.Frequency) + int64(b.AverageSpeed)*int64(b.Frequency)
	return &model.WordMetadata{
		Word:         a.Word,
		Frequency:    freq,
		LastUsed:     latest(a.LastUsed, b.LastUsed),
		AverageSpeed: time.Duration(weighted / int64(freq)),
	}
}

// MergeChords combines two aggregates of the same chord. A nil operand is the identity.
// Merging different chords is a grouping bug and panics.
func MergeChords(a, b *model.ChordMetadata) *model.ChordMetadata {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Chord != b.Chord {
		panic(fmt.Sprintf("stats: cannot merge chord metadata for %q and %q", a.Chord, b.Chord))
	}
	return &model.ChordMetadata{
		Chord:     a.Chord,
		Frequency: a.Frequency + b.Frequency,
		LastUsed:  latest(a.LastUsed, b.LastUsed),
	}
}

// WordOccurrence is the single-occurrence record folded into a stored aggregate when a word is logged.
func WordOccurrence(word string, start, end time.Time) model.WordMetadata {
	return model.WordMetadata{
		Word:         word,
		Frequency:    1,
		LastUsed:     end,
		AverageSpeed: end.Sub(start),
	}
}

// ChordOccurrence is the single-occurrence record for a logged chord.
func ChordOccurrence(chord string, end time.Time) model.ChordMetadata {
	return model.ChordMetadata{
		Chord:     chord,
		Frequency: 1,
		LastUsed:  end,
	}
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
