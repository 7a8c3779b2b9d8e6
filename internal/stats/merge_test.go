package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMergeWordsWeightsSpeedByFrequency(t *testing.T) {
	a := &model.WordMetadata{Word: "hello", Frequency: 1, LastUsed: base, AverageSpeed: time.Second}
	b := &model.WordMetadata{Word: "hello", Frequency: 3, LastUsed: base.Add(time.Minute), AverageSpeed: 3 * time.Second}

	got := MergeWords(a, b)
	if got.Frequency != 4 {
		t.Fatalf("expected frequency 4, got %d", got.Frequency)
	}
	if !got.LastUsed.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected latest last used, got %v", got.LastUsed)
	}
	want := 2500 * time.Millisecond
	if got.AverageSpeed != want {
		t.Fatalf("expected average %v, got %v", want, got.AverageSpeed)
	}
}

func TestMergeWordsIsCommutative(t *testing.T) {
	a := &model.WordMetadata{Word: "x", Frequency: 2, LastUsed: base.Add(time.Hour), AverageSpeed: 100 * time.Millisecond}
	b := &model.WordMetadata{Word: "x", Frequency: 5, LastUsed: base, AverageSpeed: 800 * time.Millisecond}

	ab := MergeWords(a, b)
	ba := MergeWords(b, a)
	if *ab != *ba {
		t.Fatalf("merge not commutative: %+v vs %+v", ab, ba)
	}
}

func TestMergeWordsIsAssociative(t *testing.T) {
	a := &model.WordMetadata{Word: "x", Frequency: 1, LastUsed: base, AverageSpeed: 300 * time.Millisecond}
	b := &model.WordMetadata{Word: "x", Frequency: 2, LastUsed: base.Add(2 * time.Minute), AverageSpeed: 600 * time.Millisecond}
	c := &model.WordMetadata{Word: "x", Frequency: 3, LastUsed: base.Add(time.Minute), AverageSpeed: 900 * time.Millisecond}

	left := MergeWords(MergeWords(a, b), c)
	right := MergeWords(a, MergeWords(b, c))
	if left.Frequency != right.Frequency || !left.LastUsed.Equal(right.LastUsed) {
		t.Fatalf("merge not associative: %+v vs %+v", left, right)
	}
	if diff := left.AverageSpeed - right.AverageSpeed; diff > time.Microsecond || diff < -time.Microsecond {
		t.Fatalf("average differs: %v vs %v", left.AverageSpeed, right.AverageSpeed)
	}
}

func TestMergeWordsNilIsIdentity(t *testing.T) {
	a := &model.WordMetadata{Word: "x", Frequency: 2, LastUsed: base, AverageSpeed: time.Second}
	if got := MergeWords(nil, a); got != a {
		t.Fatalf("expected identity for nil left operand")
	}
	if got := MergeWords(a, nil); got != a {
		t.Fatalf("expected identity for nil right operand")
	}
	if got := MergeWords(nil, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestMergeWordsPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for mismatched words")
		}
	}()
	MergeWords(&model.WordMetadata{Word: "a", Frequency: 1}, &model.WordMetadata{Word: "b", Frequency: 1})
}

func TestMergeChords(t *testing.T) {
	a := &model.ChordMetadata{Chord: "the", Frequency: 4, LastUsed: base.Add(time.Minute)}
	b := &model.ChordMetadata{Chord: "the", Frequency: 1, LastUsed: base}
	got := MergeChords(a, b)
	if got.Frequency != 5 || !got.LastUsed.Equal(a.LastUsed) {
		t.Fatalf("unexpected merge result: %+v", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for mismatched chords")
		}
	}()
	MergeChords(a, &model.ChordMetadata{Chord: "The", Frequency: 1})
}

func TestWordOccurrence(t *testing.T) {
	got := WordOccurrence("hey", base, base.Add(750*time.Millisecond))
	if got.Frequency != 1 || got.AverageSpeed != 750*time.Millisecond || !got.LastUsed.Equal(base.Add(750*time.Millisecond)) {
		t.Fatalf("unexpected occurrence: %+v", got)
	}
}
