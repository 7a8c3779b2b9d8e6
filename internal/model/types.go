// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Action is the kind of an observed hardware event.
type Action int

const (
	Press Action = iota + 1
	Release
)

func (a Action) String() string {
	switch a {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// KeyKind classifies a key for the segmentation engine.
type KeyKind int

const (
	KeyOther KeyKind = iota
	KeyChar
	KeySpace
	KeyTab
	KeyEnter
	KeyBackspace
	KeyModifier
	KeyButton
)

// Key identifies a pressed key or pointer button.
// Char is set for KeyChar and for whitespace kinds. Name is set for named keys
// (modifiers, buttons and anything else the capture layer could name).
type Key struct {
	Kind KeyKind
	Char rune
	Name string
}

// CharKey returns a character key, mapping whitespace runes to their named kinds.
func CharKey(r rune) Key {
	switch r {
	case ' ':
		return Key{Kind: KeySpace, Char: ' ', Name: "space"}
	case '\t':
		return Key{Kind: KeyTab, Char: '\t', Name: "tab"}
	case '\n', '\r':
		return Key{Kind: KeyEnter, Char: '\n', Name: "enter"}
	}
	return Key{Kind: KeyChar, Char: r}
}

// ModifierKey returns a modifier key with the given name (e.g. "ctrl_l").
func ModifierKey(name string) Key {
	return Key{Kind: KeyModifier, Name: name}
}

// IsWhitespace reports whether the key is a word-boundary whitespace key.
func (k Key) IsWhitespace() bool {
	return k.Kind == KeySpace || k.Kind == KeyTab || k.Kind == KeyEnter
}

func (k Key) String() string {
	switch k.Kind {
	case KeyChar:
		return string(k.Char)
	case KeySpace, KeyTab, KeyEnter, KeyBackspace, KeyModifier, KeyButton:
		return k.Name
	default:
		if k.Name != "" {
			return k.Name
		}
		return "other"
	}
}

// InputEvent is one observed hardware event.
type InputEvent struct {
	Action Action
	Key    Key
	Time   time.Time
}

// EntryKind is the classification of a flushed entry.
type EntryKind int

const (
	Word EntryKind = iota + 1
	Chord
)

func (k EntryKind) String() string {
	switch k {
	case Word:
		return "word"
	case Chord:
		return "chord"
	default:
		return "unknown"
	}
}

// Entry is a completed, classified unit of input.
type Entry struct {
	Text  string
	Kind  EntryKind
	Start time.Time
	End   time.Time
}

// CaseMode is a case-sensitivity projection over stored texts.
type CaseMode int

const (
	Sensitive CaseMode = iota
	FirstChar
	Insensitive
)

// CaseModes lists all projections from finest to coarsest.
var CaseModes = []CaseMode{Sensitive, FirstChar, Insensitive}

// Fold maps text to its grouping key under the projection.
func (m CaseMode) Fold(text string) string {
	switch m {
	case Insensitive:
		return strings.ToLower(text)
	case FirstChar:
		r, size := utf8.DecodeRuneInString(text)
		if size == 0 {
			return text
		}
		return string(unicode.ToLower(r)) + text[size:]
	default:
		return text
	}
}

// Covers reports whether a ban recorded under m also applies to lookups made under other.
// Coarser projections cover finer ones.
func (m CaseMode) Covers(other CaseMode) bool {
	return m >= other
}

func (m CaseMode) String() string {
	switch m {
	case Sensitive:
		return "sensitive"
	case FirstChar:
		return "first_char"
	case Insensitive:
		return "insensitive"
	default:
		return "unknown"
	}
}

// ParseCaseMode parses a case mode name as printed by String.
func ParseCaseMode(s string) (CaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sensitive", "s":
		return Sensitive, nil
	case "first_char", "first-char", "firstchar", "f":
		return FirstChar, nil
	case "insensitive", "i", "":
		return Insensitive, nil
	default:
		return 0, fmt.Errorf("unknown case mode %q (sensitive, first_char, insensitive)", s)
	}
}

// WordMetadata is the stored aggregate for one word.
type WordMetadata struct {
	Word         string
	Frequency    int
	LastUsed     time.Time
	AverageSpeed time.Duration
}

// Score is the derived ranking value: length times frequency.
func (w WordMetadata) Score() int {
	return utf8.RuneCountInString(w.Word) * w.Frequency
}

// ChordMetadata is the stored aggregate for one chord. Chords are not speed-tracked.
type ChordMetadata struct {
	Chord     string
	Frequency int
	LastUsed  time.Time
}

// Score is the derived ranking value: length times frequency.
func (c ChordMetadata) Score() int {
	return utf8.RuneCountInString(c.Chord) * c.Frequency
}

// BanlistEntry records that a text is banned under a projection.
type BanlistEntry struct {
	Word      string
	Case      CaseMode
	DateAdded time.Time
}

// SortField selects the ordering of list results.
type SortField int

const (
	SortText SortField = iota
	SortFrequency
	SortLastUsed
	SortAverageSpeed
	SortScore
	SortDateAdded
)

func (f SortField) String() string {
	switch f {
	case SortText:
		return "text"
	case SortFrequency:
		return "frequency"
	case SortLastUsed:
		return "lastused"
	case SortAverageSpeed:
		return "avgspeed"
	case SortScore:
		return "score"
	case SortDateAdded:
		return "dateadded"
	default:
		return "unknown"
	}
}

// ParseSortField parses a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "word", "chord":
		return SortText, nil
	case "frequency", "freq":
		return SortFrequency, nil
	case "lastused", "last_used", "last-used":
		return SortLastUsed, nil
	case "avgspeed", "average_speed", "speed":
		return SortAverageSpeed, nil
	case "score":
		return SortScore, nil
	case "dateadded", "date_added", "date":
		return SortDateAdded, nil
	default:
		return 0, fmt.Errorf("unknown sort field %q", s)
	}
}

// ListOptions controls listing of stored records.
type ListOptions struct {
	Limit      int
	SortBy     SortField
	Descending bool
	Case       CaseMode
	Search     string
}

// BanAge picks which ban date survives a database merge.
type BanAge int

const (
	KeepOlder BanAge = iota
	KeepNewer
)

// EngineConfig is the immutable configuration of the segmentation engine.
type EngineConfig struct {
	NewWordThreshold     time.Duration
	ChordCharThreshold   time.Duration
	AllowedChordChars    map[rune]struct{}
	ModifierKeys         map[string]struct{}
	DeleteWordModifiers  map[string]struct{}
	MinEntryLength       int
	// EmbedChordWhitespace keeps whitespace inside the pending entry while
	// typing is fast. Before a second character sets an average, the gap
	// preceding the whitespace decides, so a slow space after a single
	// character still ends the entry.
	EmbedChordWhitespace bool
	PollInterval         time.Duration
}
