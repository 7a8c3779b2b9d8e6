package stats

import (
	"sort"
	"strings"

	"github.com/verte-zerg/freqlog/internal/model"
)

// ProjectWords groups case-sensitive word records by their folded key and merges each group.
// Returned records carry the folded key as their text.
func ProjectWords(records []model.WordMetadata, mode model.CaseMode) map[string]model.WordMetadata {
	groups := make(map[string]*model.WordMetadata, len(records))
	for _, rec := range records {
		key := mode.Fold(rec.Word)
		rec.Word = key
		groups[key] = MergeWords(groups[key], &rec)
	}
	out := make(map[string]model.WordMetadata, len(groups))
	for key, agg := range groups {
		out[key] = *agg
	}
	return out
}

// ProjectChords groups case-sensitive chord records by their folded key and merges each group.
func ProjectChords(records []model.ChordMetadata, mode model.CaseMode) map[string]model.ChordMetadata {
	groups := make(map[string]*model.ChordMetadata, len(records))
	for _, rec := range records {
		key := mode.Fold(rec.Chord)
		rec.Chord = key
		groups[key] = MergeChords(groups[key], &rec)
	}
	out := make(map[string]model.ChordMetadata, len(groups))
	for key, agg := range groups {
		out[key] = *agg
	}
	return out
}

// ListWords filters raw records by substring, projects them, then sorts and limits the result.
func ListWords(records []model.WordMetadata, opts model.ListOptions) []model.WordMetadata {
	if opts.Search != "" {
		filtered := make([]model.WordMetadata, 0, len(records))
		for _, rec := range records {
			if strings.Contains(rec.Word, opts.Search) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	projected := ProjectWords(records, opts.Case)
	out := make([]model.WordMetadata, 0, len(projected))
	for _, rec := range projected {
		out = append(out, rec)
	}
	SortWords(out, opts.SortBy, opts.Descending)
	return limit(out, opts.Limit)
}

// ListChords filters raw records by substring, projects them, then sorts and limits the result.
func ListChords(records []model.ChordMetadata, opts model.ListOptions) []model.ChordMetadata {
	if opts.Search != "" {
		filtered := make([]model.ChordMetadata, 0, len(records))
		for _, rec := range records {
			if strings.Contains(rec.Chord, opts.Search) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	projected := ProjectChords(records, opts.Case)
	out := make([]model.ChordMetadata, 0, len(projected))
	for _, rec := range projected {
		out = append(out, rec)
	}
	SortChords(out, opts.SortBy, opts.Descending)
	return limit(out, opts.Limit)
}

// SortWords orders records by field. Ties are broken by text ascending.
func SortWords(records []model.WordMetadata, field model.SortField, descending bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		var c int
		switch field {
		case model.SortFrequency:
			c = compareInt(int64(a.Frequency), int64(b.Frequency))
		case model.SortLastUsed:
			c = a.LastUsed.Compare(b.LastUsed)
		case model.SortAverageSpeed:
			c = compareInt(int64(a.AverageSpeed), int64(b.AverageSpeed))
		case model.SortScore:
			c = compareInt(int64(a.Score()), int64(b.Score()))
		default:
			c = strings.Compare(a.Word, b.Word)
		}
		if c == 0 {
			return a.Word < b.Word
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// SortChords orders records by field. Chords have no speed; that field falls back to text.
func SortChords(records []model.ChordMetadata, field model.SortField, descending bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		var c int
		switch field {
		case model.SortFrequency:
			c = compareInt(int64(a.Frequency), int64(b.Frequency))
		case model.SortLastUsed:
			c = a.LastUsed.Compare(b.LastUsed)
		case model.SortScore:
			c = compareInt(int64(a.Score()), int64(b.Score()))
		default:
			c = strings.Compare(a.Chord, b.Chord)
		}
		if c == 0 {
			return a.Chord < b.Chord
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// SortBanlist orders ban entries by text or date added.
func SortBanlist(entries []model.BanlistEntry, field model.SortField, descending bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		var c int
		if field == model.SortDateAdded {
			c = a.DateAdded.Compare(b.DateAdded)
		} else {
			c = strings.Compare(a.Word, b.Word)
		}
		if c == 0 {
			return a.Case < b.Case
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
