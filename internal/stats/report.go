package stats

import (
	"context"

	"github.com/verte-zerg/freqlog/internal/model"
)

// Source is the read side of the persistence layer used by reports.
type Source interface {
	ListWords(ctx context.Context, opts model.ListOptions) ([]model.WordMetadata, error)
	ListChords(ctx context.Context, opts model.ListOptions) ([]model.ChordMetadata, error)
	ListBanned(ctx context.Context, field model.SortField, descending bool, n int) ([]model.BanlistEntry, error)
	NumWords(ctx context.Context, mode model.CaseMode) (int, error)
	NumChords(ctx context.Context, mode model.CaseMode) (int, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Words     []model.WordMetadata
	Chords    []model.ChordMetadata
	Banned    []model.BanlistEntry
	NumWords  int
	NumChords int
}

// BuildReport loads and prepares data for stats rendering.
// Words and chords are listed with opts and counted under opts.Case; bans come newest first.
func BuildReport(ctx context.Context, src Source, opts model.ListOptions) (Report, error) {
	words, err := src.ListWords(ctx, opts)
	if err != nil {
		return Report{}, err
	}
	chordOpts := opts
	if chordOpts.SortBy == model.SortAverageSpeed {
		chordOpts.SortBy = model.SortFrequency
	}
	chords, err := src.ListChords(ctx, chordOpts)
	if err != nil {
		return Report{}, err
	}
	banned, err := src.ListBanned(ctx, model.SortDateAdded, true, 0)
	if err != nil {
		return Report{}, err
	}

	numWords, err := src.NumWords(ctx, opts.Case)
	if err != nil {
		return Report{}, err
	}
	numChords, err := src.NumChords(ctx, opts.Case)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Words:     words,
		Chords:    chords,
		Banned:    banned,
		NumWords:  numWords,
		NumChords: numChords,
	}, nil
}
