package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/stats"
)

const (
	selectWords  = `SELECT word, frequency, last_used, average_speed_ns FROM freqlog`
	selectChords = `SELECT chord, frequency, last_used FROM chordlog`
)

// LogWord records one occurrence of word typed between start and end.
// It returns false without writing when the word is banned.
func (s *Store) LogWord(ctx context.Context, word string, start, end time.Time) (bool, error) {
	logged := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		banned, err := checkBanned(ctx, tx, word, model.Sensitive)
		if err != nil || banned {
			return err
		}
		existing, err := queryWords(ctx, tx, selectWords+` WHERE word = ?`, word)
		if err != nil {
			return err
		}
		var current *model.WordMetadata
		if len(existing) > 0 {
			current = &existing[0]
		}
		occurrence := stats.WordOccurrence(word, start, end)
		if err := upsertWord(ctx, tx, stats.MergeWords(current, &occurrence)); err != nil {
			return err
		}
		logged = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("log word: %w", err)
	}
	return logged, nil
}

// LogChord records one occurrence of chord fired at end.
// It returns false without writing when the chord is banned.
func (s *Store) LogChord(ctx context.Context, chord string, end time.Time) (bool, error) {
	logged := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		banned, err := checkBanned(ctx, tx, chord, model.Sensitive)
		if err != nil || banned {
			return err
		}
		existing, err := queryChords(ctx, tx, selectChords+` WHERE chord = ?`, chord)
		if err != nil {
			return err
		}
		var current *model.ChordMetadata
		if len(existing) > 0 {
			current = &existing[0]
		}
		occurrence := stats.ChordOccurrence(chord, end)
		if err := upsertChord(ctx, tx, stats.MergeChords(current, &occurrence)); err != nil {
			return err
		}
		logged = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("log chord: %w", err)
	}
	return logged, nil
}

// GetWordMetadata returns the aggregate for word under mode, or nil if nothing is stored.
func (s *Store) GetWordMetadata(ctx context.Context, word string, mode model.CaseMode) (*model.WordMetadata, error) {
	key := mode.Fold(word)
	records, err := queryWords(ctx, s.db, selectWords+` WHERE `+foldColumn("word", mode)+` = ?`, key)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	agg := stats.ProjectWords(records, mode)[key]
	return &agg, nil
}

// GetChordMetadata returns the aggregate for chord under mode, or nil if nothing is stored.
func (s *Store) GetChordMetadata(ctx context.Context, chord string, mode model.CaseMode) (*model.ChordMetadata, error) {
	key := mode.Fold(chord)
	records, err := queryChords(ctx, s.db, selectChords+` WHERE `+foldColumn("chord", mode)+` = ?`, key)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	agg := stats.ProjectChords(records, mode)[key]
	return &agg, nil
}

// ListWords returns projected word aggregates ordered and limited by opts.
func (s *Store) ListWords(ctx context.Context, opts model.ListOptions) ([]model.WordMetadata, error) {
	query, args := selectWords, []any{}
	if opts.Search != "" {
		query += ` WHERE instr(word, ?) > 0`
		args = append(args, opts.Search)
	}
	records, err := queryWords(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	return stats.ListWords(records, opts), nil
}

// ListChords returns projected chord aggregates ordered and limited by opts.
func (s *Store) ListChords(ctx context.Context, opts model.ListOptions) ([]model.ChordMetadata, error) {
	query, args := selectChords, []any{}
	if opts.Search != "" {
		query += ` WHERE instr(chord, ?) > 0`
		args = append(args, opts.Search)
	}
	records, err := queryChords(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	return stats.ListChords(records, opts), nil
}

// NumWords counts distinct words under mode.
func (s *Store) NumWords(ctx context.Context, mode model.CaseMode) (int, error) {
	return s.count(ctx, "freqlog", foldColumn("word", mode))
}

// NumChords counts distinct chords under mode.
func (s *Store) NumChords(ctx context.Context, mode model.CaseMode) (int, error) {
	return s.count(ctx, "chordlog", foldColumn("chord", mode))
}

func (s *Store) count(ctx context.Context, table, column string) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT %s) FROM %s`, column, table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteWord removes every stored word matching word under mode without banning it.
func (s *Store) DeleteWord(ctx context.Context, word string, mode model.CaseMode) (bool, error) {
	return deleteMatching(ctx, s.db, "freqlog", foldColumn("word", mode), mode.Fold(word))
}

// DeleteChord removes every stored chord matching chord under mode without banning it.
func (s *Store) DeleteChord(ctx context.Context, chord string, mode model.CaseMode) (bool, error) {
	return deleteMatching(ctx, s.db, "chordlog", foldColumn("chord", mode), mode.Fold(chord))
}

func deleteMatching(ctx context.Context, q queryer, table, column, key string) (bool, error) {
	res, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, column), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func upsertWord(ctx context.Context, q queryer, w *model.WordMetadata) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO freqlog (word, word_lower, word_first, frequency, last_used, average_speed_ns)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(word) DO UPDATE SET
			frequency = excluded.frequency,
			last_used = excluded.last_used,
			average_speed_ns = excluded.average_speed_ns`,
		w.Word,
		model.Insensitive.Fold(w.Word),
		model.FirstChar.Fold(w.Word),
		w.Frequency,
		formatTime(w.LastUsed),
		int64(w.AverageSpeed),
	)
	return err
}

func upsertChord(ctx context.Context, q queryer, c *model.ChordMetadata) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO chordlog (chord, chord_lower, chord_first, frequency, last_used)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chord) DO UPDATE SET
			frequency = excluded.frequency,
			last_used = excluded.last_used`,
		c.Chord,
		model.Insensitive.Fold(c.Chord),
		model.FirstChar.Fold(c.Chord),
		c.Frequency,
		formatTime(c.LastUsed),
	)
	return err
}

func queryWords(ctx context.Context, q queryer, query string, args ...any) ([]model.WordMetadata, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.WordMetadata
	for rows.Next() {
		var w model.WordMetadata
		var lastUsed string
		var speed int64
		if err := rows.Scan(&w.Word, &w.Frequency, &lastUsed, &speed); err != nil {
			return nil, err
		}
		parsed, err := parseTime(lastUsed)
		if err != nil {
			return nil, err
		}
		w.LastUsed = parsed
		w.AverageSpeed = time.Duration(speed)
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func queryChords(ctx context.Context, q queryer, query string, args ...any) ([]model.ChordMetadata, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.ChordMetadata
	for rows.Next() {
		var c model.ChordMetadata
		var lastUsed string
		if err := rows.Scan(&c.Chord, &c.Frequency, &lastUsed); err != nil {
			return nil, err
		}
		parsed, err := parseTime(lastUsed)
		if err != nil {
			return nil, err
		}
		c.LastUsed = parsed
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
