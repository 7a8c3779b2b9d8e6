package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/stats"
)

// CheckBanned reports whether text is banned when looked up under mode.
// A ban recorded under a coarser mode also applies to finer lookups.
func (s *Store) CheckBanned(ctx context.Context, text string, mode model.CaseMode) (bool, error) {
	return checkBanned(ctx, s.db, text, mode)
}

func checkBanned(ctx context.Context, q queryer, text string, mode model.CaseMode) (bool, error) {
	for _, recorded := range model.CaseModes {
		if !recorded.Covers(mode) {
			continue
		}
		found, err := hasBan(ctx, q, recorded, recorded.Fold(text))
		if err != nil || found {
			return found, err
		}
	}
	if mode != model.FirstChar {
		return false, nil
	}
	// Both first-character variants banned exactly is equivalent to a first-char ban.
	lower := model.FirstChar.Fold(text)
	for _, variant := range []string{lower, upperFirst(lower)} {
		found, err := hasBan(ctx, q, model.Sensitive, variant)
		if err != nil || !found {
			return false, err
		}
	}
	return true, nil
}

func hasBan(ctx context.Context, q queryer, mode model.CaseMode, key string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM banlist WHERE mode = ? AND key = ?`, int(mode), key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func upperFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

// BanWord bans text under mode and deletes matching words and chords.
// It returns false if the text is already banned under mode.
func (s *Store) BanWord(ctx context.Context, text string, mode model.CaseMode, at time.Time) (bool, error) {
	added := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		banned, err := checkBanned(ctx, tx, text, mode)
		if err != nil || banned {
			return err
		}
		key := mode.Fold(text)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO banlist (mode, key, word, date_added) VALUES (?, ?, ?, ?)`,
			int(mode), key, text, formatTime(at)); err != nil {
			return err
		}
		if _, err := deleteMatching(ctx, tx, "freqlog", foldColumn("word", mode), key); err != nil {
			return err
		}
		if _, err := deleteMatching(ctx, tx, "chordlog", foldColumn("chord", mode), key); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ban %q: %w", text, err)
	}
	return added, nil
}

// UnbanWord removes ban records for text under mode and any finer mode whose key folds to the same text.
// It returns false if no record was removed.
func (s *Store) UnbanWord(ctx context.Context, text string, mode model.CaseMode) (bool, error) {
	removed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		entries, err := listBanRecords(ctx, tx)
		if err != nil {
			return err
		}
		target := mode.Fold(text)
		for _, e := range entries {
			if !mode.Covers(e.mode) || mode.Fold(e.key) != target {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM banlist WHERE mode = ? AND key = ?`, int(e.mode), e.key); err != nil {
				return err
			}
			removed = true
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("unban %q: %w", text, err)
	}
	return removed, nil
}

// ListBanned returns ban entries sorted by field (text or date added) and limited to n when n > 0.
func (s *Store) ListBanned(ctx context.Context, field model.SortField, descending bool, n int) ([]model.BanlistEntry, error) {
	records, err := listBanRecords(ctx, s.db)
	if err != nil {
		return nil, err
	}
	entries := make([]model.BanlistEntry, len(records))
	for i, r := range records {
		entries[i] = r.entry()
	}
	stats.SortBanlist(entries, field, descending)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

type banRecord struct {
	mode      model.CaseMode
	key       string
	word      string
	dateAdded time.Time
}

func (r banRecord) entry() model.BanlistEntry {
	return model.BanlistEntry{Word: r.word, Case: r.mode, DateAdded: r.dateAdded}
}

func listBanRecords(ctx context.Context, q queryer) ([]banRecord, error) {
	rows, err := q.QueryContext(ctx, `SELECT mode, key, word, date_added FROM banlist`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []banRecord
	for rows.Next() {
		var r banRecord
		var mode int
		var dateAdded string
		if err := rows.Scan(&mode, &r.key, &r.word, &dateAdded); err != nil {
			return nil, err
		}
		parsed, err := parseTime(dateAdded)
		if err != nil {
			return nil, err
		}
		r.mode = model.CaseMode(mode)
		r.dateAdded = parsed
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
