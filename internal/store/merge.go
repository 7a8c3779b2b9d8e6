package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/stats"
)

// MergeDatabases writes a new database at dst combining srcA and srcB.
// Word and chord aggregates are merged per exact text; banlists are united and
// a ban present in both sources keeps the older or newer date according to keep.
// Entries covered by any merged ban are left out. Sources are opened read-only.
func MergeDatabases(ctx context.Context, srcA, srcB, dst string, keep model.BanAge) error {
	if err := distinctPaths(srcA, srcB, dst); err != nil {
		return err
	}
	for _, src := range []string{srcA, srcB} {
		if _, err := os.Stat(src); err != nil {
			return fmt.Errorf("source database: %w", err)
		}
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("destination %s already exists", dst)
	} else if !os.IsNotExist(err) {
		return err
	}

	words := map[string]*model.WordMetadata{}
	chords := map[string]*model.ChordMetadata{}
	bans := map[banKey]banRecord{}
	for _, src := range []string{srcA, srcB} {
		if err := collect(ctx, src, keep, words, chords, bans); err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}
	}

	out, err := Open(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			// Best-effort close after merge.
			_ = cerr
		}
	}()
	return out.withTx(ctx, func(tx *sql.Tx) error {
		for _, w := range words {
			if err := upsertWord(ctx, tx, w); err != nil {
				return err
			}
		}
		for _, c := range chords {
			if err := upsertChord(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, b := range bans {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO banlist (mode, key, word, date_added) VALUES (?, ?, ?, ?)`,
				int(b.mode), b.key, b.word, formatTime(b.dateAdded)); err != nil {
				return err
			}
			// A ban from one source also covers entries logged in the other.
			if _, err := deleteMatching(ctx, tx, "freqlog", foldColumn("word", b.mode), b.key); err != nil {
				return err
			}
			if _, err := deleteMatching(ctx, tx, "chordlog", foldColumn("chord", b.mode), b.key); err != nil {
				return err
			}
		}
		return nil
	})
}

type banKey struct {
	mode model.CaseMode
	key  string
}

func collect(ctx context.Context, path string, keep model.BanAge, words map[string]*model.WordMetadata, chords map[string]*model.ChordMetadata, bans map[banKey]banRecord) error {
	src, err := openReadOnly(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			// Best-effort close of merge source.
			_ = cerr
		}
	}()

	ws, err := queryWords(ctx, src.db, selectWords)
	if err != nil {
		return err
	}
	for i := range ws {
		words[ws[i].Word] = stats.MergeWords(words[ws[i].Word], &ws[i])
	}
	cs, err := queryChords(ctx, src.db, selectChords)
	if err != nil {
		return err
	}
	for i := range cs {
		chords[cs[i].Chord] = stats.MergeChords(chords[cs[i].Chord], &cs[i])
	}
	records, err := listBanRecords(ctx, src.db)
	if err != nil {
		return err
	}
	for _, r := range records {
		k := banKey{mode: r.mode, key: r.key}
		prev, ok := bans[k]
		if !ok {
			bans[k] = r
			continue
		}
		older := r.dateAdded.Before(prev.dateAdded)
		if (keep == model.KeepOlder && older) || (keep == model.KeepNewer && !older && !r.dateAdded.Equal(prev.dateAdded)) {
			bans[k] = r
		}
	}
	return nil
}

func distinctPaths(paths ...string) error {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if _, ok := seen[abs]; ok {
			return fmt.Errorf("%w: %s", ErrSamePath, p)
		}
		seen[abs] = struct{}{}
	}
	return nil
}
