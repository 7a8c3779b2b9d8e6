package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
)

func seedDatabase(t *testing.T, path string, fn func(st *Store)) {
	t.Helper()
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	fn(st)
	if err := st.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func TestMergeDatabases(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.db")
	srcB := filepath.Join(dir, "b.db")
	dst := filepath.Join(dir, "merged.db")
	ctx := context.Background()

	seedDatabase(t, srcA, func(st *Store) {
		logWord(t, st, "hello", 0, time.Second)
		if _, err := st.LogChord(ctx, "the", base); err != nil {
			t.Fatalf("log chord: %v", err)
		}
		if _, err := st.BanWord(ctx, "spam", model.Insensitive, base); err != nil {
			t.Fatalf("ban: %v", err)
		}
	})
	seedDatabase(t, srcB, func(st *Store) {
		logWord(t, st, "hello", time.Hour, 3*time.Second)
		logWord(t, st, "world", time.Minute, 2*time.Second)
		if _, err := st.LogChord(ctx, "the", base.Add(time.Hour)); err != nil {
			t.Fatalf("log chord: %v", err)
		}
		if _, err := st.BanWord(ctx, "spam", model.Insensitive, base.Add(24*time.Hour)); err != nil {
			t.Fatalf("ban: %v", err)
		}
	})

	if err := MergeDatabases(ctx, srcA, srcB, dst, model.KeepNewer); err != nil {
		t.Fatalf("merge: %v", err)
	}

	out, err := Open(dst)
	if err != nil {
		t.Fatalf("open merged: %v", err)
	}
	defer func() {
		_ = out.Close()
	}()

	hello, err := out.GetWordMetadata(ctx, "hello", model.Sensitive)
	if err != nil || hello == nil {
		t.Fatalf("expected merged hello, got %+v (%v)", hello, err)
	}
	if hello.Frequency != 2 || hello.AverageSpeed != 2*time.Second || !hello.LastUsed.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected merged hello: %+v", hello)
	}
	if n, _ := out.NumWords(ctx, model.Sensitive); n != 2 {
		t.Fatalf("expected 2 words, got %d", n)
	}
	chord, err := out.GetChordMetadata(ctx, "the", model.Sensitive)
	if err != nil || chord == nil || chord.Frequency != 2 {
		t.Fatalf("unexpected merged chord: %+v (%v)", chord, err)
	}
	bans, err := out.ListBanned(ctx, model.SortText, false, 0)
	if err != nil || len(bans) != 1 {
		t.Fatalf("expected one ban, got %+v (%v)", bans, err)
	}
	if !bans[0].DateAdded.Equal(base.Add(24 * time.Hour)) {
		t.Fatalf("expected newer ban date, got %v", bans[0].DateAdded)
	}
}

func TestMergeDatabasesKeepsOlderBan(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.db")
	srcB := filepath.Join(dir, "b.db")
	dst := filepath.Join(dir, "merged.db")
	ctx := context.Background()

	seedDatabase(t, srcA, func(st *Store) {
		if _, err := st.BanWord(ctx, "x", model.Sensitive, base.Add(time.Hour)); err != nil {
			t.Fatalf("ban: %v", err)
		}
	})
	seedDatabase(t, srcB, func(st *Store) {
		if _, err := st.BanWord(ctx, "x", model.Sensitive, base); err != nil {
			t.Fatalf("ban: %v", err)
		}
	})
	if err := MergeDatabases(ctx, srcA, srcB, dst, model.KeepOlder); err != nil {
		t.Fatalf("merge: %v", err)
	}
	out, err := Open(dst)
	if err != nil {
		t.Fatalf("open merged: %v", err)
	}
	defer func() {
		_ = out.Close()
	}()
	bans, err := out.ListBanned(ctx, model.SortText, false, 0)
	if err != nil || len(bans) != 1 || !bans[0].DateAdded.Equal(base) {
		t.Fatalf("expected older ban date, got %+v (%v)", bans, err)
	}
}

func TestMergeDatabasesRejectsBadPaths(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.db")
	srcB := filepath.Join(dir, "b.db")
	seedDatabase(t, srcA, func(*Store) {})
	seedDatabase(t, srcB, func(*Store) {})
	ctx := context.Background()

	if err := MergeDatabases(ctx, srcA, srcA, filepath.Join(dir, "out.db"), model.KeepOlder); !errors.Is(err, ErrSamePath) {
		t.Fatalf("expected ErrSamePath, got %v", err)
	}
	if err := MergeDatabases(ctx, srcA, srcB, srcB, model.KeepOlder); !errors.Is(err, ErrSamePath) {
		t.Fatalf("expected ErrSamePath for dst, got %v", err)
	}
	existing := filepath.Join(dir, "existing.db")
	seedDatabase(t, existing, func(*Store) {})
	if err := MergeDatabases(ctx, srcA, srcB, existing, model.KeepOlder); err == nil {
		t.Fatalf("expected error for existing destination")
	}
	if err := MergeDatabases(ctx, srcA, filepath.Join(dir, "missing.db"), filepath.Join(dir, "out.db"), model.KeepOlder); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestMergeDatabasesDropsEntriesCoveredByBans(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.db")
	srcB := filepath.Join(dir, "b.db")
	dst := filepath.Join(dir, "merged.db")
	ctx := context.Background()

	seedDatabase(t, srcA, func(st *Store) {
		logWord(t, st, "Spam", 0, time.Second)
		logWord(t, st, "Eggs", 0, time.Second)
		logWord(t, st, "ham", 0, time.Second)
		if _, err := st.LogChord(ctx, "SPAM", base); err != nil {
			t.Fatalf("log chord: %v", err)
		}
	})
	seedDatabase(t, srcB, func(st *Store) {
		if _, err := st.BanWord(ctx, "spam", model.Insensitive, base); err != nil {
			t.Fatalf("ban: %v", err)
		}
		if _, err := st.BanWord(ctx, "eggs", model.FirstChar, base); err != nil {
			t.Fatalf("ban: %v", err)
		}
	})

	if err := MergeDatabases(ctx, srcA, srcB, dst, model.KeepOlder); err != nil {
		t.Fatalf("merge: %v", err)
	}
	out, err := Open(dst)
	if err != nil {
		t.Fatalf("open merged: %v", err)
	}
	defer func() {
		_ = out.Close()
	}()

	tests := []struct {
		word string
		mode model.CaseMode
	}{
		{word: "spam", mode: model.Insensitive},
		{word: "eggs", mode: model.FirstChar},
	}
	for _, tt := range tests {
		banned, err := out.CheckBanned(ctx, tt.word, tt.mode)
		if err != nil || !banned {
			t.Fatalf("expected %q banned, got %v (%v)", tt.word, banned, err)
		}
		got, err := out.GetWordMetadata(ctx, tt.word, tt.mode)
		if err != nil {
			t.Fatalf("get %q: %v", tt.word, err)
		}
		if got != nil {
			t.Fatalf("expected no stats for banned %q, got %+v", tt.word, got)
		}
	}
	chord, err := out.GetChordMetadata(ctx, "spam", model.Insensitive)
	if err != nil || chord != nil {
		t.Fatalf("expected no chord stats for banned text, got %+v (%v)", chord, err)
	}
	if n, _ := out.NumWords(ctx, model.Sensitive); n != 1 {
		t.Fatalf("expected only ham to remain, got %d words", n)
	}
}

func TestMergeDatabasesLeavesSourcesUntouched(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.db")
	srcB := filepath.Join(dir, "b.db")
	ctx := context.Background()

	seedDatabase(t, srcA, func(st *Store) {
		logWord(t, st, "hello", 0, time.Second)
	})
	seedDatabase(t, srcB, func(st *Store) {
		if _, err := st.BanWord(ctx, "hello", model.Sensitive, base); err != nil {
			t.Fatalf("ban: %v", err)
		}
	})
	before := map[string][]byte{}
	for _, src := range []string{srcA, srcB} {
		data, err := os.ReadFile(src)
		if err != nil {
			t.Fatalf("read %s: %v", src, err)
		}
		before[src] = data
	}

	if err := MergeDatabases(ctx, srcA, srcB, filepath.Join(dir, "merged.db"), model.KeepOlder); err != nil {
		t.Fatalf("merge: %v", err)
	}
	for _, src := range []string{srcA, srcB} {
		data, err := os.ReadFile(src)
		if err != nil {
			t.Fatalf("read %s: %v", src, err)
		}
		if !bytes.Equal(before[src], data) {
			t.Fatalf("merge modified source %s", src)
		}
	}

	st, err := openReadOnly(ctx, srcA)
	if err != nil {
		t.Fatalf("reopen source: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	hello, err := st.GetWordMetadata(ctx, "hello", model.Sensitive)
	if err != nil || hello == nil {
		t.Fatalf("expected source stats kept, got %+v (%v)", hello, err)
	}
}

func TestMergeDatabasesRejectsNewerSource(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.db")
	srcB := filepath.Join(dir, "b.db")
	dst := filepath.Join(dir, "merged.db")
	seedDatabase(t, srcA, func(*Store) {})
	seedDatabase(t, srcB, func(st *Store) {
		if _, err := st.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion+1)); err != nil {
			t.Fatalf("bump version: %v", err)
		}
	})

	if err := MergeDatabases(context.Background(), srcA, srcB, dst, model.KeepOlder); !errors.Is(err, ErrNewerSchema) {
		t.Fatalf("expected ErrNewerSchema, got %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no destination after failed merge, got %v", err)
	}
}
