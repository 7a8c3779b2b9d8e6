package model

import "testing"

func TestCaseModeFold(t *testing.T) {
	cases := []struct {
		mode CaseMode
		in   string
		want string
	}{
		{Sensitive, "HeLLo", "HeLLo"},
		{FirstChar, "HeLLo", "heLLo"},
		{FirstChar, "Élan", "élan"},
		{FirstChar, "", ""},
		{Insensitive, "HeLLo", "hello"},
	}
	for _, tc := range cases {
		if got := tc.mode.Fold(tc.in); got != tc.want {
			t.Fatalf("%s.Fold(%q) = %q, want %q", tc.mode, tc.in, got, tc.want)
		}
	}
}

func TestCaseModeCovers(t *testing.T) {
	if !Insensitive.Covers(Sensitive) || !FirstChar.Covers(Sensitive) || !Insensitive.Covers(FirstChar) {
		t.Fatalf("coarser modes must cover finer ones")
	}
	if Sensitive.Covers(FirstChar) || FirstChar.Covers(Insensitive) {
		t.Fatalf("finer modes must not cover coarser ones")
	}
}

func TestParseCaseMode(t *testing.T) {
	for _, mode := range CaseModes {
		got, err := ParseCaseMode(mode.String())
		if err != nil || got != mode {
			t.Fatalf("round trip %s: got %v, %v", mode, got, err)
		}
	}
	if got, err := ParseCaseMode(""); err != nil || got != Insensitive {
		t.Fatalf("expected empty to default to insensitive, got %v, %v", got, err)
	}
	if _, err := ParseCaseMode("upper"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestParseSortField(t *testing.T) {
	if got, err := ParseSortField("freq"); err != nil || got != SortFrequency {
		t.Fatalf("unexpected freq parse: %v, %v", got, err)
	}
	if _, err := ParseSortField("length"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestCharKeyWhitespace(t *testing.T) {
	if k := CharKey(' '); k.Kind != KeySpace || !k.IsWhitespace() {
		t.Fatalf("space not classified: %+v", k)
	}
	if k := CharKey('\r'); k.Kind != KeyEnter {
		t.Fatalf("carriage return not enter: %+v", k)
	}
	if k := CharKey('a'); k.Kind != KeyChar || k.IsWhitespace() || k.String() != "a" {
		t.Fatalf("unexpected char key: %+v", k)
	}
}

func TestScore(t *testing.T) {
	w := WordMetadata{Word: "héllo", Frequency: 3}
	if w.Score() != 15 {
		t.Fatalf("expected score 15, got %d", w.Score())
	}
}
