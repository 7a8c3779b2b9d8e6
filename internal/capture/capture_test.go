package capture

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/queue"
)

func TestKeyByName(t *testing.T) {
	cases := []struct {
		name string
		want model.Key
	}{
		{"a", model.CharKey('a')},
		{"A", model.CharKey('A')},
		{"é", model.CharKey('é')},
		{" ", model.CharKey(' ')},
		{"space", model.CharKey(' ')},
		{"Tab", model.CharKey('\t')},
		{"return", model.CharKey('\n')},
		{"backspace", model.Key{Kind: model.KeyBackspace, Name: "backspace"}},
		{"ctrl_l", model.ModifierKey("ctrl_l")},
		{"Shift", model.ModifierKey("shift")},
		{"button_left", model.Key{Kind: model.KeyButton, Name: "button_left"}},
		{"esc", model.Key{Kind: model.KeyOther, Name: "esc"}},
	}
	for _, tc := range cases {
		if got := KeyByName(tc.name); got != tc.want {
			t.Errorf("KeyByName(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestReplay(t *testing.T) {
	input := strings.Join([]string{
		`{"action":"press","key":"h","time":"2024-03-01T12:00:00Z"}`,
		``,
		`{"action":"release","key":"h","time":"2024-03-01T12:00:00.050Z"}`,
		`{"action":"press","key":"space","time":"2024-03-01T12:00:00.100Z"}`,
	}, "\n")
	q := queue.New[model.InputEvent]()
	n, err := Replay(context.Background(), strings.NewReader(input), q)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 3 || q.Len() != 3 {
		t.Fatalf("expected 3 events, got %d (queue %d)", n, q.Len())
	}

	first, _ := q.TryDequeue()
	want := model.InputEvent{Action: model.Press, Key: model.CharKey('h'), Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	if first.Action != want.Action || first.Key != want.Key || !first.Time.Equal(want.Time) {
		t.Fatalf("unexpected first event: %+v", first)
	}
	second, _ := q.TryDequeue()
	if second.Action != model.Release {
		t.Fatalf("expected release, got %v", second.Action)
	}
	third, _ := q.TryDequeue()
	if !third.Key.IsWhitespace() {
		t.Fatalf("expected space, got %+v", third.Key)
	}
}

func TestReplayErrors(t *testing.T) {
	cases := map[string]string{
		"bad json":       `{"action":`,
		"unknown action": `{"action":"hold","key":"a","time":"2024-03-01T12:00:00Z"}`,
		"missing key":    `{"action":"press","time":"2024-03-01T12:00:00Z"}`,
		"missing time":   `{"action":"press","key":"a"}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			q := queue.New[model.InputEvent]()
			if _, err := Replay(context.Background(), strings.NewReader(line), q); err == nil {
				t.Fatalf("expected error")
			} else if !strings.Contains(err.Error(), "line 1") {
				t.Fatalf("expected line number in error, got %v", err)
			}
		})
	}
}

func TestReplayClosedQueue(t *testing.T) {
	q := queue.New[model.InputEvent]()
	q.Close()
	line := `{"action":"press","key":"a","time":"2024-03-01T12:00:00Z"}`
	if _, err := Replay(context.Background(), strings.NewReader(line), q); err == nil {
		t.Fatalf("expected error for closed queue")
	}
}

func TestKeymapShiftAndCapsLock(t *testing.T) {
	k := NewKeymap()
	if got := k.Translate(30, model.Press); got != model.CharKey('a') {
		t.Fatalf("expected a, got %+v", got)
	}
	if got := k.Translate(codeLeftShift, model.Press); got != model.ModifierKey("shift_l") {
		t.Fatalf("expected shift modifier, got %+v", got)
	}
	if got := k.Translate(30, model.Press); got != model.CharKey('A') {
		t.Fatalf("expected A, got %+v", got)
	}
	if got := k.Translate(3, model.Press); got != model.CharKey('@') {
		t.Fatalf("expected @, got %+v", got)
	}
	k.Translate(codeLeftShift, model.Release)
	if got := k.Translate(3, model.Press); got != model.CharKey('2') {
		t.Fatalf("expected 2, got %+v", got)
	}

	k.Translate(codeCapsLock, model.Press)
	k.Translate(codeCapsLock, model.Release)
	if got := k.Translate(30, model.Press); got != model.CharKey('A') {
		t.Fatalf("expected caps lock A, got %+v", got)
	}
	if got := k.Translate(3, model.Press); got != model.CharKey('2') {
		t.Fatalf("caps lock must not shift digits, got %+v", got)
	}
	k.Translate(codeRightShift, model.Press)
	if got := k.Translate(30, model.Press); got != model.CharKey('a') {
		t.Fatalf("expected shift to undo caps lock, got %+v", got)
	}
}

func TestKeymapNamedKeys(t *testing.T) {
	k := NewKeymap()
	if got := k.Translate(codeBackspace, model.Press); got.Kind != model.KeyBackspace {
		t.Fatalf("expected backspace, got %+v", got)
	}
	if got := k.Translate(codeSpace, model.Press); got.Kind != model.KeySpace {
		t.Fatalf("expected space, got %+v", got)
	}
	if got := k.Translate(codeBtnLeft, model.Press); got.Kind != model.KeyButton {
		t.Fatalf("expected button, got %+v", got)
	}
	if got := k.Translate(1, model.Press); got.Kind != model.KeyOther {
		t.Fatalf("expected escape to be other, got %+v", got)
	}
}

func TestParseKeyboards(t *testing.T) {
	input := `I: Bus=0011 Vendor=0001 Product=0001 Version=ab41
N: Name="AT Translated Set 2 keyboard"
P: Phys=isa0060/serio0/input0
H: Handlers=sysrq kbd event3 leds
B: EV=120013
B: KEY=402000000 3803078f800d001 feffffdfffefffff fffffffffffffffe

I: Bus=0011 Vendor=0002 Product=0013 Version=0006
N: Name="ImPS/2 Logitech Wheel Mouse"
H: Handlers=mouse0 event4
B: EV=7
B: KEY=70000 0 0 0 0

I: Bus=0019 Vendor=0000 Product=0001 Version=0000
N: Name="Power Button"
H: Handlers=kbd event0
B: EV=3
B: KEY=10000000000000 0
`
	devices, err := parseKeyboards(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(devices) != 1 || devices[0] != "/dev/input/event3" {
		t.Fatalf("expected only event3, got %v", devices)
	}
}
