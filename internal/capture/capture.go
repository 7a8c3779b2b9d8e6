// Package capture feeds recorded or live key events into the event queue.
package capture

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/freqlog/internal/model"
)

// ErrUnavailable is returned when live capture is not supported on this platform or device.
var ErrUnavailable = errors.New("live capture unavailable")

var modifierNames = map[string]struct{}{
	"ctrl": {}, "ctrl_l": {}, "ctrl_r": {},
	"alt": {}, "alt_l": {}, "alt_r": {}, "alt_gr": {},
	"cmd": {}, "cmd_l": {}, "cmd_r": {},
	"shift": {}, "shift_l": {}, "shift_r": {},
	"caps_lock": {},
}

// KeyByName maps a recorded key name to a key. A single character is a character
// key; named keys follow the lowercase names used by the modifier configuration.
func KeyByName(name string) model.Key {
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return model.CharKey(r)
	}
	lower := strings.ToLower(name)
	switch lower {
	case "space":
		return model.CharKey(' ')
	case "tab":
		return model.CharKey('\t')
	case "enter", "return":
		return model.CharKey('\n')
	case "backspace":
		return model.Key{Kind: model.KeyBackspace, Name: "backspace"}
	}
	if _, ok := modifierNames[lower]; ok {
		return model.ModifierKey(lower)
	}
	if strings.HasPrefix(lower, "button") {
		return model.Key{Kind: model.KeyButton, Name: lower}
	}
	return model.Key{Kind: model.KeyOther, Name: lower}
}
