package capture

import "github.com/verte-zerg/freqlog/internal/model"

// Linux input event codes used by the US keymap.
const (
	codeBackspace  = 14
	codeTab        = 15
	codeEnter      = 28
	codeLeftCtrl   = 29
	codeLeftShift  = 42
	codeRightShift = 54
	codeLeftAlt    = 56
	codeSpace      = 57
	codeCapsLock   = 58
	codeKPEnter    = 96
	codeRightCtrl  = 97
	codeRightAlt   = 100
	codeLeftMeta   = 125
	codeRightMeta  = 126
	codeBtnLeft    = 0x110
	codeBtnRight   = 0x111
	codeBtnMiddle  = 0x112
)

// usKeys maps printable key codes to their plain and shifted characters.
var usKeys = map[uint16][2]rune{
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'}, 6: {'5', '%'},
	7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'}, 10: {'9', '('}, 11: {'0', ')'},
	12: {'-', '_'}, 13: {'=', '+'},
	16: {'q', 'Q'}, 17: {'w', 'W'}, 18: {'e', 'E'}, 19: {'r', 'R'}, 20: {'t', 'T'},
	21: {'y', 'Y'}, 22: {'u', 'U'}, 23: {'i', 'I'}, 24: {'o', 'O'}, 25: {'p', 'P'},
	26: {'[', '{'}, 27: {']', '}'},
	30: {'a', 'A'}, 31: {'s', 'S'}, 32: {'d', 'D'}, 33: {'f', 'F'}, 34: {'g', 'G'},
	35: {'h', 'H'}, 36: {'j', 'J'}, 37: {'k', 'K'}, 38: {'l', 'L'},
	39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'}, 43: {'\\', '|'},
	44: {'z', 'Z'}, 45: {'x', 'X'}, 46: {'c', 'C'}, 47: {'v', 'V'}, 48: {'b', 'B'},
	49: {'n', 'N'}, 50: {'m', 'M'},
	51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'},
}

var namedKeys = map[uint16]model.Key{
	codeBackspace:  {Kind: model.KeyBackspace, Name: "backspace"},
	codeTab:        model.CharKey('\t'),
	codeEnter:      model.CharKey('\n'),
	codeKPEnter:    model.CharKey('\n'),
	codeSpace:      model.CharKey(' '),
	codeLeftCtrl:   model.ModifierKey("ctrl_l"),
	codeRightCtrl:  model.ModifierKey("ctrl_r"),
	codeLeftShift:  model.ModifierKey("shift_l"),
	codeRightShift: model.ModifierKey("shift_r"),
	codeLeftAlt:    model.ModifierKey("alt_l"),
	codeRightAlt:   model.ModifierKey("alt_gr"),
	codeLeftMeta:   model.ModifierKey("cmd_l"),
	codeRightMeta:  model.ModifierKey("cmd_r"),
	codeCapsLock:   model.ModifierKey("caps_lock"),
	codeBtnLeft:    {Kind: model.KeyButton, Name: "button_left"},
	codeBtnRight:   {Kind: model.KeyButton, Name: "button_right"},
	codeBtnMiddle:  {Kind: model.KeyButton, Name: "button_middle"},
}

// Keymap turns key codes into keys, tracking shift and caps lock for one device.
type Keymap struct {
	shift    map[uint16]struct{}
	capsLock bool
}

// NewKeymap returns a US keymap with no modifiers held.
func NewKeymap() *Keymap {
	return &Keymap{shift: map[uint16]struct{}{}}
}

// Translate maps a code and action to a key, updating modifier state.
// Unknown codes map to KeyOther so they still end the pending entry.
func (k *Keymap) Translate(code uint16, action model.Action) model.Key {
	switch code {
	case codeLeftShift, codeRightShift:
		if action == model.Press {
			k.shift[code] = struct{}{}
		} else {
			delete(k.shift, code)
		}
	case codeCapsLock:
		if action == model.Press {
			k.capsLock = !k.capsLock
		}
	}
	if key, ok := namedKeys[code]; ok {
		return key
	}
	pair, ok := usKeys[code]
	if !ok {
		return model.Key{Kind: model.KeyOther}
	}
	shifted := len(k.shift) > 0
	if k.capsLock && pair[0] >= 'a' && pair[0] <= 'z' {
		shifted = !shifted
	}
	if shifted {
		return model.CharKey(pair[1])
	}
	return model.CharKey(pair[0])
}
