package engine

import (
	"time"
	"unicode"
)

// pendingEntry accumulates the word or chord being typed. Only the consumer goroutine touches it.
type pendingEntry struct {
	buf       []rune
	start     time.Time
	end       time.Time
	chars     int
	avgGap    time.Duration
	avgSet    bool
	modifiers map[string]struct{}
}

func newPendingEntry() pendingEntry {
	return pendingEntry{modifiers: map[string]struct{}{}}
}

func (p *pendingEntry) empty() bool {
	return len(p.buf) == 0
}

// append adds r typed at ts and folds the gap since the previous character into the running average.
func (p *pendingEntry) append(r rune, ts time.Time) {
	if p.empty() {
		p.start = ts
	}
	p.buf = append(p.buf, r)
	p.chars++
	n := p.chars
	switch {
	case n > 1 && p.avgSet:
		gap := ts.Sub(p.end)
		p.avgGap = (p.avgGap*time.Duration(n-1) + gap) / time.Duration(n)
	case n > 1:
		p.avgGap = ts.Sub(p.end)
		p.avgSet = true
	}
	p.end = ts
}

// backspace removes the last character, or the last word when wholeWord is set,
// and starts a fresh timing window.
func (p *pendingEntry) backspace(wholeWord bool) {
	if p.empty() {
		return
	}
	if wholeWord {
		i := len(p.buf)
		for i > 0 && unicode.IsSpace(p.buf[i-1]) {
			i--
		}
		for i > 0 && !unicode.IsSpace(p.buf[i-1]) {
			i--
		}
		p.buf = p.buf[:i]
	} else {
		p.buf = p.buf[:len(p.buf)-1]
	}
	p.chars = 0
	p.avgGap = 0
	p.avgSet = false
	if p.empty() {
		p.start = time.Time{}
		p.end = time.Time{}
	}
}

// reset clears the buffer and timing but keeps held modifiers.
func (p *pendingEntry) reset() {
	p.buf = p.buf[:0]
	p.start = time.Time{}
	p.end = time.Time{}
	p.chars = 0
	p.avgGap = 0
	p.avgSet = false
}

func (p *pendingEntry) holding(keys map[string]struct{}) bool {
	for name := range p.modifiers {
		if _, ok := keys[name]; ok {
			return true
		}
	}
	return false
}
