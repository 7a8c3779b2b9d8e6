// Package engine turns a stream of key events into classified words and chords.
package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/verte-zerg/freqlog/internal/config"
	"github.com/verte-zerg/freqlog/internal/metrics"
	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/queue"
)

// Gateway persists flushed entries. Both methods return false when the text is banned.
type Gateway interface {
	LogWord(ctx context.Context, word string, start, end time.Time) (bool, error)
	LogChord(ctx context.Context, chord string, end time.Time) (bool, error)
}

// ChordSource lists chords known to the input hardware.
// ok is false when no list is available, in which case timing alone decides.
type ChordSource interface {
	KnownChords() (chords map[string]struct{}, ok bool)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithChordSource enables the known-chord cross-check.
func WithChordSource(src ChordSource) Option {
	return func(e *Engine) {
		e.chords = src
	}
}

// WithMetrics records flushes and outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now for timeout accounting.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine is the single consumer of the event queue. It owns the pending entry exclusively.
type Engine struct {
	cfg     model.EngineConfig
	events  *queue.Queue[model.InputEvent]
	gateway Gateway
	chords  ChordSource
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
	now     func() time.Time

	pending      pendingEntry
	lastAccepted time.Time
}

// New validates cfg and builds an engine reading from events.
func New(cfg model.EngineConfig, events *queue.Queue[model.InputEvent], gateway Gateway, opts ...Option) (*Engine, error) {
	if err := config.ValidateEngine(cfg); err != nil {
		return nil, err
	}
	if events == nil || gateway == nil {
		return nil, errors.New("engine: queue and gateway are required")
	}
	e := &Engine{
		cfg:     cfg,
		events:  events,
		gateway: gateway,
		logger:  zap.NewNop().Sugar(),
		now:     time.Now,
		pending: newPendingEntry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Stop closes the queue. Run drains what was already queued, flushes and returns.
func (e *Engine) Stop() {
	e.events.Close()
}

// Run consumes events until ctx is cancelled or Stop is called.
// On exit it drains the queue, flushes the pending entry and closes the gateway if it is an io.Closer.
func (e *Engine) Run(ctx context.Context) error {
	persistCtx := context.WithoutCancel(ctx)
	e.logger.Infow("engine started",
		"new_word_threshold", e.cfg.NewWordThreshold,
		"chord_char_threshold", e.cfg.ChordCharThreshold,
		"min_length", e.cfg.MinEntryLength)

	for {
		ev, err := e.events.Dequeue(ctx, e.wait())
		switch {
		case err == nil:
			e.handle(persistCtx, ev)
		case errors.Is(err, queue.ErrEmpty):
			e.checkTimeout(persistCtx)
		default:
			// Closed queue or cancelled context: both mean stop.
			return e.shutdown(persistCtx)
		}
	}
}

// wait bounds the next dequeue so a pending entry times out on schedule and stop is seen promptly.
func (e *Engine) wait() time.Duration {
	wait := e.cfg.PollInterval
	if e.pending.empty() {
		return wait
	}
	remaining := e.cfg.NewWordThreshold - e.now().Sub(e.lastAccepted)
	if remaining < wait {
		wait = max(remaining, time.Millisecond)
	}
	return wait
}

func (e *Engine) checkTimeout(ctx context.Context) {
	if e.pending.empty() {
		return
	}
	if e.now().Sub(e.lastAccepted) >= e.cfg.NewWordThreshold {
		e.flush(ctx, metrics.ReasonTimeout)
	}
}

func (e *Engine) shutdown(ctx context.Context) error {
	for {
		ev, ok := e.events.TryDequeue()
		if !ok {
			break
		}
		e.handle(ctx, ev)
	}
	if !e.pending.empty() {
		e.flush(ctx, metrics.ReasonStop)
	}
	e.logger.Infow("engine stopped")
	if closer, ok := e.gateway.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// handle applies the transition rules to one event, in priority order.
func (e *Engine) handle(ctx context.Context, ev model.InputEvent) {
	key := ev.Key
	p := &e.pending

	if key.Kind == model.KeyModifier {
		if ev.Action == model.Release {
			delete(p.modifiers, key.Name)
		} else if _, ok := e.cfg.ModifierKeys[key.Name]; ok {
			p.modifiers[key.Name] = struct{}{}
		}
		return
	}
	if ev.Action != model.Press {
		return
	}

	switch {
	case key.Kind == model.KeyBackspace:
		p.backspace(p.holding(e.cfg.DeleteWordModifiers))
		if !p.empty() {
			e.lastAccepted = e.now()
		}
	case key.IsWhitespace():
		if p.empty() {
			return
		}
		if !e.cfg.EmbedChordWhitespace || e.slow(ev.Time) {
			e.flush(ctx, metrics.ReasonWhitespace)
			return
		}
		p.append(key.Char, ev.Time)
		e.lastAccepted = e.now()
	case !e.allowed(key):
		if !p.empty() {
			e.flush(ctx, metrics.ReasonKey)
		}
	case p.holding(e.cfg.ModifierKeys):
		// Shortcut such as ctrl+c: neither typed nor a boundary.
	default:
		if !p.empty() && ev.Time.Sub(p.end) > e.cfg.NewWordThreshold {
			e.flush(ctx, metrics.ReasonGap)
		}
		p.append(key.Char, ev.Time)
		e.lastAccepted = e.now()
	}
}

func (e *Engine) allowed(key model.Key) bool {
	if key.Kind != model.KeyChar {
		return false
	}
	_, ok := e.cfg.AllowedChordChars[key.Char]
	return ok
}

// slow reports whether typing so far was deliberate. Without an average yet,
// the gap before the whitespace decides.
func (e *Engine) slow(ts time.Time) bool {
	p := &e.pending
	if p.avgSet {
		return p.avgGap > e.cfg.ChordCharThreshold
	}
	return ts.Sub(p.end) > e.cfg.ChordCharThreshold
}

// classify returns Chord only for bursts faster than the chord threshold.
func (e *Engine) classify(text string) model.EntryKind {
	p := &e.pending
	if !p.avgSet || p.avgGap > e.cfg.ChordCharThreshold {
		return model.Word
	}
	if e.chords != nil {
		if known, ok := e.chords.KnownChords(); ok {
			if _, found := known[text]; !found {
				return model.Word
			}
		}
	}
	return model.Chord
}

// flush finalizes the pending entry, hands it to the gateway and always resets.
func (e *Engine) flush(ctx context.Context, reason string) {
	defer e.pending.reset()
	e.metrics.Flushed(reason)

	text := strings.TrimSpace(string(e.pending.buf))
	if utf8.RuneCountInString(text) < e.cfg.MinEntryLength {
		e.metrics.Discarded()
		e.logger.Debugw("entry discarded", "text", text, "reason", reason)
		return
	}
	entry := model.Entry{
		Text:  text,
		Kind:  e.classify(text),
		Start: e.pending.start,
		End:   e.pending.end,
	}

	var logged bool
	var err error
	switch entry.Kind {
	case model.Chord:
		logged, err = e.gateway.LogChord(ctx, entry.Text, entry.End)
	default:
		logged, err = e.gateway.LogWord(ctx, entry.Text, entry.Start, entry.End)
	}
	switch {
	case err != nil:
		e.metrics.PersistError()
		e.logger.Errorw("failed to persist entry", "text", entry.Text, "kind", entry.Kind.String(), "error", err)
	case !logged:
		e.metrics.Banned()
		e.logger.Debugw("banned entry skipped", "kind", entry.Kind.String())
	default:
		e.metrics.EntryLogged(entry.Kind.String())
		e.logger.Debugw("entry logged",
			"text", entry.Text,
			"kind", entry.Kind.String(),
			"start", entry.Start,
			"end", entry.End,
			"reason", reason)
	}
}
