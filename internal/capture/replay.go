package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/queue"
)

// RecordedEvent is one line of a replay file.
type RecordedEvent struct {
	Action string    `json:"action"`
	Key    string    `json:"key"`
	Time   time.Time `json:"time"`
}

// Event converts the record into an input event.
func (r RecordedEvent) Event() (model.InputEvent, error) {
	var action model.Action
	switch strings.ToLower(r.Action) {
	case "press":
		action = model.Press
	case "release":
		action = model.Release
	default:
		return model.InputEvent{}, fmt.Errorf("unknown action %q", r.Action)
	}
	if r.Key == "" {
		return model.InputEvent{}, errors.New("missing key")
	}
	if r.Time.IsZero() {
		return model.InputEvent{}, errors.New("missing time")
	}
	return model.InputEvent{Action: action, Key: KeyByName(r.Key), Time: r.Time}, nil
}

// Replay reads JSON lines from r and enqueues each event in order.
// Blank lines are skipped. It returns the number of events enqueued.
func Replay(ctx context.Context, r io.Reader, q *queue.Queue[model.InputEvent]) (int, error) {
	scanner := bufio.NewScanner(r)
	count := 0
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return count, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec RecordedEvent
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		ev, err := rec.Event()
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if !q.Enqueue(ev) {
			return count, errors.New("event queue closed")
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}
