//go:build linux

package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/queue"
)

const (
	eventSize = 24
	evKey     = 1
)

// FindKeyboards returns the event devices that look like keyboards.
func FindKeyboards() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	devices, err := parseKeyboards(f)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no keyboard devices found", ErrUnavailable)
	}
	return devices, nil
}

// Reader streams key events from evdev devices into a queue.
type Reader struct {
	devices []string
	events  *queue.Queue[model.InputEvent]
	logger  *zap.SugaredLogger
}

// NewReader reads from devices, or from every detected keyboard when devices is empty.
func NewReader(devices []string, events *queue.Queue[model.InputEvent], logger *zap.SugaredLogger) *Reader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Reader{devices: devices, events: events, logger: logger}
}

// Run reads until ctx is cancelled or every device fails.
func (r *Reader) Run(ctx context.Context) error {
	devices := r.devices
	if len(devices) == 0 {
		found, err := FindKeyboards()
		if err != nil {
			return err
		}
		devices = found
	}

	var files []*os.File
	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			r.logger.Warnw("cannot open input device", "device", dev, "error", err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no readable input device (need read access to /dev/input)", ErrUnavailable)
	}

	var wg sync.WaitGroup
	for _, f := range files {
		wg.Add(1)
		go func(f *os.File) {
			defer wg.Done()
			r.logger.Infow("reading input device", "device", f.Name())
			if err := r.read(f); err != nil && ctx.Err() == nil {
				r.logger.Warnw("input device stopped", "device", f.Name(), "error", err)
			}
		}(f)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		// Closing unblocks the pending reads.
		for _, f := range files {
			if cerr := f.Close(); cerr != nil {
				_ = cerr
			}
		}
		<-done
		return nil
	case <-done:
		for _, f := range files {
			if cerr := f.Close(); cerr != nil {
				_ = cerr
			}
		}
		return errors.New("all input devices stopped")
	}
}

func (r *Reader) read(f io.Reader) error {
	keymap := NewKeymap()
	buf := make([]byte, eventSize)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			return err
		}
		ev, ok := decodeEvent(buf, keymap)
		if !ok {
			continue
		}
		if !r.events.Enqueue(ev) {
			return nil
		}
	}
}

// decodeEvent decodes one 64-bit struct input_event. Autorepeat counts as a press.
func decodeEvent(buf []byte, keymap *Keymap) (model.InputEvent, bool) {
	if binary.LittleEndian.Uint16(buf[16:18]) != evKey {
		return model.InputEvent{}, false
	}
	sec := int64(binary.LittleEndian.Uint64(buf[0:8]))
	usec := int64(binary.LittleEndian.Uint64(buf[8:16]))
	code := binary.LittleEndian.Uint16(buf[18:20])
	value := int32(binary.LittleEndian.Uint32(buf[20:24]))

	action := model.Press
	if value == 0 {
		action = model.Release
	}
	return model.InputEvent{
		Action: action,
		Key:    keymap.Translate(code, action),
		Time:   time.Unix(sec, usec*int64(time.Microsecond)),
	}, true
}
