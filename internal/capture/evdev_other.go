//go:build !linux

package capture

import (
	"context"

	"go.uber.org/zap"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/queue"
)

// FindKeyboards is only supported on Linux.
func FindKeyboards() ([]string, error) {
	return nil, ErrUnavailable
}

// Reader is a stub on platforms without evdev.
type Reader struct{}

// NewReader returns a reader whose Run always fails with ErrUnavailable.
func NewReader([]string, *queue.Queue[model.InputEvent], *zap.SugaredLogger) *Reader {
	return &Reader{}
}

// Run reports that live capture is unavailable.
func (r *Reader) Run(context.Context) error {
	return ErrUnavailable
}
