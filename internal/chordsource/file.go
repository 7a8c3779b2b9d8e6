package chordsource

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// File is a chord source backed by a text file and reloaded when the file changes.
type File struct {
	path   string
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	chords map[string]struct{}

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewFile creates a source for path. Call Load or Start before use.
func NewFile(path string, logger *zap.SugaredLogger) *File {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &File{
		path:   path,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// KnownChords returns the current chord set. ok is false while no list could be read.
func (f *File) KnownChords() (map[string]struct{}, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.chords, f.chords != nil
}

// Load reads the file. On failure the source becomes unavailable.
func (f *File) Load() error {
	chords, err := LoadChords(f.path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.chords = nil
		return err
	}
	set := make(map[string]struct{}, len(chords))
	for _, c := range chords {
		set[c] = struct{}{}
	}
	f.chords = set
	return nil
}

// Start loads the file and reloads it whenever it is written, created or replaced.
// A missing or unreadable file only disables the cross-check.
func (f *File) Start() error {
	if err := f.Load(); err != nil {
		f.logger.Warnw("chord list unavailable", "path", f.path, "error", err)
	} else {
		f.logger.Infow("chord list loaded", "path", f.path, "chords", f.count())
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory so editors that replace the file are seen.
	if err := fsw.Add(filepath.Dir(f.path)); err != nil {
		if cerr := fsw.Close(); cerr != nil {
			_ = cerr
		}
		return err
	}

	name := filepath.Clean(f.path)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if cerr := fsw.Close(); cerr != nil {
				_ = cerr
			}
		}()
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := f.Load(); err != nil {
					f.logger.Warnw("chord list reload failed", "path", f.path, "error", err)
					continue
				}
				f.logger.Infow("chord list reloaded", "path", f.path, "chords", f.count())
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				f.logger.Warnw("chord list watcher error", "error", err)
			case <-f.stop:
				return
			}
		}
	}()
	return nil
}

// Stop ends watching and waits for the watcher goroutine.
func (f *File) Stop() {
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
	f.wg.Wait()
}

func (f *File) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.chords)
}
