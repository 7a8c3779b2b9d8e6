package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/freqlog/internal/capture"
	"github.com/verte-zerg/freqlog/internal/chordsource"
	"github.com/verte-zerg/freqlog/internal/config"
	"github.com/verte-zerg/freqlog/internal/engine"
	"github.com/verte-zerg/freqlog/internal/metrics"
	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/queue"
	"github.com/verte-zerg/freqlog/internal/store"
)

var (
	engineNewWordThreshold   float64
	engineChordCharThreshold int
	engineAllowedChars       string
	engineAddModifiers       []string
	engineRemoveModifiers    []string
	engineMinLength          int
	engineEmbedWhitespace    bool
	engineChordsFile         string
	engineMetricsAddr        string

	startDevices []string
)

// producer feeds the queue until it is done or ctx is cancelled.
type producer func(ctx context.Context, events *queue.Queue[model.InputEvent], logger *zap.SugaredLogger) error

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Log words and chords from live keyboard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEngine(cmd, captureLive)
		},
	}
	addEngineFlags(cmd)
	cmd.Flags().StringSliceVar(&startDevices, "device", nil, "input device path (default: every detected keyboard)")
	return cmd
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Log words and chords from a recorded JSON lines event file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(cmd, replayFile(args[0]))
		},
	}
	addEngineFlags(cmd)
	return cmd
}

func addEngineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&engineNewWordThreshold, "new-word-threshold", config.DefaultNewWordThreshold.Seconds(), "seconds of inactivity that end a word")
	flags.IntVar(&engineChordCharThreshold, "chord-char-threshold", int(config.DefaultChordCharThreshold.Milliseconds()), "max average ms between chord characters")
	flags.StringVar(&engineAllowedChars, "allowed-chars", config.DefaultAllowedChars, "characters that can form words and chords")
	flags.StringArrayVar(&engineAddModifiers, "add-modifier-key", nil, "additional modifier key that blocks typing while held")
	flags.StringArrayVar(&engineRemoveModifiers, "remove-modifier-key", nil, "modifier key to stop treating as blocking")
	flags.IntVar(&engineMinLength, "min-length", config.DefaultMinEntryLength, "minimum characters of a logged entry")
	flags.BoolVar(&engineEmbedWhitespace, "embed-chord-whitespace", true, "keep fast whitespace inside chords")
	flags.StringVar(&engineChordsFile, "chords-file", config.DefaultChordsPath(), "known chord list, one chord per line")
	flags.StringVar(&engineMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// buildEngineConfig resolves engine settings: flag, then config file, then default.
func buildEngineConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.EngineConfig, error) {
	section := fileCfg.Engine
	applyFloatConfig(cmd, "new-word-threshold", &engineNewWordThreshold, section.NewWordThreshold)
	applyIntConfig(cmd, "chord-char-threshold", &engineChordCharThreshold, section.ChordCharThreshold)
	applyStringConfig(cmd, "allowed-chars", &engineAllowedChars, section.AllowedChars)
	applyIntConfig(cmd, "min-length", &engineMinLength, section.MinLength)
	applyBoolConfig(cmd, "embed-chord-whitespace", &engineEmbedWhitespace, section.EmbedChordWhitespace)

	modifiers := section.ModifierKeys
	if modifiers == nil {
		modifiers = config.DefaultModifierKeys
	}
	deleteWord := section.DeleteWordModifiers
	if deleteWord == nil {
		deleteWord = config.DefaultDeleteWordModifiers
	}
	modifiers = append(slices.Clone(modifiers), engineAddModifiers...)
	modifiers = slices.DeleteFunc(modifiers, func(k string) bool {
		return slices.Contains(engineRemoveModifiers, k)
	})
	deleteWord = slices.DeleteFunc(slices.Clone(deleteWord), func(k string) bool {
		return slices.Contains(engineRemoveModifiers, k)
	})

	cfg := config.DefaultEngineConfig()
	config.EngineSection{
		NewWordThreshold:     &engineNewWordThreshold,
		ChordCharThreshold:   &engineChordCharThreshold,
		AllowedChars:         &engineAllowedChars,
		ModifierKeys:         modifiers,
		DeleteWordModifiers:  deleteWord,
		MinLength:            &engineMinLength,
		EmbedChordWhitespace: &engineEmbedWhitespace,
	}.Apply(&cfg)
	if err := config.ValidateEngine(cfg); err != nil {
		return model.EngineConfig{}, err
	}
	return cfg, nil
}

func runEngine(cmd *cobra.Command, produce producer) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "chords-file", &engineChordsFile, s.file.Chords.File)
	applyStringConfig(cmd, "metrics-addr", &engineMetricsAddr, s.file.Metrics.Addr)
	cfg, err := buildEngineConfig(cmd, s.file)
	if err != nil {
		return err
	}
	logger, syncLogger, err := newLogger()
	if err != nil {
		return err
	}
	defer syncLogger()

	st, err := store.Open(globalDBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	logger.Infow("database opened", "path", globalDBPath, "config", s.path)

	m := metrics.New()
	events := queue.New[model.InputEvent](queue.WithDepthHook(m.QueueDepth))

	chords := chordsource.NewFile(engineChordsFile, logger.Named("chords"))
	if err := chords.Start(); err != nil {
		logger.Warnw("chord list will not be reloaded", "error", err)
	}
	defer chords.Stop()

	eng, err := engine.New(cfg, events, st,
		engine.WithChordSource(chords),
		engine.WithMetrics(m),
		engine.WithLogger(logger.Named("engine")))
	if err != nil {
		closeStore(st)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if engineMetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Serve(ctx, engineMetricsAddr, logger.Named("metrics")); err != nil {
				logger.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	runErr := make(chan error, 1)
	go func() {
		// Run closes the store on exit.
		runErr <- eng.Run(ctx)
	}()

	produceErr := produce(ctx, events, logger)
	eng.Stop()
	err = <-runErr
	stop()
	wg.Wait()

	if produceErr != nil && !errors.Is(produceErr, context.Canceled) {
		return produceErr
	}
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}

func captureLive(ctx context.Context, events *queue.Queue[model.InputEvent], logger *zap.SugaredLogger) error {
	reader := capture.NewReader(startDevices, events, logger.Named("capture"))
	if err := reader.Run(ctx); err != nil {
		if errors.Is(err, capture.ErrUnavailable) {
			logErrln("live capture needs Linux evdev access; use `freqlog replay FILE` to log recorded events")
		}
		return err
	}
	return nil
}

func replayFile(path string) producer {
	return func(ctx context.Context, events *queue.Queue[model.InputEvent], logger *zap.SugaredLogger) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open replay file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close for read-only replay file.
				_ = cerr
			}
		}()
		n, err := capture.Replay(ctx, f, events)
		if err != nil {
			return fmt.Errorf("failed to replay %s: %w", path, err)
		}
		logger.Infow("replay queued", "path", path, "events", n)
		return nil
	}
}
