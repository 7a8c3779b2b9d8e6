// Package main provides the CLI entrypoint for freqlog.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/freqlog/internal/config"
	"github.com/verte-zerg/freqlog/internal/logging"
	"github.com/verte-zerg/freqlog/internal/store"
)

const dotenvFile = ".env"

var (
	globalDBPath   string
	globalLogLevel string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "freqlog",
		Short:         "Log word and chord frequencies from keyboard input",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&globalDBPath, "db", "", "database path (default: $XDG_DATA_HOME/freqlog/freqlog.db)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newWordsCmd())
	rootCmd.AddCommand(newChordsCmd())
	rootCmd.AddCommand(newNumWordsCmd())
	rootCmd.AddCommand(newNumChordsCmd())
	rootCmd.AddCommand(newBanlistCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newBanCmd())
	rootCmd.AddCommand(newUnbanCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newMergeDBCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// settings is the file config after environment overrides, plus the config path it came from.
type settings struct {
	path string
	file config.FileConfig
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	env, err := config.LoadEnv(dotenvFile)
	if err != nil {
		return settings{}, err
	}
	path := configPath(env)
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	env.Apply(&fileCfg)

	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	if !cmd.Flags().Changed("db") {
		globalDBPath = config.DefaultDBPath()
		if fileCfg.Store.Path != nil {
			globalDBPath = *fileCfg.Store.Path
		}
	}
	return settings{path: path, file: fileCfg}, nil
}

func configPath(env config.Env) string {
	if env.ConfigPath != "" {
		return env.ConfigPath
	}
	return config.DefaultConfigPath()
}

func newLogger() (*zap.SugaredLogger, func(), error) {
	logger, err := logging.New(globalLogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	sync := func() {
		if serr := logger.Sync(); serr != nil {
			// Syncing stderr fails on some terminals.
			_ = serr
		}
	}
	return logger.Sugar(), sync, nil
}

// openStore loads settings and opens the configured database.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	if _, err := loadSettings(cmd); err != nil {
		return nil, err
	}
	st, err := store.Open(globalDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	// The file is not parsed here so a broken config can still be edited.
	env, err := config.LoadEnv(dotenvFile)
	if err != nil {
		return err
	}
	path := configPath(env)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# freqlog configuration
# Uncomment a value to enable it. CLI flags override config values,
# FREQLOG_* environment variables override this file.

[engine]
# new-word-threshold = %.1f        # Seconds of inactivity that end a word
# chord-char-threshold = %d        # Max average ms between chord characters
# allowed-chars = %q
# modifier-keys = [%s]
# delete-word-modifiers = [%s]     # Held with backspace, delete the previous word
# min-length = %d                  # Shorter entries are discarded
# embed-chord-whitespace = true    # Fast whitespace stays inside a chord

[chords]
# file = %q                        # Known chords, one per line

[log]
# level = %q

[metrics]
# addr = "127.0.0.1:9464"          # Serve /metrics while capturing

[store]
# path = %q
`,
		config.DefaultNewWordThreshold.Seconds(),
		config.DefaultChordCharThreshold.Milliseconds(),
		config.DefaultAllowedChars,
		quoteList(config.DefaultModifierKeys),
		quoteList(config.DefaultDeleteWordModifiers),
		config.DefaultMinEntryLength,
		config.DefaultChordsPath(),
		logging.DefaultLevel,
		config.DefaultDBPath(),
	)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
