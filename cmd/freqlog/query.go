package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/freqlog/internal/model"
	"github.com/verte-zerg/freqlog/internal/stats"
	"github.com/verte-zerg/freqlog/internal/statsui"
	"github.com/verte-zerg/freqlog/internal/store"
)

const defaultListNum = 10

var (
	banSort string
	banAsc  bool
	banNum  int

	deleteChord bool

	mergeKeep string
)

// listFlags holds the listing flags of one command.
type listFlags struct {
	caseName string
	num      int
	sort     string
	asc      bool
	search   string
	export   string
}

func addListFlags(cmd *cobra.Command, defaultSort string, defaultNum int) *listFlags {
	f := &listFlags{}
	cmd.Flags().StringVarP(&f.caseName, "case", "c", "insensitive", "case mode (sensitive, first_char, insensitive)")
	cmd.Flags().IntVarP(&f.num, "num", "n", defaultNum, "number of entries to list (0 for all)")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", defaultSort, "sort by (text, frequency, lastused, avgspeed, score)")
	cmd.Flags().BoolVar(&f.asc, "asc", false, "sort ascending")
	cmd.Flags().StringVarP(&f.search, "find", "f", "", "only entries containing this text")
	return f
}

func (f *listFlags) options() (model.ListOptions, error) {
	mode, err := model.ParseCaseMode(f.caseName)
	if err != nil {
		return model.ListOptions{}, err
	}
	field, err := model.ParseSortField(f.sort)
	if err != nil {
		return model.ListOptions{}, err
	}
	if field == model.SortDateAdded {
		return model.ListOptions{}, fmt.Errorf("--sort %s only applies to the banlist", f.sort)
	}
	if f.num < 0 {
		return model.ListOptions{}, fmt.Errorf("--num must be >= 0")
	}
	return model.ListOptions{
		Limit:      f.num,
		SortBy:     field,
		Descending: !f.asc,
		Case:       mode,
		Search:     f.search,
	}, nil
}

func addCaseFlag(cmd *cobra.Command) *string {
	var name string
	cmd.Flags().StringVarP(&name, "case", "c", "insensitive", "case mode (sensitive, first_char, insensitive)")
	return &name
}

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words [WORD...]",
		Short: "List logged words, or show the given words",
	}
	flags := addListFlags(cmd, "frequency", defaultListNum)
	cmd.Flags().StringVar(&flags.export, "export", "", "write CSV to this file instead of printing")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWordsCmd(cmd, args, flags)
	}
	return cmd
}

func runWordsCmd(cmd *cobra.Command, args []string, flags *listFlags) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	var words []model.WordMetadata
	if len(args) == 0 {
		words, err = st.ListWords(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to list words: %w", err)
		}
	} else {
		for _, arg := range args {
			w, err := st.GetWordMetadata(ctx, arg, opts.Case)
			if err != nil {
				return fmt.Errorf("failed to get %q: %w", arg, err)
			}
			if w == nil {
				logErrf("%q not found\n", arg)
				continue
			}
			words = append(words, *w)
		}
	}
	if flags.export != "" {
		return exportCSV(flags.export, len(words), func(w io.Writer) error {
			return stats.WriteWordsCSV(w, words)
		})
	}
	return stats.RenderWords(cmd.OutOrStdout(), words)
}

func newChordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chords [CHORD...]",
		Short: "List logged chords, or show the given chords",
	}
	flags := addListFlags(cmd, "frequency", defaultListNum)
	cmd.Flags().StringVar(&flags.export, "export", "", "write CSV to this file instead of printing")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runChordsCmd(cmd, args, flags)
	}
	return cmd
}

func runChordsCmd(cmd *cobra.Command, args []string, flags *listFlags) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	if opts.SortBy == model.SortAverageSpeed {
		return fmt.Errorf("chords have no average speed")
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	var chords []model.ChordMetadata
	if len(args) == 0 {
		chords, err = st.ListChords(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to list chords: %w", err)
		}
	} else {
		for _, arg := range args {
			c, err := st.GetChordMetadata(ctx, arg, opts.Case)
			if err != nil {
				return fmt.Errorf("failed to get %q: %w", arg, err)
			}
			if c == nil {
				logErrf("%q not found\n", arg)
				continue
			}
			chords = append(chords, *c)
		}
	}
	if flags.export != "" {
		return exportCSV(flags.export, len(chords), func(w io.Writer) error {
			return stats.WriteChordsCSV(w, chords)
		})
	}
	return stats.RenderChords(cmd.OutOrStdout(), chords)
}

func exportCSV(path string, n int, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	logErrf("Exported %d entries to %s\n", n, path)
	return nil
}

func newNumWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numwords",
		Short: "Print the number of distinct words",
		Args:  cobra.NoArgs,
	}
	caseName := addCaseFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runCount(cmd, *caseName, (*store.Store).NumWords)
	}
	return cmd
}

func newNumChordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numchords",
		Short: "Print the number of distinct chords",
		Args:  cobra.NoArgs,
	}
	caseName := addCaseFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runCount(cmd, *caseName, (*store.Store).NumChords)
	}
	return cmd
}

func runCount(cmd *cobra.Command, caseName string, count func(*store.Store, context.Context, model.CaseMode) (int, error)) error {
	mode, err := model.ParseCaseMode(caseName)
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)
	n, err := count(st, context.Background(), mode)
	if err != nil {
		return fmt.Errorf("failed to count: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
	return err
}

func newBanlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banlist",
		Short: "List banned words",
		Args:  cobra.NoArgs,
		RunE:  runBanlistCmd,
	}
	cmd.Flags().StringVarP(&banSort, "sort", "s", "date", "sort by (text, date)")
	cmd.Flags().BoolVar(&banAsc, "asc", false, "sort ascending")
	cmd.Flags().IntVarP(&banNum, "num", "n", 0, "number of entries to list (0 for all)")
	return cmd
}

func runBanlistCmd(cmd *cobra.Command, _ []string) error {
	field, err := model.ParseSortField(banSort)
	if err != nil {
		return err
	}
	if field != model.SortText && field != model.SortDateAdded {
		return fmt.Errorf("--sort must be text or date")
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)
	entries, err := st.ListBanned(context.Background(), field, !banAsc, banNum)
	if err != nil {
		return fmt.Errorf("failed to list banlist: %w", err)
	}
	return stats.RenderBanlist(cmd.OutOrStdout(), entries)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check WORD...",
		Short: "Check whether words are banned",
		Args:  cobra.MinimumNArgs(1),
	}
	caseName := addCaseFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return forEachWord(cmd, args, *caseName, func(ctx context.Context, st *store.Store, word string, mode model.CaseMode) (string, error) {
			banned, err := st.CheckBanned(ctx, word, mode)
			if err != nil {
				return "", err
			}
			if banned {
				return fmt.Sprintf("%s: banned", word), nil
			}
			return fmt.Sprintf("%s: not banned", word), nil
		})
	}
	return cmd
}

func newBanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ban WORD...",
		Short: "Ban words and delete their logged entries",
		Args:  cobra.MinimumNArgs(1),
	}
	caseName := addCaseFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		return forEachWord(cmd, args, *caseName, func(ctx context.Context, st *store.Store, word string, mode model.CaseMode) (string, error) {
			banned, err := st.BanWord(ctx, word, mode, now)
			if err != nil {
				return "", err
			}
			if !banned {
				return fmt.Sprintf("%s: already banned", word), nil
			}
			return fmt.Sprintf("%s: banned (%s)", word, mode), nil
		})
	}
	return cmd
}

func newUnbanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unban WORD...",
		Short: "Remove words from the banlist",
		Args:  cobra.MinimumNArgs(1),
	}
	caseName := addCaseFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return forEachWord(cmd, args, *caseName, func(ctx context.Context, st *store.Store, word string, mode model.CaseMode) (string, error) {
			removed, err := st.UnbanWord(ctx, word, mode)
			if err != nil {
				return "", err
			}
			if !removed {
				return fmt.Sprintf("%s: not banned", word), nil
			}
			return fmt.Sprintf("%s: unbanned", word), nil
		})
	}
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete WORD...",
		Short: "Delete logged words or chords without banning them",
		Args:  cobra.MinimumNArgs(1),
	}
	caseName := addCaseFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return forEachWord(cmd, args, *caseName, func(ctx context.Context, st *store.Store, text string, mode model.CaseMode) (string, error) {
			del := st.DeleteWord
			if deleteChord {
				del = st.DeleteChord
			}
			deleted, err := del(ctx, text, mode)
			if err != nil {
				return "", err
			}
			if !deleted {
				return fmt.Sprintf("%s: not found", text), nil
			}
			return fmt.Sprintf("%s: deleted", text), nil
		})
	}
	cmd.Flags().BoolVar(&deleteChord, "chord", false, "delete chords instead of words")
	return cmd
}

func forEachWord(cmd *cobra.Command, words []string, caseName string, fn func(context.Context, *store.Store, string, model.CaseMode) (string, error)) error {
	mode, err := model.ParseCaseMode(caseName)
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	for _, word := range words {
		line, err := fn(ctx, st, word, mode)
		if err != nil {
			return fmt.Errorf("%s: %w", word, err)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newMergeDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mergedb SRC1 SRC2 DST",
		Short: "Merge two databases into a new one",
		Args:  cobra.ExactArgs(3),
		RunE:  runMergeDBCmd,
	}
	cmd.Flags().StringVar(&mergeKeep, "ban-date-keep", "older", "ban date kept when both sources ban a word (older, newer)")
	return cmd
}

func runMergeDBCmd(_ *cobra.Command, args []string) error {
	var keep model.BanAge
	switch strings.ToLower(strings.TrimSpace(mergeKeep)) {
	case "older":
		keep = model.KeepOlder
	case "newer":
		keep = model.KeepNewer
	default:
		return fmt.Errorf("--ban-date-keep must be older or newer")
	}
	if err := store.MergeDatabases(context.Background(), args[0], args[1], args[2], keep); err != nil {
		return fmt.Errorf("failed to merge databases: %w", err)
	}
	logErrf("Merged %s and %s into %s\n", args[0], args[1], args[2])
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse words, chords and the banlist",
		Args:  cobra.NoArgs,
	}
	flags := addListFlags(cmd, "score", 0)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runStatsCmd(cmd, flags)
	}
	return cmd
}

func runStatsCmd(cmd *cobra.Command, flags *listFlags) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ui := statsui.NewModel(st, opts)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}
