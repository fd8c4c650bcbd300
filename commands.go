package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// convertFlags holds the command-line overrides of the config file.
// Only flags set explicitly override it.
type convertFlags struct {
	format    string
	template  string
	marker    string
	since     string
	precision int
	relative  bool
	highlight bool
	output    string
	inPlace   bool
	watch     bool
	json      bool
}

func addConvertFlags(cmd *cobra.Command, f *convertFlags) {
	addFormatFlags(cmd, f)
	flags := cmd.Flags()
	flags.StringVarP(&f.template, "template", "t", "", "replacement template using {{date}}, {{raw}}, {{elapsed}}")
	flags.BoolVarP(&f.relative, "relative", "r", false, "replace stamps with seconds elapsed since the marker")
	flags.BoolVar(&f.highlight, "highlight", false, "style converted dates when writing to a terminal")
	flags.StringVarP(&f.output, "output", "o", "", "write the result to this file instead of stdout")
	flags.BoolVarP(&f.inPlace, "in-place", "i", false, "rewrite FILE in place")
	flags.BoolVarP(&f.watch, "watch", "w", false, "convert again whenever FILE changes")
}

func addFormatFlags(cmd *cobra.Command, f *convertFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", "", "strftime format for dates (default \""+defaultFormat+"\")")
	flags.StringVarP(&f.marker, "marker", "m", "", "label of the reference stamp (default \""+defaultMarker+"\")")
	flags.StringVar(&f.since, "since", "", "reference time for elapsed seconds, overrides the marker")
	flags.IntVar(&f.precision, "precision", defaultPrecision, "decimals printed for elapsed seconds")
}

// settings merges the config file with flags set on cmd.
func (f *convertFlags) settings(cmd *cobra.Command, global *globalFlags) (Settings, error) {
	appCfg, err := LoadAppConfig(global.dir())
	if err != nil {
		return Settings{}, fmt.Errorf("load app config: %w", err)
	}
	if appCfg.ConfigVersion < latestConfigVersion {
		logger.Warn("config is out of date, run \"logstamp migrate\"",
			zap.Int("version", appCfg.ConfigVersion), zap.Int("latest", latestConfigVersion))
	}

	s := appCfg.Settings()
	flags := cmd.Flags()
	if flags.Changed("format") {
		s.Format = f.format
	}
	if flags.Changed("template") {
		s.Template = f.template
	}
	if flags.Changed("marker") {
		s.Marker = f.marker
	}
	if flags.Changed("since") {
		s.Since = f.since
	}
	if flags.Changed("precision") {
		if f.precision < 0 {
			return Settings{}, fmt.Errorf("--precision must not be negative")
		}
		s.Precision = f.precision
	}
	if flags.Changed("highlight") {
		s.Highlight = f.highlight
	}
	s.Relative = f.relative
	return s.withDefaults(), nil
}

func newConvertCmd(global *globalFlags) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Rewrite every stamp in FILE as a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, global, &f, args[0])
		},
	}
	addConvertFlags(cmd, &f)
	return cmd
}

func runConvert(cmd *cobra.Command, global *globalFlags, f *convertFlags, path string) error {
	switch {
	case f.inPlace && path == "-":
		return fmt.Errorf("--in-place needs a file, not stdin")
	case f.inPlace && f.output != "":
		return fmt.Errorf("--in-place and --output are mutually exclusive")
	case f.watch && path == "-":
		return fmt.Errorf("--watch needs a file, not stdin")
	case f.watch && (f.inPlace || (f.output != "" && samePath(f.output, path))):
		return fmt.Errorf("--watch cannot write back to the watched file")
	}

	s, err := f.settings(cmd, global)
	if err != nil {
		return err
	}

	var opts []Option
	toStdout := !f.inPlace && f.output == ""
	if s.Highlight && toStdout {
		opts = append(opts, WithStyle(highlighter(cmd.OutOrStdout())))
	}
	conv := NewConverter(s, opts...)

	convert := func() error {
		text, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		out, err := conv.Convert(text)
		if err != nil {
			return err
		}
		switch {
		case f.inPlace:
			return writeFileAtomic(path, []byte(out))
		case f.output != "":
			return writeFileAtomic(f.output, []byte(out))
		default:
			_, err := io.WriteString(cmd.OutOrStdout(), out)
			return err
		}
	}

	if !f.watch {
		return convert()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := NewWatcher(path, defaultDebounce)
	if err != nil {
		return err
	}
	logger.Info("watching for changes", zap.String("path", path))
	return w.Run(ctx, convert)
}

func newListCmd(global *globalFlags) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "list FILE",
		Short: "Print each stamp in FILE with its position and date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings(cmd, global)
			if err != nil {
				return err
			}
			text, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			entries, err := NewConverter(s).List(text)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries, f.json)
		},
	}
	addFormatFlags(cmd, &f)
	cmd.Flags().BoolVar(&f.json, "json", false, "print one JSON object per stamp")
	return cmd
}

func printEntries(w io.Writer, entries []Entry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%d:%d\t%s\t%s", e.Line, e.Col, e.Raw, e.Date)
		if e.Elapsed != "" {
			line += "\t+" + e.Elapsed
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func newMarkerCmd(global *globalFlags) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "marker FILE",
		Short: "Print the date of the marker stamp in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings(cmd, global)
			if err != nil {
				return err
			}
			text, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			e, err := NewConverter(s).MarkerDate(text)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), e.Date)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", "", "strftime format for the date")
	flags.StringVarP(&f.marker, "marker", "m", "", "label of the reference stamp")
	return cmd
}

func newInitCmd(global *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := global.dir()
			results, err := initConfig(dir, force)
			out := cmd.OutOrStdout()
			for _, r := range results {
				switch r.Action {
				case initSkipped:
					fmt.Fprintf(out, "  skip %s (already exists, use --force to replace)\n", r.Name)
				case initReplaced:
					fmt.Fprintf(out, "  replaced %s (old file saved as %s)\n", r.Name, r.Backup)
				default:
					fmt.Fprintf(out, "  created %s\n", r.Name)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "logstamp: config initialized in %s\n", dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing files, keeping a .bak copy")
	return cmd
}

func newMigrateCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the config file to the current version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateConfig(global.dir(), cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "logstamp %s\n", version)
		},
	}
}
