package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

func configDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "logstamp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "logstamp")
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configDir string
	verbose   bool
}

func (g *globalFlags) dir() string {
	if g.configDir != "" {
		return g.configDir
	}
	return configDir()
}

func newRootCmd() *cobra.Command {
	var (
		global globalFlags
		conv   convertFlags
	)

	root := &cobra.Command{
		Use:   "logstamp [FILE]",
		Short: "Convert millisecond epoch stamps in a log into readable dates",
		Long: `logstamp finds 13-digit millisecond Unix timestamps in a text log and
rewrites them as calendar dates in the local time zone.

With a FILE argument it behaves like "logstamp convert FILE". Use "-" to
read from stdin.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(global.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runConvert(cmd, &global, &conv, args[0])
		},
	}

	root.PersistentFlags().StringVar(&global.configDir, "config", "", "config directory (default $XDG_CONFIG_HOME/logstamp)")
	root.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "enable debug logging")
	addConvertFlags(root, &conv)

	root.AddCommand(
		newConvertCmd(&global),
		newListCmd(&global),
		newMarkerCmd(&global),
		newInitCmd(&global),
		newMigrateCmd(&global),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "logstamp: %v\n", err)
		os.Exit(1)
	}
}
