package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SLClient/internal/config"
	"SLClient/internal/logging"
)

// app holds what every subcommand shares once the root pre-run has
// finished.
type app struct {
	configPath string
	mapsDir    string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "slclient [host] [port]",
		Short: "MUD client with an automatic map",
		Long: `slclient is a line based MUD client. Every direction you type is drawn
on a map of the rooms you have visited, one layer per floor.

Run without a subcommand to start the interactive client. Lines starting
with # are client commands; type #help inside the client for the list.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runClient(cmd, args)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml (default: user config dir)")
	root.PersistentFlags().StringVar(&a.mapsDir, "maps-dir", "", "directory holding .slmap files")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newMapsCmd(a), newMapCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if dir := strings.TrimSpace(a.mapsDir); dir != "" {
		cfg.Maps.Dir = dir
	}
	a.cfg = cfg

	file := cfg.Logging.File
	if file == "" && cmd.Root() == cmd {
		// The interactive client owns the terminal.
		file = logging.DefaultFile()
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		File:    file,
		Verbose: a.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
