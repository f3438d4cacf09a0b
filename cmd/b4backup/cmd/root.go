/*
This file is part of b4backup.

B4backup is free software: you can redistribute it and/or modify it under the terms of the
GNU Lesser General Public License as published by the Free Software Foundation, either
version 3 of the License, or (at your option) any later version.

B4backup is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
See the GNU Lesser General Public License for more details.

You should have received a copy of the GNU Lesser General Public License along with b4backup.
If not, see <https://www.gnu.org/licenses/>.
*/

// Package cmd is the thin cobra-based CLI wrapper over pkg/engine,
// mirroring the teacher's pkg/cmd/root.go PersistentPreRunE pattern:
// a package-level config loaded once before any subcommand runs, and a
// verbosity-gated logger threaded through every verb.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/denialofsandwich/b4-backup/pkg/config"
)

var (
	cfgFile    string
	targetName string
	verbosity  int
	conf       *config.RootConfig
	logger     = log.New(os.Stderr, "", log.LstdFlags)
)

func logVerbose(level int, format string, args ...interface{}) {
	if verbosity >= level {
		logger.Printf(format, args...)
	}
}

// Execute runs the root command, printing any error to stderr and
// exiting non-zero, matching the teacher's Execute(version).
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:               "b4backup [flags] <command>",
		Short:             "A copy-on-write snapshot lifecycle manager for btrfs",
		SilenceErrors:     true,
		SilenceUsage:      true,
		Version:           version,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file")
	root.PersistentFlags().StringVarP(&targetName, "target", "t", "", "operate on a single target by name (default: every configured target)")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "verbosity level (can be used multiple times)")

	root.AddCommand(NewBackupCommand())
	root.AddCommand(NewCleanCommand())
	root.AddCommand(NewSyncCommand())
	root.AddCommand(NewDeleteCommand())
	root.AddCommand(NewDeleteAllCommand())
	root.AddCommand(NewRestoreCommand())
	root.AddCommand(NewInventoryCommand())
	root.AddCommand(NewTimetravelCommand())

	return root
}

func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	conf = loaded
	logVerbose(1, "Loaded %d target(s) from config", len(conf.Targets))
	return nil
}

// selectedTargets returns every target to operate on: just the one named
// by --target, or every configured target if it was not set.
func selectedTargets() ([]config.Target, error) {
	if targetName == "" {
		return conf.Targets, nil
	}
	t := conf.GetTarget(targetName)
	if t == nil {
		return nil, fmt.Errorf("no target named %q in config", targetName)
	}
	return []config.Target{*t}, nil
}
