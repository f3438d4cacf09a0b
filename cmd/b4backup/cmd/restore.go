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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/engine"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
)

// NewRestoreCommand builds the "restore" verb (spec §4.1 "restore").
// Passing the reserved name REPLACE instead of a real snapshot name
// rolls back the most recent REPLACE restore (spec §4.3).
func NewRestoreCommand() *cobra.Command {
	var strategyFlag string
	cmd := &cobra.Command{
		Use:   "restore <snapshot-name>",
		Short: "Restore a target's source from one of its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, args[0], strategyFlag)
		},
	}
	cmd.Flags().StringVar(&strategyFlag, "strategy", "", fmt.Sprintf("restore strategy, %q or %q (default: the target's configured default)", config.RestoreSafe, config.RestoreReplace))
	return cmd
}

func runRestore(cmd *cobra.Command, name, strategyFlag string) error {
	if targetName == "" {
		return fmt.Errorf("restore requires --target")
	}
	targets, err := selectedTargets()
	if err != nil {
		return err
	}
	target := targets[0]

	strategy := target.DefaultRestoreStrategy
	if strategyFlag != "" {
		strategy = config.RestoreStrategy(strategyFlag)
	}
	if strategy == "" {
		strategy = config.RestoreSafe
	}

	logVerbose(0, "Restoring %s to %s (strategy %s)...", target.Name, name, strategy)
	if name == snapshot.ReservedName {
		logVerbose(0, "%s is the reserved rollback name: undoing the most recent REPLACE", snapshot.ReservedName)
	}

	c, err := systemClock()
	if err != nil {
		return err
	}
	src, dst, err := openTargetHosts(cmd.Context(), target, c)
	if err != nil {
		return err
	}
	e := engine.New(c)
	return e.Restore(cmd.Context(), target, src, dst, name, strategy)
}
