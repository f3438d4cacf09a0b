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

	"github.com/denialofsandwich/b4-backup/pkg/engine"
)

// NewSyncCommand builds the "sync" verb: ship every snapshot missing on
// the destination, then clean both sides (spec §4.1 "sync"). Targets
// with no configured destination are skipped.
func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Ship missing snapshots to the destination of every selected target",
		RunE:  runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	targets, err := selectedTargets()
	if err != nil {
		return err
	}
	c, err := systemClock()
	if err != nil {
		return err
	}
	e := engine.New(c)

	var multi engine.MultiError
	for _, target := range targets {
		if !target.HasDestination() {
			logVerbose(1, "Skipping %s: no destination configured", target.Name)
			continue
		}
		logVerbose(0, "Syncing %s...", target.Name)
		err := func() error {
			src, dst, err := openTargetHosts(cmd.Context(), target, c)
			if err != nil {
				return err
			}
			if dst == nil {
				return fmt.Errorf("destination for %s is missing and on_missing_destination is SKIP", target.Name)
			}
			return e.Sync(cmd.Context(), target, src, dst)
		}()
		multi.Add(target.Name, err)
	}
	return multi.ErrOrNil()
}
