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
	"github.com/spf13/cobra"

	"github.com/denialofsandwich/b4-backup/pkg/engine"
)

// NewCleanCommand builds the "clean" verb: apply retention, prune
// orphans and bookkeeping, without taking a new snapshot (spec §4.1
// "clean").
func NewCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Apply retention and prune bookkeeping for every selected target",
		RunE:  runClean,
	}
}

func runClean(cmd *cobra.Command, args []string) error {
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
		logVerbose(0, "Cleaning %s...", target.Name)
		err := func() error {
			src, dst, err := openTargetHosts(cmd.Context(), target, c)
			if err != nil {
				return err
			}
			return e.Clean(cmd.Context(), target, src, dst)
		}()
		multi.Add(target.Name, err)
	}
	return multi.ErrOrNil()
}
