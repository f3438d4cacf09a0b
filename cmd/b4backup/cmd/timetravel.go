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

	"github.com/denialofsandwich/b4-backup/cmd/b4backup/timetravel"
)

// NewTimetravelCommand builds the "timetravel" verb: an interactive,
// read-only browser over a single target's snapshot inventory (spec §6
// ambient addition, grounded on the teacher's timemachine tui).
func NewTimetravelCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "timetravel",
		Aliases: []string{"tt"},
		Short:   "Browse a target's snapshots and subvolumes interactively",
		RunE:    runTimetravel,
	}
}

func runTimetravel(cmd *cobra.Command, args []string) error {
	if targetName == "" {
		return fmt.Errorf("timetravel requires --target")
	}
	targets, err := selectedTargets()
	if err != nil {
		return err
	}
	target := targets[0]

	c, err := systemClock()
	if err != nil {
		return err
	}
	src, _, err := openTargetHosts(cmd.Context(), target, c)
	if err != nil {
		return err
	}
	return timetravel.Run(cmd.Context(), target.Name, src)
}
