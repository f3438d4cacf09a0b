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

// NewDeleteCommand builds the "delete" verb: remove one named snapshot
// from the source side of a single target (spec §4.1 "delete"). Unlike
// the other verbs this always takes exactly one target, since a snapshot
// name is only meaningful relative to one target's inventory.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snapshot-name>",
		Short: "Delete one snapshot from a target's source",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	if targetName == "" {
		return fmt.Errorf("delete requires --target")
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
	e := engine.New(c)
	return e.Delete(cmd.Context(), target.Name, src, args[0])
}
