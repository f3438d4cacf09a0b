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

// NewDeleteAllCommand builds the "delete-all" verb: remove every
// snapshot whose retention_name is named in choice, or every snapshot
// when choice includes the literal ALL (spec §4.1 "delete_all", §4.4
// "Selectors").
func NewDeleteAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-all <retention-name>...",
		Short: "Delete every snapshot matching the given retention names (or ALL)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDeleteAll,
	}
}

func runDeleteAll(cmd *cobra.Command, args []string) error {
	if targetName == "" {
		return fmt.Errorf("delete-all requires --target")
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
	return e.DeleteAll(cmd.Context(), src, args)
}
