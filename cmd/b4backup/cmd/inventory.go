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

// NewInventoryCommand builds the "inventory" verb: a read-only tree of
// every snapshot on each selected target's source (and destination, when
// configured), in the style of the teacher's "tree" command.
func NewInventoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Print every snapshot and subvolume for each selected target",
		RunE:  runInventory,
	}
}

func runInventory(cmd *cobra.Command, args []string) error {
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
		err := func() error {
			src, dst, err := openTargetHosts(cmd.Context(), target, c)
			if err != nil {
				return err
			}
			tree, err := e.Inventory(cmd.Context(), target.Name+" (source)", src)
			if err != nil {
				return err
			}
			fmt.Println(tree.String())
			if dst != nil {
				dstTree, err := e.Inventory(cmd.Context(), target.Name+" (destination)", dst)
				if err != nil {
					return err
				}
				fmt.Println(dstTree.String())
			}
			return nil
		}()
		multi.Add(target.Name, err)
	}
	return multi.ErrOrNil()
}
