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

// NewBackupCommand builds the "backup" verb: snapshot, ship, clean, for
// every selected target (spec §4.1 "backup").
func NewBackupCommand() *cobra.Command {
	var retentionName string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and ship every selected target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, retentionName)
		},
	}
	cmd.Flags().StringVar(&retentionName, "retention-name", "auto", "retention class this snapshot belongs to")
	return cmd
}

func runBackup(cmd *cobra.Command, retentionName string) error {
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
		logVerbose(0, "Backing up %s...", target.Name)
		err := func() error {
			src, dst, err := openTargetHosts(cmd.Context(), target, c)
			if err != nil {
				return err
			}
			_, err = e.Backup(cmd.Context(), target, src, dst, retentionName)
			return err
		}()
		multi.Add(target.Name, err)
	}
	return multi.ErrOrNil()
}
