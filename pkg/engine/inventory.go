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

package engine

import (
	"context"

	"github.com/xlab/treeprint"

	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/targethost"
)

// Inventory builds a printable tree of every snapshot on host, each
// showing its retention name and the subvolumes it still holds, in the
// style of the teacher's "tree" command (spec §6 ambient addition: a
// read-only view for operators, not itself a named verb in spec.md).
func (e *Engine) Inventory(ctx context.Context, label string, host *targethost.TargetHost) (treeprint.Tree, error) {
	snaps, err := host.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	tree := treeprint.NewWithRoot(label)
	for _, snap := range snaps {
		retentionName, _ := snap.RetentionName()
		branch := tree.AddMetaBranch(retentionName, snap.Name)
		for _, escaped := range snap.Subvolumes {
			rel, err := snapshot.Unescape(escaped)
			if err != nil {
				rel = escaped
			}
			branch.AddNode(rel)
		}
	}
	return tree, nil
}
