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

package targethost

import (
	"context"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
	"github.com/denialofsandwich/b4-backup/pkg/clock"
	"github.com/denialofsandwich/b4-backup/pkg/config"
)

// OpenDestination constructs the destination-role host for a target,
// honoring the target's OnMissingDestination policy (spec §4.2): ERROR
// fails with DestinationDirectoryNotFoundError, SKIP returns a nil host
// and a nil error so the caller treats the target as source-only for
// this invocation.
func OpenDestination(ctx context.Context, targetName, root string, backend Backend, onMissing config.OnMissingDestination, c clock.Clock) (*TargetHost, error) {
	exists, err := backend.Exists(ctx, root)
	if err != nil {
		return nil, err
	}
	if !exists {
		if onMissing == config.OnMissingSkip {
			return nil, nil
		}
		return nil, &b4err.DestinationDirectoryNotFoundError{Path: root}
	}
	return New(targetName, root, backend, c), nil
}
