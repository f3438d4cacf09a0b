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
	"path"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/targethost"
)

// retentionNameALL is the choice-selector literal expanding to every
// retention_name observed in a host's snapshot inventory (spec §4.4
// "Selectors").
const retentionNameALL = "ALL"

// Delete removes the named snapshot from host, or fails with
// SnapshotNotFoundError if it is not present (spec §4.1 "delete").
func (e *Engine) Delete(ctx context.Context, targetName string, host *targethost.TargetHost, name string) error {
	snap, err := findSnapshot(ctx, host, targetName, name)
	if err != nil {
		return err
	}
	return host.DeleteSnapshot(ctx, snap, nil)
}

// DeleteAll removes every snapshot on host whose retention_name is in
// choice, expanding the literal ALL to every retention_name present
// (spec §4.1 "delete_all").
func (e *Engine) DeleteAll(ctx context.Context, host *targethost.TargetHost, choice []string) error {
	snaps, err := host.Snapshots(ctx)
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(choice))
	all := false
	for _, c := range choice {
		if c == retentionNameALL {
			all = true
			continue
		}
		selected[c] = true
	}

	for _, snap := range snaps {
		name, err := snap.RetentionName()
		if err != nil {
			continue
		}
		if all || selected[name] {
			if err := host.DeleteSnapshot(ctx, snap, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sync ships every snapshot present on src but missing on dst, then
// cleans both sides (spec §4.1 "sync").
func (e *Engine) Sync(ctx context.Context, target config.Target, src, dst *targethost.TargetHost) error {
	srcSnaps, err := src.Snapshots(ctx)
	if err != nil {
		return err
	}
	dstSnaps, err := dst.Snapshots(ctx)
	if err != nil {
		return err
	}
	onDst := make(map[string]bool, len(dstSnaps))
	for _, s := range dstSnaps {
		onDst[s.Name] = true
	}

	snapshot.SortByName(srcSnaps)
	for _, s := range srcSnaps {
		if onDst[s.Name] {
			continue
		}
		if err := e.sendIncremental(ctx, target.Name, src, dst, s.Name); err != nil {
			return err
		}
	}

	return e.Clean(ctx, target, src, dst)
}

// Restore dispatches by strategy (spec §4.1 "restore"). SAFE never
// touches live subvolumes; REPLACE moves the live tree aside and
// recreates it from the chosen snapshot, or — when name is the reserved
// rollback name — undoes the most recent REPLACE.
func (e *Engine) Restore(ctx context.Context, target config.Target, src, dst *targethost.TargetHost, name string, strategy config.RestoreStrategy) error {
	if strategy == config.RestoreSafe {
		if name == snapshot.ReservedName {
			return &b4err.InvalidRestoreRequestError{Reason: "strategy SAFE cannot be combined with snapshot name REPLACE"}
		}
		return e.restoreSafe(ctx, target, src, dst, name)
	}

	if name == snapshot.ReservedName {
		return e.rollbackReplace(ctx, target, src)
	}
	return e.restoreReplace(ctx, target, src, name)
}

// restoreSafe ensures the chosen snapshot exists on src, transferring it
// from dst first if it is only present there (spec §4.1 "SAFE").
func (e *Engine) restoreSafe(ctx context.Context, target config.Target, src, dst *targethost.TargetHost, name string) error {
	srcSnaps, err := src.Snapshots(ctx)
	if err != nil {
		return err
	}
	for _, s := range srcSnaps {
		if s.Name == name {
			return nil
		}
	}
	if dst == nil {
		return &b4err.SnapshotNotFoundError{TargetName: target.Name, Name: name}
	}
	dstSnaps, err := dst.Snapshots(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, s := range dstSnaps {
		if s.Name == name {
			found = true
			break
		}
	}
	if !found {
		return &b4err.SnapshotNotFoundError{TargetName: target.Name, Name: name}
	}
	return e.sendIncremental(ctx, target.Name, dst, src, name)
}

// restoreReplace moves src's current backup-scoped live tree aside,
// recreates it read-write from snap, then applies the target's fallback
// strategy to any live subvolume snap has no counterpart for (spec §4.1
// "REPLACE", §4.3 "Restore fallback").
//
// Only the backup-scoped (non-ignored) live subvolumes are moved aside
// and recreated; subvolumes excluded from backup by the target's ignored
// paths were never snapshotted and are left untouched by restore too —
// an Open Question spec.md leaves undecided (see DESIGN.md).
func (e *Engine) restoreReplace(ctx context.Context, target config.Target, src *targethost.TargetHost, name string) error {
	snap, err := findSnapshot(ctx, src, target.Name, name)
	if err != nil {
		return err
	}

	live, err := e.liveSubvolumesForBackup(ctx, target, src)
	if err != nil {
		return err
	}

	backupName, err := src.MoveLiveAside(ctx, target.Name, live, e.Clock.Now())
	if err != nil {
		return err
	}

	if err := src.RestoreFromSnapshot(ctx, snap); err != nil {
		return err
	}

	root, err := src.ReplaceBackupRoot(ctx, target.Name)
	if err != nil {
		return err
	}
	backupDir := path.Join(root, backupName)
	return src.ApplyFallback(ctx, backupDir, live, snap.Subvolumes, target.SubvolumeFallbackStrategy)
}

// rollbackReplace discards the current live tree and restores the most
// recent replace-backup over it (spec §4.1 "the magic snapshot name
// REPLACE ... means rollback the last REPLACE").
func (e *Engine) rollbackReplace(ctx context.Context, target config.Target, src *targethost.TargetHost) error {
	backups, err := src.ReplaceBackups(ctx, target.Name)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return &b4err.NoReplaceBackupError{TargetName: target.Name}
	}
	mostRecent := backups[0]

	live, err := e.liveSubvolumesForBackup(ctx, target, src)
	if err != nil {
		return err
	}
	if err := src.DeleteLive(ctx, live); err != nil {
		return err
	}
	if err := src.RestoreBackupToLive(ctx, target.Name, mostRecent); err != nil {
		return err
	}

	return e.pruneReplaceBackups(ctx, target.Name, src)
}

func findSnapshot(ctx context.Context, host *targethost.TargetHost, targetName, name string) (snapshot.Snapshot, error) {
	snaps, err := host.Snapshots(ctx)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	for _, s := range snaps {
		if s.Name == name {
			return s, nil
		}
	}
	return snapshot.Snapshot{}, &b4err.SnapshotNotFoundError{TargetName: targetName, Name: name}
}
