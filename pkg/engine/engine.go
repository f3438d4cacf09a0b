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

// Package engine composes TargetHost operations into the named verbs a
// caller drives a backup target with: Backup, Clean, Delete, DeleteAll,
// Restore, Sync (spec §4.1).
package engine

import (
	"context"
	"time"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
	"github.com/denialofsandwich/b4-backup/pkg/clock"
	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/retention"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/targethost"
)

// Engine drives TargetHost operations for one target at a time. It holds
// no per-target state; every verb takes the hosts and target
// configuration it needs as arguments. The only thing it holds is the
// clock it was constructed with.
type Engine struct {
	Clock clock.Clock
}

// New returns an Engine using c to stamp new snapshot names and evaluate
// retention windows.
func New(c clock.Clock) *Engine {
	return &Engine{Clock: c}
}

// Backup creates a read-only snapshot of src's live tree, ships it to dst
// when present, then runs Clean (spec §4.1 "backup").
func (e *Engine) Backup(ctx context.Context, target config.Target, src, dst *targethost.TargetHost, retentionName string) (snapshot.Snapshot, error) {
	name, err := snapshot.FormatName(e.Clock.Now(), retentionName)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	kept, err := e.liveSubvolumesForBackup(ctx, target, src)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	snap, err := src.CreateSnapshot(ctx, name, kept)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	if dst != nil {
		if err := e.sendIncremental(ctx, target.Name, src, dst, name); err != nil {
			return snapshot.Snapshot{}, err
		}
	}

	if err := e.Clean(ctx, target, src, dst); err != nil {
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}

// liveSubvolumesForBackup enumerates src's live subvolumes and drops
// those matching target.IgnoredSubpaths (spec §4.2 "create_snapshot").
func (e *Engine) liveSubvolumesForBackup(ctx context.Context, target config.Target, src *targethost.TargetHost) ([]string, error) {
	live, err := src.Subvolumes(ctx)
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, escaped := range live {
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return nil, err
		}
		if escaped != snapshot.RootMarker && target.IsIgnored(rel) {
			continue
		}
		kept = append(kept, escaped)
	}
	if len(kept) == 0 {
		return nil, &b4err.BtrfsSubvolumeNotFoundError{Path: src.Root}
	}
	return kept, nil
}

// sendIncremental selects the best parent present on both from and to,
// then ships the named snapshot through it (spec §4.3 "Send").
func (e *Engine) sendIncremental(ctx context.Context, targetName string, from, to *targethost.TargetHost, name string) error {
	fromSnaps, err := from.Snapshots(ctx)
	if err != nil {
		return err
	}
	toSnaps, err := to.Snapshots(ctx)
	if err != nil {
		return err
	}

	var snap snapshot.Snapshot
	found := false
	for _, s := range fromSnaps {
		if s.Name == name {
			snap, found = s, true
			break
		}
	}
	if !found {
		return &b4err.SnapshotNotFoundError{TargetName: targetName, Name: name}
	}

	toNames := make(map[string]bool, len(toSnaps))
	for _, s := range toSnaps {
		toNames[s.Name] = true
	}
	var candidates []string
	for _, s := range fromSnaps {
		if s.Name != name && toNames[s.Name] {
			candidates = append(candidates, s.Name)
		}
	}
	parent := snapshot.SelectParent(name, candidates)

	return from.SendSnapshot(ctx, to, snap, parent)
}

// Clean applies each configured retention ruleset on both sides, prunes
// destination subvolumes orphaned by source-side retention, removes
// leftover empty bookkeeping directories, and prunes aged replace-backups
// (spec §4.1 "clean").
func (e *Engine) Clean(ctx context.Context, target config.Target, src, dst *targethost.TargetHost) error {
	now := e.Clock.Now()

	for _, retentionName := range target.RetentionNames() {
		if err := e.cleanSide(ctx, src, target.SourceRetention[retentionName], retentionName, now); err != nil {
			return err
		}
		if dst != nil {
			if err := e.cleanSide(ctx, dst, target.DestinationRetention[retentionName], retentionName, now); err != nil {
				return err
			}
		}
	}

	if err := src.RemoveEmptyDirs(ctx, src.Root); err != nil {
		return err
	}
	if dst != nil {
		if err := dst.RemoveEmptyDirs(ctx, dst.Root); err != nil {
			return err
		}
		if err := e.pruneOrphans(ctx, src, dst); err != nil {
			return err
		}
	}

	return e.pruneReplaceBackups(ctx, target.Name, src)
}

// cleanSide plans and applies retention for one retention class on one
// side of a target. A nil/zero ruleset (no rule configured for this side
// under this name) is a no-op.
func (e *Engine) cleanSide(ctx context.Context, host *targethost.TargetHost, ruleset config.RetentionRuleset, retentionName string, now time.Time) error {
	if len(ruleset) == 0 {
		return nil
	}
	snaps, err := host.Snapshots(ctx)
	if err != nil {
		return err
	}
	var inventory []snapshot.Snapshot
	for _, s := range snaps {
		name, err := s.RetentionName()
		if err != nil {
			continue
		}
		if name == retentionName {
			inventory = append(inventory, s)
		}
	}
	toDelete, err := retention.Plan(retention.Group{
		RetentionName:     retentionName,
		Ruleset:           ruleset,
		SnapshotInventory: inventory,
	}, now)
	if err != nil {
		return err
	}
	byName := make(map[string]snapshot.Snapshot, len(inventory))
	for _, s := range inventory {
		byName[s.Name] = s
	}
	for _, name := range toDelete {
		if err := host.DeleteSnapshot(ctx, byName[name], nil); err != nil {
			return err
		}
	}
	return nil
}

// pruneOrphans deletes destination subvolumes whose escaped path is
// absent from the source's current snapshot of the same name (spec §4.1
// "orphan destination subvolumes", invariant 7).
func (e *Engine) pruneOrphans(ctx context.Context, src, dst *targethost.TargetHost) error {
	srcSnaps, err := src.Snapshots(ctx)
	if err != nil {
		return err
	}
	srcByName := make(map[string]snapshot.Snapshot, len(srcSnaps))
	for _, s := range srcSnaps {
		srcByName[s.Name] = s
	}

	dstSnaps, err := dst.Snapshots(ctx)
	if err != nil {
		return err
	}
	for _, dSnap := range dstSnaps {
		sSnap, ok := srcByName[dSnap.Name]
		if !ok {
			continue
		}
		present := make(map[string]bool, len(sSnap.Subvolumes))
		for _, sv := range sSnap.Subvolumes {
			present[sv] = true
		}
		var orphaned []string
		for _, sv := range dSnap.Subvolumes {
			if !present[sv] {
				orphaned = append(orphaned, sv)
			}
		}
		if len(orphaned) == 0 {
			continue
		}
		if err := dst.DeleteSnapshot(ctx, dSnap, orphaned); err != nil {
			return err
		}
	}
	return nil
}

// pruneReplaceBackups keeps only the most recent replace-backup, since
// REPLACE-rollback only ever targets "the most recent" (spec §4.1); older
// ones are pure bookkeeping weight once superseded.
func (e *Engine) pruneReplaceBackups(ctx context.Context, targetName string, src *targethost.TargetHost) error {
	backups, err := src.ReplaceBackups(ctx, targetName)
	if err != nil {
		return err
	}
	for _, backupName := range backups[min(1, len(backups)):] {
		if err := src.DeleteReplaceBackup(ctx, targetName, backupName); err != nil {
			return err
		}
	}
	return nil
}
