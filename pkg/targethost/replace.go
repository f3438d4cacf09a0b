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
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
)

// replaceRootDir is the fixed bookkeeping root the engine maintains on
// every btrfs mount it manages (spec §6).
const replaceRootDir = ".b4_backup/replace"

// ReplaceBackupRoot returns the directory under which this host's
// replace-backups for targetName live.
func (h *TargetHost) ReplaceBackupRoot(ctx context.Context, targetName string) (string, error) {
	mp, err := h.MountPoint(ctx)
	if err != nil {
		return "", err
	}
	return path.Join(mp, replaceRootDir, targetName), nil
}

// ReplaceBackups lists this host's replace-backup timestamp directories
// for targetName, most recent first.
func (h *TargetHost) ReplaceBackups(ctx context.Context, targetName string) ([]string, error) {
	root, err := h.ReplaceBackupRoot(ctx, targetName)
	if err != nil {
		return nil, err
	}
	entries, err := h.Backend.ReadDir(ctx, root)
	if err != nil {
		return nil, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	return entries, nil
}

// MoveLiveAside moves every live subvolume in liveSubvolumes (escaped
// relative paths) into a new timestamped replace-backup directory,
// returning its name (spec §4.1 REPLACE: "atomically move aside the
// current live subvolume tree"). The name carries a short random suffix
// so two REPLACE restores within the same backupName time resolution
// never collide.
func (h *TargetHost) MoveLiveAside(ctx context.Context, targetName string, liveSubvolumes []string, now time.Time) (string, error) {
	root, err := h.ReplaceBackupRoot(ctx, targetName)
	if err != nil {
		return "", err
	}
	backupName := now.Format(snapshot.TimeFormat) + "-" + uuid.NewString()[:8]
	backupDir := path.Join(root, backupName)
	if err := h.Backend.MkdirAll(ctx, backupDir); err != nil {
		return "", err
	}
	for _, escaped := range liveSubvolumes {
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return "", err
		}
		src := path.Join(h.Root, rel)
		dst := path.Join(backupDir, escaped)
		if err := h.Backend.Move(ctx, src, dst); err != nil {
			return "", fmt.Errorf("move %s aside to %s: %w", src, dst, err)
		}
	}
	return backupName, nil
}

// RestoreFromSnapshot re-creates the live tree from snap by taking a
// read-write snapshot of each of snap's subvolumes back to its live path
// (spec §4.1 REPLACE: "re-create the live tree by snapshotting each entry
// of the chosen snapshot back to the live location").
func (h *TargetHost) RestoreFromSnapshot(ctx context.Context, snap snapshot.Snapshot) error {
	for _, escaped := range snap.Subvolumes {
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return err
		}
		dst := path.Join(h.Root, rel)
		src := snap.SubvolumePath(escaped)
		if err := h.Backend.CreateSnapshot(ctx, src, dst, false); err != nil {
			return fmt.Errorf("restore %s from %s: %w", dst, src, err)
		}
	}
	return nil
}

// ApplyFallback handles live subvolumes that have no counterpart in the
// snapshot being restored (spec §4.3 "Restore fallback"). It never
// overwrites a live path that already exists.
func (h *TargetHost) ApplyFallback(ctx context.Context, backupDir string, liveSubvolumes, snapSubvolumes []string, strategy config.SubvolumeFallbackStrategy) error {
	inSnap := make(map[string]bool, len(snapSubvolumes))
	for _, s := range snapSubvolumes {
		inSnap[s] = true
	}
	for _, escaped := range liveSubvolumes {
		if inSnap[escaped] {
			continue
		}
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return err
		}
		livePath := path.Join(h.Root, rel)
		if exists, err := h.Backend.Exists(ctx, livePath); err != nil {
			return err
		} else if exists {
			continue
		}
		if err := h.applyOneFallback(ctx, backupDir, escaped, livePath, strategy); err != nil {
			return err
		}
	}
	return nil
}

func (h *TargetHost) applyOneFallback(ctx context.Context, backupDir, escaped, livePath string, strategy config.SubvolumeFallbackStrategy) error {
	switch strategy {
	case config.FallbackNone:
		return nil
	case config.FallbackKeepOld:
		backupPath := path.Join(backupDir, escaped)
		if exists, err := h.Backend.Exists(ctx, backupPath); err != nil {
			return err
		} else if exists {
			return h.Backend.Move(ctx, backupPath, livePath)
		}
		fallthrough
	default: // config.FallbackNewSubvolume
		return h.Backend.CreateSubvolume(ctx, livePath)
	}
}

// DeleteLive deletes every live subvolume in liveSubvolumes (escaped
// relative paths), used by REPLACE-rollback to discard the current live
// tree before restoring the replace-backup over it.
func (h *TargetHost) DeleteLive(ctx context.Context, liveSubvolumes []string) error {
	for _, escaped := range liveSubvolumes {
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return err
		}
		if err := h.Backend.DeleteSubvolume(ctx, path.Join(h.Root, rel)); err != nil {
			return err
		}
	}
	return nil
}

// RestoreBackupToLive moves every entry of the named replace-backup back
// to its live location, then removes the now-empty backup directory
// (spec §4.1 REPLACE-rollback: "move the replace-backup back to the live
// location").
func (h *TargetHost) RestoreBackupToLive(ctx context.Context, targetName, backupName string) error {
	root, err := h.ReplaceBackupRoot(ctx, targetName)
	if err != nil {
		return err
	}
	dir := path.Join(root, backupName)
	entries, err := h.Backend.ReadDir(ctx, dir)
	if err != nil {
		return err
	}
	for _, escaped := range entries {
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return err
		}
		if err := h.Backend.Move(ctx, path.Join(dir, escaped), path.Join(h.Root, rel)); err != nil {
			return err
		}
	}
	return h.Backend.RemoveDir(ctx, dir)
}

// DeleteReplaceBackup removes a replace-backup directory (and every
// subvolume it contains) at root/backupName.
func (h *TargetHost) DeleteReplaceBackup(ctx context.Context, targetName, backupName string) error {
	root, err := h.ReplaceBackupRoot(ctx, targetName)
	if err != nil {
		return err
	}
	dir := path.Join(root, backupName)
	entries, err := h.Backend.ReadDir(ctx, dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if err := h.Backend.DeleteSubvolume(ctx, path.Join(dir, entry)); err != nil {
			return err
		}
	}
	return h.Backend.RemoveDir(ctx, dir)
}
