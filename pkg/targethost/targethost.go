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
	"io"
	"path"
	"strings"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
	"github.com/denialofsandwich/b4-backup/pkg/clock"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/transport"
)

// TargetHost is one side (source or destination) of a target: a root
// path on a Backend, holding a tree of snapshot directories (spec §4.2).
type TargetHost struct {
	TargetName string
	Root       string
	Backend    Backend
	Clock      clock.Clock
}

// New returns a TargetHost rooted at root, backed by b.
func New(targetName, root string, b Backend, c clock.Clock) *TargetHost {
	return &TargetHost{TargetName: targetName, Root: root, Backend: b, Clock: c}
}

// Snapshots lists every snapshot directory under the host's root,
// ordered chronologically (spec §4.2 "snapshots()").
func (h *TargetHost) Snapshots(ctx context.Context) ([]snapshot.Snapshot, error) {
	entries, err := h.Backend.ReadDir(ctx, h.Root)
	if err != nil {
		return nil, fmt.Errorf("list snapshots under %s: %w", h.Root, err)
	}
	var out []snapshot.Snapshot
	for _, name := range entries {
		if !snapshot.IsValidName(name) {
			continue
		}
		subvols, err := h.subvolumesOf(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot.Snapshot{Name: name, BasePath: h.Root, Subvolumes: subvols})
	}
	snapshot.SortByName(out)
	return out, nil
}

func (h *TargetHost) subvolumesOf(ctx context.Context, snapshotName string) ([]string, error) {
	dir := path.Join(h.Root, snapshotName)
	entries, err := h.Backend.ReadDir(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list subvolumes in snapshot %s: %w", snapshotName, err)
	}
	return entries, nil
}

// Subvolumes discovers the set of live subvolume relative paths rooted at
// the host's root (spec §4.2 "subvolumes()"). The root itself is always
// included, represented by snapshot.RootMarker. Subvolumes inside the
// host's own snapshot directories (whose first path segment is a valid
// snapshot name) are not part of the live tree and are skipped.
func (h *TargetHost) Subvolumes(ctx context.Context) ([]string, error) {
	children, err := h.Backend.ListSubvolumes(ctx, h.Root)
	if err != nil {
		return nil, err
	}
	out := []string{snapshot.RootMarker}
	for _, rel := range children {
		if first, _, _ := strings.Cut(rel, "/"); snapshot.IsValidName(first) {
			continue
		}
		out = append(out, snapshot.Escape(rel))
	}
	return out, nil
}

// CreateSnapshot creates a read-only snapshot named name of every
// subvolume listed in liveSubvolumes (escaped relative paths, as returned
// by Subvolumes), laid out under h.Root/name.
func (h *TargetHost) CreateSnapshot(ctx context.Context, name string, liveSubvolumes []string) (snapshot.Snapshot, error) {
	dir := path.Join(h.Root, name)
	if err := h.Backend.MkdirAll(ctx, dir); err != nil {
		return snapshot.Snapshot{}, err
	}
	var created []string
	for _, escaped := range liveSubvolumes {
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			return snapshot.Snapshot{}, err
		}
		src := path.Join(h.Root, rel)
		dst := path.Join(dir, escaped)
		if err := h.Backend.CreateSnapshot(ctx, src, dst, true); err != nil {
			return snapshot.Snapshot{}, err
		}
		created = append(created, escaped)
	}
	return snapshot.Snapshot{Name: name, BasePath: h.Root, Subvolumes: created}, nil
}

// DeleteSnapshot deletes the given subset of a snapshot's escaped
// subvolumes, or every subvolume when subset is nil (a full snapshot
// deletion). The root marker's position in that ordering depends on
// which this is (spec §4.2 "delete_snapshot", §9): a full deletion
// removes the root marker first, since nothing is left partially pruned
// behind it; a partial deletion (subset non-nil) removes the root marker
// last, so a snapshot being whittled down never loses its ability to
// answer parent selection before its other subvolumes are gone. A full
// deletion also removes the now-empty snapshot directory.
func (h *TargetHost) DeleteSnapshot(ctx context.Context, snap snapshot.Snapshot, subset []string) error {
	full := subset == nil
	targets := subset
	if full {
		targets = snap.Subvolumes
	}
	root, rest := false, targets[:0:0]
	for _, escaped := range targets {
		if escaped == snapshot.RootMarker {
			root = true
			continue
		}
		rest = append(rest, escaped)
	}

	deleteRoot := func() error {
		if !root {
			return nil
		}
		return h.Backend.DeleteSubvolume(ctx, snap.SubvolumePath(snapshot.RootMarker))
	}
	deleteRest := func() error {
		for _, escaped := range rest {
			if err := h.Backend.DeleteSubvolume(ctx, snap.SubvolumePath(escaped)); err != nil {
				return err
			}
		}
		return nil
	}

	if full {
		if err := deleteRoot(); err != nil {
			return err
		}
		if err := deleteRest(); err != nil {
			return err
		}
		return h.Backend.RemoveDir(ctx, snap.Dir())
	}
	if err := deleteRest(); err != nil {
		return err
	}
	return deleteRoot()
}

// SendSnapshot ships snap to dst, differentially against parentName if
// non-empty (spec §4.2 "send_snapshot()", §4.4). It streams each
// subvolume of snap in turn, piping this host's send stream into the
// destination's receive stream.
func (h *TargetHost) SendSnapshot(ctx context.Context, dst *TargetHost, snap snapshot.Snapshot, parentName string) error {
	destDir := path.Join(dst.Root, snap.Name)
	if err := dst.Backend.MkdirAll(ctx, destDir); err != nil {
		return err
	}
	for _, escaped := range snap.Subvolumes {
		srcPath := snap.SubvolumePath(escaped)
		var parentPath string
		if parentName != "" {
			parentPath = path.Join(h.Root, parentName, escaped)
			if exists, err := h.Backend.Exists(ctx, parentPath); err != nil {
				return err
			} else if !exists {
				parentPath = ""
			}
		}
		if err := h.pipeSubvolume(ctx, dst, srcPath, parentPath, destDir, escaped); err != nil {
			return fmt.Errorf("send %s subvolume %s: %w", snap.Name, escaped, err)
		}
	}
	return nil
}

func (h *TargetHost) pipeSubvolume(ctx context.Context, dst *TargetHost, srcPath, parentPath, destDir, escaped string) error {
	reader, finishSend, err := h.Backend.OpenSendStream(ctx, srcPath, parentPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	writer, finishReceive, err := dst.Backend.OpenReceiveStream(ctx, destDir, escaped)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(writer, reader)
	writer.Close()

	if err := finishReceive(); err != nil {
		return err
	}
	if err := finishSend(); err != nil {
		return err
	}
	return copyErr
}

// SendSnapshotArchive ships snap as a single compressed flat file under
// archiveDir instead of replaying it through "btrfs receive" (spec §6
// ambient addition, mirrors the teacher's compressed sync managers, which
// write a send stream straight to a `*.gz`/`*.zst` file rather than to a
// live subvolume). Only the one subvolume named by escaped is archived,
// since a flat file has no notion of nested subvolumes; callers that need
// every subvolume archived call this once per escaped entry.
func (h *TargetHost) SendSnapshotArchive(ctx context.Context, archiveDir string, snap snapshot.Snapshot, escaped string, format transport.ArchiveFormat) error {
	if err := h.Backend.MkdirAll(ctx, archiveDir); err != nil {
		return err
	}
	reader, finishSend, err := h.Backend.OpenSendStream(ctx, snap.SubvolumePath(escaped), "")
	if err != nil {
		return err
	}
	defer reader.Close()

	ext := string(format)
	if ext == "" {
		ext = "raw"
	}
	destPath := path.Join(archiveDir, snap.Name+"."+escaped+"."+ext)
	file, err := h.Backend.CreateFile(ctx, destPath)
	if err != nil {
		return err
	}

	encoder, err := transport.NewEncoder(format, file)
	if err != nil {
		file.Close()
		return err
	}

	_, copyErr := io.Copy(encoder, reader)
	encErr := encoder.Close()
	fileErr := file.Close()

	if err := finishSend(); err != nil {
		return err
	}
	if copyErr != nil {
		return fmt.Errorf("archive %s subvolume %s: %w", snap.Name, escaped, copyErr)
	}
	if encErr != nil {
		return encErr
	}
	return fileErr
}

// RemoveEmptyDirs walks the host's root tree and removes any plain
// directory left with no entries once outdated snapshots have been
// pruned, mirroring the teacher's cleanup-after-delete pattern. It never
// attempts to remove a subvolume; RemoveDir's failure on a non-empty
// directory is tolerated rather than treated as fatal, so a directory
// that still holds live subvolumes is silently left alone (spec §9).
func (h *TargetHost) RemoveEmptyDirs(ctx context.Context, root string) error {
	entries, err := h.Backend.ReadDir(ctx, root)
	if err != nil {
		return nil
	}
	for _, name := range entries {
		child := path.Join(root, name)
		isSubvol, err := h.Backend.IsSubvolume(ctx, child)
		if err != nil {
			return err
		}
		if isSubvol {
			continue
		}
		if err := h.RemoveEmptyDirs(ctx, child); err != nil {
			return err
		}
	}
	_ = h.Backend.RemoveDir(ctx, root)
	return nil
}

// SourceSubvolumesFromSnapshot returns the escaped relative subvolume
// paths present in snap, excluding the root marker (spec §4.2).
func (h *TargetHost) SourceSubvolumesFromSnapshot(snap snapshot.Snapshot) []string {
	return snap.SourceSubvolumes()
}

// MountPoint resolves the mount point backing this host's root (spec §6
// ambient addition), used to locate the replace-backup bookkeeping root.
// It does not check that the filesystem is btrfs.
func (h *TargetHost) MountPoint(ctx context.Context) (string, error) {
	mp, err := h.Backend.MountPoint(ctx, h.Root)
	if err != nil {
		return "", &b4err.BtrfsPartitionNotFoundError{Path: h.Root}
	}
	return mp, nil
}
