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

// Package targethost implements TargetHost (spec §4.2): the side of a
// target (source or destination) that knows how to list, create, delete,
// and ship snapshots, speaking to the filesystem through a Backend.
package targethost

import (
	"context"
	"io"
)

// Backend is the narrow set of filesystem tool invocations a TargetHost
// needs. Spec §1 places the transport's shell-out mechanics outside core
// scope but allows "a conforming implementation [to] replace shelling out
// with a native API binding" — Backend is that seam: TransportBackend
// issues real btrfs-progs/coreutils commands over a transport.Transport,
// while a test-only fake satisfies the same interface without touching a
// filesystem at all.
type Backend interface {
	// ListSubvolumes lists the paths, relative to path, of the btrfs
	// subvolumes below path (not regular directories), nested ones
	// included.
	ListSubvolumes(ctx context.Context, path string) ([]string, error)

	// IsSubvolume reports whether path is itself a subvolume.
	IsSubvolume(ctx context.Context, path string) (bool, error)

	// CreateSubvolume creates a new, empty, writable subvolume at path.
	// Used by REPLACE restore's NEW_SUBVOLUME fallback (spec §4.3).
	CreateSubvolume(ctx context.Context, path string) error

	// CreateSnapshot creates a snapshot of src at dst. readOnly controls
	// whether the new snapshot is created read-only (backup snapshots
	// always are; the "REPLACE" rollback source control plane may not
	// be, see spec §4.3).
	CreateSnapshot(ctx context.Context, src, dst string, readOnly bool) error

	// DeleteSubvolume deletes the subvolume at path.
	DeleteSubvolume(ctx context.Context, path string) error

	// MkdirAll creates path and any missing parents as plain
	// directories (not subvolumes).
	MkdirAll(ctx context.Context, path string) error

	// RemoveDir removes the plain, empty directory at path. It must
	// fail (and the caller must tolerate the failure) if the directory
	// is not empty, so that remove_empty_dirs (spec §4.2) never
	// descends into a populated subvolume by accident.
	RemoveDir(ctx context.Context, path string) error

	// Move renames src to dst.
	Move(ctx context.Context, src, dst string) error

	// ReadDir lists the immediate entry names of path, including plain
	// directories and subvolumes alike.
	ReadDir(ctx context.Context, path string) ([]string, error)

	// Exists reports whether path exists, of any kind.
	Exists(ctx context.Context, path string) (bool, error)

	// MountPoint returns the mount point of the btrfs filesystem that
	// contains path, used to resolve the on-disk root for a host's
	// configured URL path (spec §6).
	MountPoint(ctx context.Context, path string) (string, error)

	// OpenSendStream starts a "btrfs send" of the subvolume at path,
	// differential against parentPath if non-empty, and returns a
	// reader for the stream plus a finish function that must be called
	// once the reader has been fully drained (or send is to be
	// abandoned) to await completion and surface any error.
	OpenSendStream(ctx context.Context, path, parentPath string) (r io.ReadCloser, finish func() error, err error)

	// OpenReceiveStream starts a "btrfs receive" rooted at destDir and
	// returns a writer to stream the send data into, plus a finish
	// function that must be called once writing is complete to await
	// completion and surface any error. subvolumeName is the escaped
	// name the arriving subvolume is expected to materialize as; a real
	// "btrfs receive" derives this from the stream itself and ignores
	// the hint, but an in-memory fake has no stream format to read it
	// from and needs it to place the result.
	OpenReceiveStream(ctx context.Context, destDir, subvolumeName string) (w io.WriteCloser, finish func() error, err error)

	// CreateFile opens path for writing as a plain file (not a
	// subvolume or a btrfs-receive target), truncating it if it already
	// exists. Used by archive-mirror export, which writes a compressed
	// send stream straight to a flat file instead of replaying it
	// through "btrfs receive" (spec §6 ambient addition, mirrors the
	// teacher's compressed sync managers writing to `os.Create`d files).
	CreateFile(ctx context.Context, path string) (io.WriteCloser, error)
}
