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
	"strings"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
	"github.com/denialofsandwich/b4-backup/pkg/transport"
)

// TransportBackend implements Backend by composing argv slices for the
// btrfs-progs and coreutils commands the teacher's syncBtrfs/sshutil code
// shells out to, and issuing them through a transport.Transport.
type TransportBackend struct {
	Transport transport.Transport
}

// NewTransportBackend returns a Backend that issues real commands over t.
func NewTransportBackend(t transport.Transport) *TransportBackend {
	return &TransportBackend{Transport: t}
}

func (b *TransportBackend) ListSubvolumes(ctx context.Context, path string) ([]string, error) {
	out, err := b.Transport.Run(ctx, []string{"btrfs", "subvolume", "list", "-o", path})
	if err != nil {
		return nil, fmt.Errorf("list subvolumes under %s: %w", path, err)
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		// btrfs subvolume list prints its relative path as the final
		// field; take only the last path segment, since -o already
		// scopes the listing to immediate children of path. Subvolumes
		// nested below those children are not returned.
		rel := fields[len(fields)-1]
		names = append(names, lastSegment(rel))
	}
	return names, nil
}

func (b *TransportBackend) IsSubvolume(ctx context.Context, path string) (bool, error) {
	_, err := b.Transport.Run(ctx, []string{"btrfs", "subvolume", "show", path})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *TransportBackend) CreateSubvolume(ctx context.Context, path string) error {
	if _, err := b.Transport.Run(ctx, []string{"btrfs", "subvolume", "create", path}); err != nil {
		return fmt.Errorf("create subvolume %s: %w", path, err)
	}
	return nil
}

func (b *TransportBackend) CreateSnapshot(ctx context.Context, src, dst string, readOnly bool) error {
	argv := []string{"btrfs", "subvolume", "snapshot"}
	if readOnly {
		argv = append(argv, "-r")
	}
	argv = append(argv, src, dst)
	if _, err := b.Transport.Run(ctx, argv); err != nil {
		return fmt.Errorf("create snapshot %s -> %s: %w", src, dst, err)
	}
	return nil
}

func (b *TransportBackend) DeleteSubvolume(ctx context.Context, path string) error {
	if _, err := b.Transport.Run(ctx, []string{"btrfs", "subvolume", "delete", path}); err != nil {
		return fmt.Errorf("delete subvolume %s: %w", path, err)
	}
	return nil
}

func (b *TransportBackend) MkdirAll(ctx context.Context, path string) error {
	if _, err := b.Transport.Run(ctx, []string{"mkdir", "-p", path}); err != nil {
		return fmt.Errorf("mkdir -p %s: %w", path, err)
	}
	return nil
}

func (b *TransportBackend) RemoveDir(ctx context.Context, path string) error {
	if _, err := b.Transport.Run(ctx, []string{"rmdir", path}); err != nil {
		return fmt.Errorf("rmdir %s: %w", path, err)
	}
	return nil
}

func (b *TransportBackend) Move(ctx context.Context, src, dst string) error {
	if _, err := b.Transport.Run(ctx, []string{"mv", src, dst}); err != nil {
		return fmt.Errorf("mv %s %s: %w", src, dst, err)
	}
	return nil
}

func (b *TransportBackend) ReadDir(ctx context.Context, path string) ([]string, error) {
	out, err := b.Transport.Run(ctx, []string{"ls", "-1A", path})
	if err != nil {
		return nil, fmt.Errorf("ls %s: %w", path, err)
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (b *TransportBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.Transport.Run(ctx, []string{"test", "-e", path})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *TransportBackend) MountPoint(ctx context.Context, path string) (string, error) {
	out, err := b.Transport.Run(ctx, []string{"df", "--output=target", path})
	if err != nil {
		return "", fmt.Errorf("resolve mount point of %s: %w", path, &b4err.BtrfsPartitionNotFoundError{Path: path})
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return "", &b4err.BtrfsPartitionNotFoundError{Path: path}
	}
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// OpenSendStream runs "btrfs send [-p parentPath] path", streamed via
// transport.StartReceive because the wire data arrives on the command's
// stdout (the teacher's syncBtrfs pipes btrfs send's stdout straight
// through to io.Copy).
func (b *TransportBackend) OpenSendStream(ctx context.Context, path, parentPath string) (io.ReadCloser, func() error, error) {
	argv := []string{"btrfs", "send"}
	if parentPath != "" {
		argv = append(argv, "-p", parentPath)
	}
	argv = append(argv, path)
	return b.Transport.StartReceive(ctx, argv)
}

// OpenReceiveStream runs "btrfs receive destDir", streamed via
// transport.StartSend because the wire data must be written to the
// command's stdin (the teacher's syncBtrfs wires sess.StdinPipe() up as
// the destination of the copy).
func (b *TransportBackend) OpenReceiveStream(ctx context.Context, destDir, subvolumeName string) (io.WriteCloser, func() error, error) {
	return b.Transport.StartSend(ctx, []string{"btrfs", "receive", destDir})
}

// CreateFile opens path via "dd of=path", the same argv-piping idiom
// OpenReceiveStream uses, so a plain file write goes through the
// transport exactly like every other data-moving command (local or SSH)
// instead of requiring a separate filesystem API.
func (b *TransportBackend) CreateFile(ctx context.Context, path string) (io.WriteCloser, error) {
	w, finish, err := b.Transport.StartSend(ctx, []string{"dd", "of=" + path, "bs=1M"})
	if err != nil {
		return nil, err
	}
	return &finishingWriteCloser{WriteCloser: w, finish: finish}, nil
}

// finishingWriteCloser runs a transport's finish function on Close, so
// callers that only hold an io.WriteCloser still await command
// completion and surface its error.
type finishingWriteCloser struct {
	io.WriteCloser
	finish func() error
}

func (f *finishingWriteCloser) Close() error {
	closeErr := f.WriteCloser.Close()
	if err := f.finish(); err != nil {
		return err
	}
	return closeErr
}

func lastSegment(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}
