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
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
)

// FakeBackend is an in-memory Backend, used to drive TargetHost/Engine
// tests without a real btrfs filesystem (spec §8: "tests substitute an
// in-memory fake for the transport's shell-out mechanics").
type FakeBackend struct {
	// dirs tracks every plain directory that exists, including implicit
	// ancestors of subvolumes.
	dirs map[string]bool
	// subvolumes tracks every subvolume that exists, value is its data
	// payload (opaque bytes threaded through send/receive so tests can
	// assert on what actually made it across).
	subvolumes map[string][]byte
	mountPoint string
	// DeleteOrder records the path argument of every DeleteSubvolume
	// call in order, so tests can assert on deletion ordering invariants
	// (e.g. root-marker-first on a full delete, root-marker-last on a
	// partial one).
	DeleteOrder []string
}

// NewFakeBackend returns an empty fake rooted (for MountPoint purposes)
// at mountPoint.
func NewFakeBackend(mountPoint string) *FakeBackend {
	return &FakeBackend{
		dirs:       map[string]bool{"/": true},
		subvolumes: map[string][]byte{},
		mountPoint: mountPoint,
	}
}

// Seed registers path as an existing subvolume carrying data, creating
// any missing parent directories. Used by tests to set up a starting live
// tree before exercising a TargetHost operation.
func (b *FakeBackend) Seed(path string, data []byte) {
	b.ensureParents(path)
	b.subvolumes[path] = append([]byte(nil), data...)
}

func (b *FakeBackend) ensureParents(p string) {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		b.dirs[dir] = true
	}
}

func (b *FakeBackend) ListSubvolumes(ctx context.Context, root string) ([]string, error) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	seen := map[string]bool{}
	var out []string
	for p := range b.subvolumes {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rel := strings.TrimPrefix(p, prefix)
		if rel == "" {
			continue
		}
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *FakeBackend) IsSubvolume(ctx context.Context, p string) (bool, error) {
	_, ok := b.subvolumes[p]
	return ok, nil
}

func (b *FakeBackend) CreateSubvolume(ctx context.Context, p string) error {
	b.ensureParents(p)
	b.subvolumes[p] = []byte{}
	return nil
}

func (b *FakeBackend) CreateSnapshot(ctx context.Context, src, dst string, readOnly bool) error {
	data, ok := b.subvolumes[src]
	if !ok {
		return &notFoundError{path: src}
	}
	b.ensureParents(dst)
	b.subvolumes[dst] = append([]byte(nil), data...)
	return nil
}

func (b *FakeBackend) DeleteSubvolume(ctx context.Context, p string) error {
	if _, ok := b.subvolumes[p]; !ok {
		return &notFoundError{path: p}
	}
	b.DeleteOrder = append(b.DeleteOrder, p)
	delete(b.subvolumes, p)
	return nil
}

func (b *FakeBackend) MkdirAll(ctx context.Context, p string) error {
	b.dirs[p] = true
	b.ensureParents(p)
	return nil
}

func (b *FakeBackend) RemoveDir(ctx context.Context, p string) error {
	if !b.dirs[p] {
		return &notFoundError{path: p}
	}
	entries, _ := b.ReadDir(ctx, p)
	if len(entries) > 0 {
		return &notEmptyError{path: p}
	}
	delete(b.dirs, p)
	return nil
}

func (b *FakeBackend) Move(ctx context.Context, src, dst string) error {
	if data, ok := b.subvolumes[src]; ok {
		delete(b.subvolumes, src)
		b.ensureParents(dst)
		b.subvolumes[dst] = data
		return nil
	}
	if b.dirs[src] {
		delete(b.dirs, src)
		b.ensureParents(dst)
		b.dirs[dst] = true
		return nil
	}
	return &notFoundError{path: src}
}

func (b *FakeBackend) ReadDir(ctx context.Context, root string) ([]string, error) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		rel := strings.TrimPrefix(p, prefix)
		if rel == "" {
			return
		}
		name := rel
		if idx := strings.IndexByte(rel, '/'); idx >= 0 {
			name = rel[:idx]
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for p := range b.subvolumes {
		add(p)
	}
	for p := range b.dirs {
		add(p)
	}
	sort.Strings(out)
	return out, nil
}

func (b *FakeBackend) Exists(ctx context.Context, p string) (bool, error) {
	if _, ok := b.subvolumes[p]; ok {
		return true, nil
	}
	return b.dirs[p], nil
}

func (b *FakeBackend) MountPoint(ctx context.Context, p string) (string, error) {
	return b.mountPoint, nil
}

func (b *FakeBackend) OpenSendStream(ctx context.Context, p, parentPath string) (io.ReadCloser, func() error, error) {
	data, ok := b.subvolumes[p]
	if !ok {
		return nil, nil, &notFoundError{path: p}
	}
	// The fake send stream is just the raw payload; differential sends
	// against a parent carry the same payload, since diffing framing is
	// an on-wire format concern the in-memory fake has no need to model.
	return io.NopCloser(bytes.NewReader(data)), func() error { return nil }, nil
}

type fakeReceiveWriter struct {
	buf  bytes.Buffer
	dest *FakeBackend
	path string
}

func (w *fakeReceiveWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *fakeReceiveWriter) Close() error {
	w.dest.ensureParents(w.path)
	w.dest.subvolumes[w.path] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

func (b *FakeBackend) OpenReceiveStream(ctx context.Context, destDir, subvolumeName string) (io.WriteCloser, func() error, error) {
	w := &fakeReceiveWriter{dest: b, path: path.Join(destDir, subvolumeName)}
	return w, func() error { return nil }, nil
}

type fakeFileWriter struct {
	buf  bytes.Buffer
	dest *FakeBackend
	path string
}

func (w *fakeFileWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *fakeFileWriter) Close() error {
	w.dest.ensureParents(w.path)
	w.dest.subvolumes[w.path] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

// CreateFile stores the written bytes as if they were a subvolume payload
// at path, so tests can assert on archive-mirror content the same way
// they assert on replicated subvolume content.
func (b *FakeBackend) CreateFile(ctx context.Context, p string) (io.WriteCloser, error) {
	return &fakeFileWriter{dest: b, path: p}, nil
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string { return "not found: " + e.path }

type notEmptyError struct{ path string }

func (e *notEmptyError) Error() string { return "not empty: " + e.path }
