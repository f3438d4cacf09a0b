package targethost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denialofsandwich/b4-backup/pkg/clock"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/transport"
)

func TestCreateSnapshotAndList(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend("/dev/sda1")
	backend.Seed("/src", []byte("root-data"))
	backend.Seed("/src/home", []byte("home-data"))
	backend.Seed("/src/home/cache", []byte("cache-data"))

	host := New("t1", "/src", backend, clock.Fixed{})
	live, err := host.Subvolumes(ctx)
	require.NoError(t, err)
	assert.Contains(t, live, snapshot.RootMarker)

	name, err := snapshot.FormatName(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "auto")
	require.NoError(t, err)

	created, err := host.CreateSnapshot(ctx, name, live)
	require.NoError(t, err)
	assert.Equal(t, name, created.Name)
	assert.True(t, created.HasSubvolume(snapshot.RootMarker))

	snaps, err := host.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, name, snaps[0].Name)
}

func TestSendSnapshotFullAndIncremental(t *testing.T) {
	ctx := context.Background()
	srcBackend := NewFakeBackend("/dev/sda1")
	dstBackend := NewFakeBackend("/dev/sdb1")

	srcBackend.Seed("/src", []byte("root"))
	srcBackend.Seed("/src/home", []byte("v1"))
	srcHost := New("t1", "/src", srcBackend, clock.Fixed{})
	dstHost := New("t1", "/dst", dstBackend, clock.Fixed{})

	name1, err := snapshot.FormatName(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "auto")
	require.NoError(t, err)
	live, err := srcHost.Subvolumes(ctx)
	require.NoError(t, err)
	snap1, err := srcHost.CreateSnapshot(ctx, name1, live)
	require.NoError(t, err)

	require.NoError(t, srcHost.SendSnapshot(ctx, dstHost, snap1, ""))

	dstSnaps, err := dstHost.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, dstSnaps, 1)
	assert.Equal(t, name1, dstSnaps[0].Name)

	// Second, incremental snapshot.
	srcBackend.subvolumes["/src/home"] = []byte("v2")
	name2, err := snapshot.FormatName(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "auto")
	require.NoError(t, err)
	live2, err := srcHost.Subvolumes(ctx)
	require.NoError(t, err)
	snap2, err := srcHost.CreateSnapshot(ctx, name2, live2)
	require.NoError(t, err)

	require.NoError(t, srcHost.SendSnapshot(ctx, dstHost, snap2, name1))

	dstSnaps, err = dstHost.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, dstSnaps, 2)
}

func TestDeleteSnapshotFullDeleteRemovesRootMarkerFirst(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend("/dev/sda1")
	backend.Seed("/src", []byte("root"))
	backend.Seed("/src/home", []byte("data"))
	host := New("t1", "/src", backend, clock.Fixed{})

	live, err := host.Subvolumes(ctx)
	require.NoError(t, err)
	name, err := snapshot.FormatName(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	snap, err := host.CreateSnapshot(ctx, name, live)
	require.NoError(t, err)

	require.NoError(t, host.DeleteSnapshot(ctx, snap, nil))

	for _, escaped := range snap.Subvolumes {
		exists, err := backend.Exists(ctx, snap.SubvolumePath(escaped))
		require.NoError(t, err)
		assert.False(t, exists)
	}
	require.NotEmpty(t, backend.DeleteOrder)
	assert.Equal(t, snap.SubvolumePath(snapshot.RootMarker), backend.DeleteOrder[0], "a full delete must remove the root marker before its nested subvolumes")
}

func TestDeleteSnapshotPartialDeleteRemovesRootMarkerLast(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend("/dev/sda1")
	backend.Seed("/src", []byte("root"))
	backend.Seed("/src/home", []byte("data"))
	host := New("t1", "/src", backend, clock.Fixed{})

	live, err := host.Subvolumes(ctx)
	require.NoError(t, err)
	name, err := snapshot.FormatName(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	snap, err := host.CreateSnapshot(ctx, name, live)
	require.NoError(t, err)

	require.NoError(t, host.DeleteSnapshot(ctx, snap, snap.Subvolumes))

	for _, escaped := range snap.Subvolumes {
		exists, err := backend.Exists(ctx, snap.SubvolumePath(escaped))
		require.NoError(t, err)
		assert.False(t, exists)
	}
	require.NotEmpty(t, backend.DeleteOrder)
	last := backend.DeleteOrder[len(backend.DeleteOrder)-1]
	assert.Equal(t, snap.SubvolumePath(snapshot.RootMarker), last, "a partial delete must remove the root marker after its nested subvolumes")
}

func TestSendSnapshotArchiveWritesCompressedFile(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend("/dev/sda1")
	backend.Seed("/src", []byte("root-data"))
	host := New("t1", "/src", backend, clock.Fixed{})

	live, err := host.Subvolumes(ctx)
	require.NoError(t, err)
	name, err := snapshot.FormatName(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "auto")
	require.NoError(t, err)
	snap, err := host.CreateSnapshot(ctx, name, live)
	require.NoError(t, err)

	require.NoError(t, host.SendSnapshotArchive(ctx, "/archive", snap, snapshot.RootMarker, transport.ArchiveFormatGzip))

	exists, err := backend.Exists(ctx, "/archive/"+name+".!.gzip")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRemoveEmptyDirsLeavesSubvolumesAlone(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend("/dev/sda1")
	backend.MkdirAll(ctx, "/dst/empty-dir")
	backend.Seed("/dst/2024-01-01-00-00-00/!", []byte("root"))

	host := New("t1", "/dst", backend, clock.Fixed{})
	require.NoError(t, host.RemoveEmptyDirs(ctx, "/dst"))

	exists, err := backend.Exists(ctx, "/dst/empty-dir")
	require.NoError(t, err)
	assert.False(t, exists, "empty plain directory should be removed")

	exists, err = backend.Exists(ctx, "/dst/2024-01-01-00-00-00/!")
	require.NoError(t, err)
	assert.True(t, exists, "subvolume must survive empty-dir cleanup")
}
