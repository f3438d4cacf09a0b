package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denialofsandwich/b4-backup/pkg/clock"
	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/targethost"
)

func newPairedHosts(t *testing.T) (*targethost.FakeBackend, *targethost.FakeBackend, *targethost.TargetHost, *targethost.TargetHost) {
	t.Helper()
	srcBackend := targethost.NewFakeBackend("/dev/sda1")
	dstBackend := targethost.NewFakeBackend("/dev/sdb1")
	srcBackend.Seed("/src", []byte("root"))
	src := targethost.New("t1", "/src", srcBackend, clock.Fixed{})
	dst := targethost.New("t1", "/dst", dstBackend, clock.Fixed{})
	return srcBackend, dstBackend, src, dst
}

// Scenario A: basic backup+send with an ignored subpath.
func TestScenarioA_BasicBackupAndSend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 26, 10, 0, 0, 0, time.UTC)
	srcBackend, dstBackend, src, dst := newPairedHosts(t)
	srcBackend.Seed("/src/home", []byte("home"))
	srcBackend.Seed("/src/home/cache", []byte("cache"))

	target := config.Target{
		Name:            "t1",
		IgnoredSubpaths: []string{"home/cache"},
	}

	e := New(clock.Fixed{Instant: now})
	snap, err := e.Backup(ctx, target, src, dst, "manual")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-26-10-00-00_manual", snap.Name)

	dstSnaps, err := dst.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, dstSnaps, 1)
	assert.ElementsMatch(t, []string{snapshot.RootMarker, "!home"}, dstSnaps[0].Subvolumes)

	for _, escaped := range dstSnaps[0].Subvolumes {
		assert.NotContains(t, escaped, "cache")
	}
	exists, err := dstBackend.Exists(ctx, dstSnaps[0].SubvolumePath("!home!cache"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// Scenario B: with the first two snapshots on both hosts, sending the
// third goes through the incremental-parent path and all three end up on
// dst. Which parent is chosen is checked by
// TestSelectParentPrefersClosestOlder in pkg/snapshot.
func TestScenarioB_IncrementalParentPick(t *testing.T) {
	ctx := context.Background()
	srcBackend, _, src, dst := newPairedHosts(t)

	names := []string{
		"2024-01-01-00-00-00_auto", // alpha
		"2024-01-02-00-00-00_auto", // bravo
		"2024-01-03-00-00-00_auto", // charlie
	}
	e := New(clock.Fixed{})
	for i, name := range names {
		srcBackend.Seed("/src", []byte{byte(i)})
		live, err := src.Subvolumes(ctx)
		require.NoError(t, err)
		_, err = src.CreateSnapshot(ctx, name, live)
		require.NoError(t, err)
		if i < 2 {
			require.NoError(t, e.sendIncremental(ctx, "t1", src, dst, name))
		}
	}

	require.NoError(t, e.sendIncremental(ctx, "t1", src, dst, names[2]))

	dstSnaps, err := dst.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, dstSnaps, 3)
}

// Scenario D: REPLACE then rollback.
func TestScenarioD_ReplaceThenRollback(t *testing.T) {
	ctx := context.Background()
	srcBackend, _, src, _ := newPairedHosts(t)
	srcBackend.Seed("/src/home", []byte("home-v1"))

	target := config.Target{
		Name:                      "t1",
		SubvolumeFallbackStrategy: config.FallbackNewSubvolume,
	}
	e := New(clock.Fixed{Instant: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	live, err := src.Subvolumes(ctx)
	require.NoError(t, err)
	snapBeforeA := "2023-12-31-00-00-00"
	snap, err := src.CreateSnapshot(ctx, snapBeforeA, live)
	require.NoError(t, err)

	// Live tree gains /home/a after the snapshot was taken.
	srcBackend.Seed("/src/home/a", []byte("a-v1"))

	require.NoError(t, e.Restore(ctx, target, src, nil, snap.Name, config.RestoreReplace))

	exists, err := srcBackend.Exists(ctx, "/src/home/a")
	require.NoError(t, err)
	assert.True(t, exists, "fallback should have created an empty /home/a")

	require.NoError(t, e.Restore(ctx, target, src, nil, snapshot.ReservedName, config.RestoreReplace))

	exists, err = srcBackend.Exists(ctx, "/src/home/a")
	require.NoError(t, err)
	assert.True(t, exists, "rollback should restore original /home/a")
}

// Scenario E: orphan destination subvolume pruned by clean.
func TestScenarioE_OrphanPruning(t *testing.T) {
	ctx := context.Background()
	_, dstBackend, src, dst := newPairedHosts(t)
	srcBackend := targethost.NewFakeBackend("/dev/sda1")
	srcBackend.Seed("/src", []byte("root"))
	srcBackend.Seed("/src/data", []byte("data"))
	src = targethost.New("t1", "/src", srcBackend, clock.Fixed{})

	name := "2024-01-01-00-00-00"
	srcLive, err := src.Subvolumes(ctx)
	require.NoError(t, err)
	srcSnap, err := src.CreateSnapshot(ctx, name, srcLive)
	require.NoError(t, err)

	dstBackend.Seed("/dst/"+name+"/!", []byte("root"))
	dstBackend.Seed("/dst/"+name+"/!data", []byte("data"))
	dstBackend.Seed("/dst/"+name+"/!stale", []byte("stale"))

	e := New(clock.Fixed{})
	target := config.Target{Name: "t1"}
	require.NoError(t, e.Clean(ctx, target, src, dst))

	dstSnaps, err := dst.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, dstSnaps, 1)
	assert.ElementsMatch(t, srcSnap.Subvolumes, dstSnaps[0].Subvolumes)
	assert.NotContains(t, dstSnaps[0].Subvolumes, "!stale")
}

// Scenario F: SAFE restore transfers from dst without touching src live.
func TestScenarioF_SafeRestoreTransfersFromDestination(t *testing.T) {
	ctx := context.Background()
	_, dstBackend, src, dst := newPairedHosts(t)

	name := "2024-01-01-00-00-00"
	dstBackend.Seed("/dst/"+name+"/!", []byte("root"))

	target := config.Target{Name: "t1"}
	e := New(clock.Fixed{})
	require.NoError(t, e.Restore(ctx, target, src, dst, name, config.RestoreSafe))

	srcSnaps, err := src.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, srcSnaps, 1)
	assert.Equal(t, name, srcSnaps[0].Name)

	exists, err := src.Backend.Exists(ctx, "/src")
	require.NoError(t, err)
	assert.True(t, exists, "live root must be untouched by SAFE restore")
}

func TestRestoreSafeRejectsReplaceName(t *testing.T) {
	ctx := context.Background()
	_, _, src, dst := newPairedHosts(t)
	e := New(clock.Fixed{})
	err := e.Restore(ctx, config.Target{Name: "t1"}, src, dst, snapshot.ReservedName, config.RestoreSafe)
	require.Error(t, err)
}

func TestDeleteAllExpandsALL(t *testing.T) {
	ctx := context.Background()
	srcBackend, _, src, _ := newPairedHosts(t)
	e := New(clock.Fixed{})

	for _, name := range []string{"2024-01-01-00-00-00_auto", "2024-01-02-00-00-00_manual"} {
		live, err := src.Subvolumes(ctx)
		require.NoError(t, err)
		_, err = src.CreateSnapshot(ctx, name, live)
		require.NoError(t, err)
		srcBackend.Seed("/src", []byte("churn"))
	}

	require.NoError(t, e.DeleteAll(ctx, src, []string{"ALL"}))

	snaps, err := src.Snapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
