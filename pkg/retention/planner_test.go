package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
)

func mustName(t *testing.T, when time.Time) string {
	t.Helper()
	name, err := snapshot.FormatName(when, "auto")
	require.NoError(t, err)
	return name
}

// buildEvery15Minutes builds a 40-hour inventory, one snapshot every 15
// minutes, ending at "now" (spec §8 scenario C).
func buildEvery15Minutes(t *testing.T, now time.Time) []snapshot.Snapshot {
	t.Helper()
	var out []snapshot.Snapshot
	for mins := 0; mins <= 40*60; mins += 15 {
		when := now.Add(-time.Duration(mins) * time.Minute)
		out = append(out, snapshot.Snapshot{Name: mustName(t, when)})
	}
	return out
}

func TestScenarioC_HourlyWithinADay(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inventory := buildEvery15Minutes(t, now)

	group := Group{
		RetentionName: "auto",
		Ruleset: config.RetentionRuleset{
			{Interval: "1hour", Duration: "1day"},
		},
		SnapshotInventory: inventory,
	}

	toDelete, err := Plan(group, now)
	require.NoError(t, err)

	deleted := make(map[string]bool, len(toDelete))
	for _, name := range toDelete {
		deleted[name] = true
	}

	keptWithin24h := 0
	for _, s := range inventory {
		when, err := s.Time()
		require.NoError(t, err)
		age := now.Sub(when)
		if age <= 24*time.Hour && !deleted[s.Name] {
			keptWithin24h++
		}
	}
	// One survivor per hour bucket across the 24h window: the cutoff
	// excludes the snapshot exactly 24h old, leaving buckets 0..23.
	assert.InDelta(t, 24, keptWithin24h, 1)

	// Nothing older than 24h survives (duration cutoff excludes it, and
	// the rule never re-admits it).
	for _, s := range inventory {
		when, err := s.Time()
		require.NoError(t, err)
		if now.Sub(when) > 24*time.Hour {
			assert.True(t, deleted[s.Name], "snapshot older than 24h should be deleted: %s", s.Name)
		}
	}
}

func TestRetentionIdempotent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inventory := buildEvery15Minutes(t, now)
	group := Group{
		Ruleset:           config.RetentionRuleset{{Interval: "1hour", Duration: "1day"}},
		SnapshotInventory: inventory,
	}

	toDelete, err := Plan(group, now)
	require.NoError(t, err)
	deleted := make(map[string]bool, len(toDelete))
	for _, n := range toDelete {
		deleted[n] = true
	}
	var remaining []snapshot.Snapshot
	for _, s := range inventory {
		if !deleted[s.Name] {
			remaining = append(remaining, s)
		}
	}

	secondPass := Group{
		Ruleset:           group.Ruleset,
		SnapshotInventory: remaining,
	}
	toDeleteAgain, err := Plan(secondPass, now)
	require.NoError(t, err)
	assert.Empty(t, toDeleteAgain, "applying clean twice must not delete anything further")
}

func TestRetentionMonotonicity(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ruleset := config.RetentionRuleset{{Interval: "1hour", Duration: "1day"}}

	recent := snapshot.Snapshot{Name: mustName(t, now.Add(-10*time.Minute))}
	group := Group{Ruleset: ruleset, SnapshotInventory: []snapshot.Snapshot{recent}}
	toDelete, err := Plan(group, now)
	require.NoError(t, err)
	assert.NotContains(t, toDelete, recent.Name)

	older := snapshot.Snapshot{Name: mustName(t, now.Add(-30*24*time.Hour))}
	groupWithOlder := Group{Ruleset: ruleset, SnapshotInventory: []snapshot.Snapshot{recent, older}}
	toDeleteWithOlder, err := Plan(groupWithOlder, now)
	require.NoError(t, err)
	assert.NotContains(t, toDeleteWithOlder, recent.Name, "adding an older snapshot must not cause a newer one to be deleted")
}

func TestSeedObsoleteAlwaysDeletedEvenIfRuleWouldRetain(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := snapshot.Snapshot{Name: mustName(t, now.Add(-time.Minute))}
	group := Group{
		Ruleset:           config.RetentionRuleset{{Interval: "all", Duration: "forever"}},
		SnapshotInventory: []snapshot.Snapshot{recent},
		ObsoleteSnapshots: []string{recent.Name},
	}
	toDelete, err := Plan(group, now)
	require.NoError(t, err)
	assert.Contains(t, toDelete, recent.Name)
}

func TestKeepNMostRecent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var inventory []snapshot.Snapshot
	for i := 0; i < 5; i++ {
		inventory = append(inventory, snapshot.Snapshot{Name: mustName(t, now.Add(-time.Duration(i)*time.Hour))})
	}
	group := Group{
		Ruleset:           config.RetentionRuleset{{Interval: "all", Duration: "2"}},
		SnapshotInventory: inventory,
	}
	toDelete, err := Plan(group, now)
	require.NoError(t, err)
	assert.Len(t, toDelete, 3)
}

func TestAllIntervalKeepsEveryDurationAdmittedSnapshot(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := snapshot.Snapshot{Name: mustName(t, now.Add(-3*time.Hour))}
	middle := snapshot.Snapshot{Name: mustName(t, now.Add(-2*time.Hour))}
	newest := snapshot.Snapshot{Name: mustName(t, now.Add(-1*time.Hour))}
	group := Group{
		Ruleset:           config.RetentionRuleset{{Interval: "all", Duration: "forever"}},
		SnapshotInventory: []snapshot.Snapshot{oldest, middle, newest},
	}
	toDelete, err := Plan(group, now)
	require.NoError(t, err)
	assert.Empty(t, toDelete)
}
