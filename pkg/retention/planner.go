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

// Package retention implements the chained "keep one per interval I for
// duration D" rule planner (spec §4.5): given a snapshot inventory
// filtered to one retention class, a ruleset, a "now" instant, and a seed
// set of already-obsolete names, it computes which snapshots to delete.
package retention

import (
	"time"

	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
)

// Group is a planning value: one retention class on one side of a target
// (spec §3 RetentionGroup).
type Group struct {
	RetentionName     string
	Ruleset           config.RetentionRuleset
	IsSource          bool
	ObsoleteSnapshots []string
	SnapshotInventory []snapshot.Snapshot
}

// Plan computes the names to delete from group.SnapshotInventory given
// "now". The seed-obsolete set is always deleted, even if a rule would
// otherwise retain it (spec §4.5 step 6).
func Plan(group Group, now time.Time) ([]string, error) {
	rules, err := group.Ruleset.Parsed()
	if err != nil {
		return nil, err
	}

	retained := make(map[string]bool, len(group.SnapshotInventory))
	for _, rule := range rules {
		filtered := filterByDuration(group.SnapshotInventory, rule.Duration, now)
		kept := bucketKeepLatest(filtered, rule.Interval, now)
		for _, s := range kept {
			retained[s.Name] = true
		}
	}

	seed := make(map[string]bool, len(group.ObsoleteSnapshots))
	for _, name := range group.ObsoleteSnapshots {
		seed[name] = true
	}

	var toDelete []string
	for _, s := range group.SnapshotInventory {
		if seed[s.Name] || !retained[s.Name] {
			toDelete = append(toDelete, s.Name)
		}
	}
	return toDelete, nil
}

func filterByDuration(input []snapshot.Snapshot, d config.Duration, now time.Time) []snapshot.Snapshot {
	if d.Forever {
		return input
	}
	if d.Count > 0 {
		sorted := make([]snapshot.Snapshot, len(input))
		copy(sorted, input)
		snapshot.SortByName(sorted)
		// Most recent first.
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
		if len(sorted) > d.Count {
			sorted = sorted[:d.Count]
		}
		return sorted
	}
	var out []snapshot.Snapshot
	cutoff := now.Add(-d.Window)
	for _, s := range input {
		t, err := s.Time()
		if err != nil {
			continue
		}
		if t.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func bucketKeepLatest(input []snapshot.Snapshot, interval config.Interval, now time.Time) []snapshot.Snapshot {
	if len(input) == 0 {
		return nil
	}
	if interval.All {
		// "all" bucketing keeps every snapshot the duration filter
		// already admitted (e.g. {interval: "all", duration: 2} keeps
		// the 2 most recent, not just 1) — no further bucketing.
		return input
	}
	buckets := make(map[int64]snapshot.Snapshot)
	var order []int64
	for _, s := range input {
		t, err := s.Time()
		if err != nil {
			continue
		}
		var bucket int64
		if interval.Width > 0 {
			bucket = int64(now.Sub(t) / interval.Width)
		}
		existing, ok := buckets[bucket]
		if !ok {
			order = append(order, bucket)
			buckets[bucket] = s
			continue
		}
		existingTime, _ := existing.Time()
		if t.After(existingTime) {
			buckets[bucket] = s
		}
	}
	out := make([]snapshot.Snapshot, 0, len(order))
	for _, b := range order {
		out = append(out, buckets[b])
	}
	return out
}
