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

// Package snapshot implements the path-escaping scheme and the
// timestamp-prefixed naming grammar shared by every snapshot directory the
// engine creates, ships, or prunes, plus the Snapshot value itself.
package snapshot

import (
	"path"
	"sort"
	"time"
)

// Snapshot is a named, timestamped point-in-time backup unit: a directory
// holding one read-only subvolume per entry in Subvolumes, each named by
// its escaped relative path. Subvolumes preserves discovery/insertion
// order; the root marker ("!"), when present, is conventionally first.
type Snapshot struct {
	Name       string
	BasePath   string
	Subvolumes []string
}

// Time returns the timestamp encoded in the snapshot's name.
func (s Snapshot) Time() (time.Time, error) {
	t, _, err := ParseName(s.Name)
	return t, err
}

// RetentionName returns the retention suffix encoded in the snapshot's
// name, or "" if the name carries none.
func (s Snapshot) RetentionName() (string, error) {
	_, suffix, err := ParseName(s.Name)
	return suffix, err
}

// Dir returns the directory holding this snapshot's subvolumes.
func (s Snapshot) Dir() string {
	return path.Join(s.BasePath, s.Name)
}

// SubvolumePath returns the on-disk path of one escaped subvolume entry.
func (s Snapshot) SubvolumePath(escaped string) string {
	return path.Join(s.Dir(), escaped)
}

// HasSubvolume reports whether the snapshot lists the given escaped path.
func (s Snapshot) HasSubvolume(escaped string) bool {
	for _, sv := range s.Subvolumes {
		if sv == escaped {
			return true
		}
	}
	return false
}

// HasBeaconOnly reports whether retention has pruned every subvolume of
// this snapshot except the root marker. A beacon-only snapshot still
// answers parent-selection by name (spec §4.5, §9) even though none of
// its real data survives.
func (s Snapshot) HasBeaconOnly() bool {
	return len(s.Subvolumes) == 1 && s.Subvolumes[0] == RootMarker
}

// SourceSubvolumes returns the subvolumes of this snapshot excluding the
// root marker, in their original discovery order.
func (s Snapshot) SourceSubvolumes() []string {
	out := make([]string, 0, len(s.Subvolumes))
	for _, sv := range s.Subvolumes {
		if sv == RootMarker {
			continue
		}
		out = append(out, sv)
	}
	return out
}

// WithSubvolumes returns a copy of s with its Subvolumes replaced,
// without mutating the original.
func (s Snapshot) WithSubvolumes(subvolumes []string) Snapshot {
	s.Subvolumes = subvolumes
	return s
}

// SortByName orders snapshots lexically by name. Because the timestamp
// prefix is fixed-width and zero-padded, lexical order equals
// chronological order.
func SortByName(snaps []Snapshot) {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
}
