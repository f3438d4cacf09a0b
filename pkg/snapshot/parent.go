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

package snapshot

import "sort"

// SelectParent searches names present on both hosts (candidateNames) for
// the closest OLDER name to newName, falling back to the closest younger
// name only when no older candidate exists. It returns "" if no candidate
// exists, meaning the transfer must be full.
//
// "Closest" is measured in snapshot-name (i.e. chronological, §4.4) terms:
// candidates are partitioned into those lexically less than newName
// (older) and those greater (younger); the nearest older name wins
// whenever there is one, however close the nearest younger name is.
func SelectParent(newName string, candidateNames []string) string {
	var olderBest, youngerBest string
	for _, name := range candidateNames {
		if name == newName {
			continue
		}
		if name < newName {
			if name > olderBest {
				olderBest = name
			}
		} else {
			if youngerBest == "" || name < youngerBest {
				youngerBest = name
			}
		}
	}
	if olderBest != "" {
		return olderBest
	}
	return youngerBest
}

// SortedNames returns the sorted keys of a name set, useful for
// deterministic iteration over a snapshot inventory.
func SortedNames(names map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
