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

package config

import "path"

// globMatch reports whether relPath matches pattern, either exactly (via
// path.Match, supporting * and ? wildcards) or because relPath is
// nested under a directory the pattern matches outright - spec §3
// describes ignored subpaths as "glob-like", and scenario A in spec §8
// ("ignored = [cache]" excludes the whole /home/cache subvolume) requires
// that a bare directory name exclude everything under it, not just an
// exact string match.
func globMatch(pattern, relPath string) (bool, error) {
	if ok, err := path.Match(pattern, relPath); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	prefix := pattern + "/"
	if len(relPath) > len(prefix) && relPath[:len(prefix)] == prefix {
		return true, nil
	}
	// Also match when the pattern matches a leading path segment boundary,
	// e.g. pattern "cache" against relPath "cache" handled above by exact
	// match; this covers pattern "a/*" against "a/b/c".
	for i := 0; i < len(relPath); i++ {
		if relPath[i] != '/' {
			continue
		}
		if ok, err := path.Match(pattern, relPath[:i]); err == nil && ok {
			return true, nil
		}
	}
	return false, nil
}
