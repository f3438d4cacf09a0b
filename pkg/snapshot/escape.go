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

import "strings"

// EscapeChar is used to flatten a subvolume's relative path into a single
// directory component so every subvolume of one snapshot can live
// side-by-side under the snapshot's directory.
const EscapeChar = "!"

// RootMarker is the escaped path standing for the target root itself.
const RootMarker = EscapeChar

// Escape flattens a relative subvolume path into its single-component,
// collision-free on-disk token. The empty relative path (the target root)
// encodes as the bare escape character.
func Escape(relPath string) string {
	if relPath == "" {
		return EscapeChar
	}
	return EscapeChar + strings.ReplaceAll(relPath, "/", EscapeChar)
}

// Unescape inverts Escape. It returns an error if s is not a validly
// escaped token (every escaped token must begin with EscapeChar).
func Unescape(s string) (string, error) {
	if !strings.HasPrefix(s, EscapeChar) {
		return "", &InvalidEscapedPathError{Path: s}
	}
	rest := strings.TrimPrefix(s, EscapeChar)
	if rest == "" {
		return "", nil
	}
	return strings.ReplaceAll(rest, EscapeChar, "/"), nil
}

// InvalidEscapedPathError is returned by Unescape when given a token that
// was never produced by Escape (doesn't begin with the escape character).
type InvalidEscapedPathError struct {
	Path string
}

func (e *InvalidEscapedPathError) Error() string {
	return "not a validly escaped subvolume path: " + e.Path
}
