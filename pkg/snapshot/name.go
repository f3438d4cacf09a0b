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

import (
	"fmt"
	"strings"
	"time"
)

// TimeFormat is the fixed textual format for the timestamp prefix of a
// snapshot name. Fixed-width, zero-padded fields make lexical sort order
// match chronological order.
const TimeFormat = "2006-01-02-15-04-05"

// ReservedName is the magic snapshot name reserved by the restore verb to
// mean "roll back the last REPLACE". It is never a legal parsed or
// constructed snapshot name.
const ReservedName = "REPLACE"

// ErrReservedSnapshotName is returned when a snapshot name or retention
// suffix collides with the reserved magic name.
var ErrReservedSnapshotName = fmt.Errorf("%q is reserved and cannot be used as a snapshot name or retention suffix", ReservedName)

// ErrInvalidSnapshotName is returned when a name does not match the
// mandatory timestamp-prefix grammar.
type ErrInvalidSnapshotName struct {
	Name string
}

func (e *ErrInvalidSnapshotName) Error() string {
	return fmt.Sprintf("invalid snapshot name %q: must start with %s", e.Name, TimeFormat)
}

// FormatName builds a snapshot name from an instant and an optional
// retention suffix (empty means no suffix).
func FormatName(t time.Time, retentionName string) (string, error) {
	if retentionName == ReservedName {
		return "", ErrReservedSnapshotName
	}
	name := t.Format(TimeFormat)
	if retentionName != "" {
		name += "_" + retentionName
	}
	return name, nil
}

// ParseName splits a snapshot name into its timestamp and retention
// suffix (suffix is "" when absent). The timestamp prefix is mandatory.
func ParseName(name string) (t time.Time, retentionName string, err error) {
	if name == ReservedName {
		return time.Time{}, "", ErrReservedSnapshotName
	}
	prefix := name
	if idx := strings.IndexByte(name, '_'); idx >= 0 {
		prefix = name[:idx]
		retentionName = name[idx+1:]
	}
	if retentionName == ReservedName {
		return time.Time{}, "", ErrReservedSnapshotName
	}
	t, err = time.Parse(TimeFormat, prefix)
	if err != nil {
		return time.Time{}, "", &ErrInvalidSnapshotName{Name: name}
	}
	return t, retentionName, nil
}

// IsValidName reports whether name parses as a well-formed snapshot name.
func IsValidName(name string) bool {
	_, _, err := ParseName(name)
	return err == nil
}
