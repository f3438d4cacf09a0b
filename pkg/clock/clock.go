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

// Package clock provides the monotone, zoned time source the rest of the
// engine depends on instead of calling time.Now directly. Keeping it behind
// an interface lets the retention planner and snapshot naming be exercised
// against a fixed instant in tests.
package clock

import "time"

// Clock produces zoned instants for snapshot naming and retention math.
type Clock interface {
	Now() time.Time
}

// System is the real clock, backed by time.Now in the given location.
type System struct {
	Location *time.Location
}

// NewSystem returns a System clock for the given IANA timezone name. An
// empty name means UTC.
func NewSystem(timezone string) (*System, error) {
	if timezone == "" {
		return &System{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &System{Location: loc}, nil
}

// Now returns the current instant in the clock's configured zone.
func (s *System) Now() time.Time {
	return time.Now().In(s.Location)
}

// Fixed is a Clock that always returns the same instant. Used by tests.
type Fixed struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.Instant }
