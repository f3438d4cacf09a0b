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

package engine

import "strings"

// TargetError pairs a target name with the error its operation raised.
type TargetError struct {
	TargetName string
	Err        error
}

func (e *TargetError) Error() string {
	return e.TargetName + ": " + e.Err.Error()
}

func (e *TargetError) Unwrap() error { return e.Err }

// MultiError accumulates one TargetError per failing target in a
// multi-target verb, so one failing target does not abort the rest (spec
// §5 "failure isolation during multi-target iteration"). This replaces
// the teacher's sequential early-return loop (pkg/cmd/syncmanager/prune.go)
// with a collect-and-continue accumulator, since the spec requires all
// targets to run regardless of earlier failures.
type MultiError struct {
	Errors []*TargetError
}

// Add records a failure for targetName if err is non-nil.
func (m *MultiError) Add(targetName string, err error) {
	if err == nil {
		return
	}
	m.Errors = append(m.Errors, &TargetError{TargetName: targetName, Err: err})
}

// ErrOrNil returns m as an error if it holds any failures, else nil.
func (m *MultiError) ErrOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	parts := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
