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

// Package b4err collects the error kinds shared across the engine,
// target-host, transport, and config packages (spec §7), kept in one leaf
// package so none of those packages need to import each other just to
// raise or recognize a shared error kind.
package b4err

import "fmt"

// InvalidConnectionURLError is returned when a connection URL is
// malformed per the grammar in spec §6.
type InvalidConnectionURLError struct {
	URL string
	Err error
}

func (e *InvalidConnectionURLError) Error() string {
	return fmt.Sprintf("invalid connection url %q: %v", e.URL, e.Err)
}
func (e *InvalidConnectionURLError) Unwrap() error { return e.Err }

// UnknownProtocolError is returned for a connection URL scheme other than
// ssh or a bare local path.
type UnknownProtocolError struct {
	Scheme string
}

func (e *UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown protocol %q: only ssh and local paths are supported", e.Scheme)
}

// DestinationDirectoryNotFoundError is returned when a destination's
// target path does not exist and the target's OnMissingDestination
// policy is ERROR (the alternative is SKIP).
type DestinationDirectoryNotFoundError struct {
	Path string
}

func (e *DestinationDirectoryNotFoundError) Error() string {
	return fmt.Sprintf("destination directory not found: %s", e.Path)
}

// BtrfsPartitionNotFoundError is returned when a side's mount point
// cannot be resolved from the system mount table.
type BtrfsPartitionNotFoundError struct {
	Path string
}

func (e *BtrfsPartitionNotFoundError) Error() string {
	return fmt.Sprintf("could not resolve btrfs mount point containing %s", e.Path)
}

// BtrfsSubvolumeNotFoundError is returned when no live subvolume remains
// after applying the target's ignored-subpath filters.
type BtrfsSubvolumeNotFoundError struct {
	Path string
}

func (e *BtrfsSubvolumeNotFoundError) Error() string {
	return fmt.Sprintf("no subvolume remained under %s after applying ignore filters", e.Path)
}

// SnapshotNotFoundError is returned when a named snapshot requested for
// send/restore/delete is not present on the host it was requested from.
type SnapshotNotFoundError struct {
	TargetName string
	Name       string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("snapshot %q not found for target %q", e.Name, e.TargetName)
}

// InvalidRetentionRuleError is returned when a retention rule's interval
// or duration token does not parse.
type InvalidRetentionRuleError struct {
	Token string
	Err   error
}

func (e *InvalidRetentionRuleError) Error() string {
	return fmt.Sprintf("invalid retention rule token %q: %v", e.Token, e.Err)
}
func (e *InvalidRetentionRuleError) Unwrap() error { return e.Err }

// InvalidRestoreRequestError is returned when restore is asked to combine
// strategy SAFE with the magic rollback name REPLACE (spec §4.1).
type InvalidRestoreRequestError struct {
	Reason string
}

func (e *InvalidRestoreRequestError) Error() string {
	return "invalid restore request: " + e.Reason
}

// NoReplaceBackupError is returned when restore(REPLACE, REPLACE) is
// requested but no replace-backup exists to roll back to.
type NoReplaceBackupError struct {
	TargetName string
}

func (e *NoReplaceBackupError) Error() string {
	return fmt.Sprintf("no replace-backup to roll back to for target %q", e.TargetName)
}
