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

// Package config holds the data model the engine is configured with:
// Target, RetentionRuleset, connection URLs, and the loader that reads
// them from a config file (spec §3, §6).
package config

import "strings"

// OnMissingDestination controls what happens when a target's destination
// directory does not exist.
type OnMissingDestination string

const (
	OnMissingError OnMissingDestination = "ERROR"
	OnMissingSkip  OnMissingDestination = "SKIP"
)

// RestoreStrategy selects how restore re-populates the live subvolume
// tree (spec §4.1).
type RestoreStrategy string

const (
	RestoreSafe    RestoreStrategy = "SAFE"
	RestoreReplace RestoreStrategy = "REPLACE"
)

// SubvolumeBackupStrategy controls how a source TargetHost discovers
// which live subvolumes belong to a target.
//
// The value is decoded from the config file but no verb consults it:
// backup always enumerates every nested subvolume below the target root
// (minus the ignored subpaths), whichever value is set, so Explicit does
// not restrict backup to the target root.
type SubvolumeBackupStrategy string

const (
	SubvolumeBackupAuto     SubvolumeBackupStrategy = "AUTO"
	SubvolumeBackupExplicit SubvolumeBackupStrategy = "EXPLICIT"
)

// SubvolumeFallbackStrategy controls what REPLACE restore does with a
// live subvolume that has no counterpart in the chosen snapshot (spec
// §4.3 "Restore fallback").
type SubvolumeFallbackStrategy string

const (
	FallbackNewSubvolume SubvolumeFallbackStrategy = "NEW_SUBVOLUME"
	FallbackKeepOld      SubvolumeFallbackStrategy = "KEEP_OLD"
	FallbackNone         SubvolumeFallbackStrategy = "NONE"
)

// Target is a named backup unit (spec §3).
type Target struct {
	// Name is the hierarchical key, segments separated by "/".
	Name string `mapstructure:"name" toml:"name"`

	SourceURL      string `mapstructure:"source" toml:"source"`
	DestinationURL string `mapstructure:"destination" toml:"destination,omitempty"`

	// SSH key material for ssh:// source/destination URLs, mirroring the
	// teacher's per-mirror SSHKeyFile/SSHHostKey resolution
	// (pkg/cmd/config). Password auth, when present, comes from the
	// connection URL itself (spec §6).
	SourceSSHKeyFile          string `mapstructure:"source_ssh_key_file" toml:"source_ssh_key_file,omitempty"`
	SourceSSHHostKeyFile      string `mapstructure:"source_ssh_host_key_file" toml:"source_ssh_host_key_file,omitempty"`
	DestinationSSHKeyFile     string `mapstructure:"destination_ssh_key_file" toml:"destination_ssh_key_file,omitempty"`
	DestinationSSHHostKeyFile string `mapstructure:"destination_ssh_host_key_file" toml:"destination_ssh_host_key_file,omitempty"`

	OnMissingDestination      OnMissingDestination      `mapstructure:"on_missing_destination" toml:"on_missing_destination,omitempty"`
	DefaultRestoreStrategy    RestoreStrategy           `mapstructure:"default_restore_strategy" toml:"default_restore_strategy,omitempty"`
	SubvolumeBackupStrategy   SubvolumeBackupStrategy   `mapstructure:"subvolume_backup_strategy" toml:"subvolume_backup_strategy,omitempty"`
	SubvolumeFallbackStrategy SubvolumeFallbackStrategy `mapstructure:"subvolume_fallback_strategy" toml:"subvolume_fallback_strategy,omitempty"`

	// IgnoredSubpaths is a list of glob-like patterns (matched with
	// path.Match against the subvolume's relative path) excluded from
	// backup on the source side.
	IgnoredSubpaths []string `mapstructure:"ignored_subpaths" toml:"ignored_subpaths,omitempty"`

	// SourceRetention and DestinationRetention are keyed by retention
	// name (the snapshot name suffix, e.g. "auto", "manual").
	SourceRetention      map[string]RetentionRuleset `mapstructure:"source_retention" toml:"source_retention,omitempty"`
	DestinationRetention map[string]RetentionRuleset `mapstructure:"destination_retention" toml:"destination_retention,omitempty"`
}

// Segments splits the hierarchical target name on "/".
func (t Target) Segments() []string {
	return strings.Split(t.Name, "/")
}

// HasDestination reports whether a destination URL is configured.
func (t Target) HasDestination() bool {
	return t.DestinationURL != ""
}

// RetentionNames returns the union of retention names configured on
// either side, used by clean (spec §4.1) to know which RetentionGroups
// to build.
func (t Target) RetentionNames() []string {
	seen := make(map[string]struct{})
	var out []string
	for name := range t.SourceRetention {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for name := range t.DestinationRetention {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// IsIgnored reports whether relPath matches one of the target's
// ignored-subpath glob patterns.
func (t Target) IsIgnored(relPath string) bool {
	for _, pattern := range t.IgnoredSubpaths {
		if ok, _ := globMatch(pattern, relPath); ok {
			return true
		}
	}
	return false
}
