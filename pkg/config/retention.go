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

// RetentionRule is one "interval -> duration" entry of a ruleset. Rulesets
// are stored as ordered slices (rather than maps) since both TOML and
// YAML decode ordered lists faithfully but not ordered maps, and rule
// order is semantically meaningful (spec §3: "Rulesets apply left-to-right
// and accumulate retained items").
type RetentionRule struct {
	Interval string `mapstructure:"interval" toml:"interval"`
	Duration string `mapstructure:"duration" toml:"duration"`
}

// RetentionRuleset is the ordered chain of rules governing one retention
// class (e.g. "auto", "manual").
type RetentionRuleset []RetentionRule

// Parsed resolves every token in the ruleset, failing on the first
// invalid one.
func (r RetentionRuleset) Parsed() ([]ParsedRule, error) {
	out := make([]ParsedRule, 0, len(r))
	for _, rule := range r {
		interval, err := ParseIntervalToken(rule.Interval)
		if err != nil {
			return nil, err
		}
		duration, err := ParseDurationToken(rule.Duration)
		if err != nil {
			return nil, err
		}
		out = append(out, ParsedRule{Interval: interval, Duration: duration})
	}
	return out, nil
}

// ParsedRule is a RetentionRule with both tokens already resolved.
type ParsedRule struct {
	Interval Interval
	Duration Duration
}
