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

import (
	"strconv"
	"strings"
	"time"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
)

// Interval is a parsed interval token: either the literal "all" (no
// bucketing) or a fixed bucket width.
type Interval struct {
	All   bool
	Width time.Duration
}

// Duration is a parsed duration token: a time window relative to "now",
// an integer count (keep N most recent), or the literal "forever".
type Duration struct {
	Forever bool
	Count   int
	Window  time.Duration
}

// Approximate calendar units used by the retention token grammar. Months
// and years have no fixed length; the planner only needs a stable,
// documented approximation (spec §3 "duration tokens" grammar does not
// define calendar semantics), so 30-day months and 365-day years are used
// throughout, consistently, which keeps monotonicity and idempotence
// (spec §8 invariants 3-4) intact regardless of the approximation.
const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var unitDurations = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    day,
	"week":   week,
	"month":  month,
	"year":   year,
}

// ParseIntervalToken parses an interval token: "all" or "{N}{unit}".
func ParseIntervalToken(token string) (Interval, error) {
	if token == "all" {
		return Interval{All: true}, nil
	}
	d, err := parseAmountUnit(token)
	if err != nil {
		return Interval{}, &b4err.InvalidRetentionRuleError{Token: token, Err: err}
	}
	return Interval{Width: d}, nil
}

// ParseDurationToken parses a duration token: "forever", a bare integer
// (keep N most recent), or "{N}{unit}".
func ParseDurationToken(token string) (Duration, error) {
	if token == "forever" {
		return Duration{Forever: true}, nil
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 {
			return Duration{}, &b4err.InvalidRetentionRuleError{Token: token, Err: errNegativeCount}
		}
		return Duration{Count: n}, nil
	}
	d, err := parseAmountUnit(token)
	if err != nil {
		return Duration{}, &b4err.InvalidRetentionRuleError{Token: token, Err: err}
	}
	return Duration{Window: d}, nil
}

// parseAmountUnit parses "{N}{seconds|minutes|hours|days|weeks|months|years}",
// accepting both singular and plural unit spellings.
func parseAmountUnit(token string) (time.Duration, error) {
	i := 0
	for i < len(token) && token[i] >= '0' && token[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, errNoLeadingDigits
	}
	n, err := strconv.Atoi(token[:i])
	if err != nil {
		return 0, err
	}
	unit := strings.TrimSuffix(token[i:], "s")
	base, ok := unitDurations[unit]
	if !ok {
		return 0, errUnknownUnit
	}
	return time.Duration(n) * base, nil
}

var (
	errNoLeadingDigits = simpleErr("expected a leading integer amount")
	errUnknownUnit     = simpleErr("unknown time unit")
	errNegativeCount   = simpleErr("count must not be negative")
)
