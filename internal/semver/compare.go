// Package semver orders package version strings by parsed precedence rather
// than lexically, so "1.10" ranks above "1.9".
package semver

import (
	"strings"

	mvc "github.com/Masterminds/semver/v3"
)

// Compare returns -1, 0 or 1 when a is lower than, equal to or higher than b.
// Dotted-numeric strings are compared by semantic precedence; a parseable
// version always outranks an unparseable one, and two unparseable strings
// fall back to plain string comparison.
func Compare(a, b string) int {
	va, errA := parse(a)
	vb, errB := parse(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

func parse(s string) (*mvc.Version, error) {
	// NewVersion is lenient: it accepts partial versions like "1.9" and a
	// leading "v" prefix.
	return mvc.NewVersion(strings.TrimSpace(s))
}
