// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/utilbot/core/buildinfo.Version=v0.4.0'
//	-X 'github.com/m3rciful/utilbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/utilbot/core/buildinfo.Date=2026-10-01T12:00:00Z'
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "local"
	// Date is an RFC3339 timestamp; empty for local builds.
	Date = ""
)

// String renders the build line printed by /version and `utilbot version`.
func String() string {
	if Date == "" {
		return fmt.Sprintf("utilbot %s (%s)", Version, Commit)
	}
	return fmt.Sprintf("utilbot %s (%s, built %s)", Version, Commit, Date)
}
