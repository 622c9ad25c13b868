// Package version holds build metadata injected via ldflags, logged once
// in the roost startup line.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
