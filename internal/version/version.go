// Package version reports build metadata for `murmur version`.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/rbright/murmur/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// String renders the version line. Commit and date fall back to the VCS
// stamp embedded by `go build` when ldflags did not set them.
func String() string {
	commit, date, dirty := Commit, Date, false
	if info, ok := readBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "none" && len(setting.Value) >= 12 {
					commit = setting.Value[:12]
				}
			case "vcs.time":
				if date == "unknown" {
					date = setting.Value
				}
			case "vcs.modified":
				dirty = setting.Value == "true"
			}
		}
	}
	if dirty && commit != "none" {
		commit += "-dirty"
	}
	return fmt.Sprintf("murmur %s (commit=%s, date=%s, go=%s)", Version, commit, date, runtime.Version())
}
