// Package versions provides version information for the MCP server binary.
package versions

import "runtime/debug"

// Version is set via ldflags at build time.
var Version = "dev"

// Commit is set via ldflags at build time.
var Commit = ""

// BuildDate is set via ldflags at build time.
var BuildDate = ""

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// GetVersionInfo returns the version information, falling back to Go module
// build info when ldflags were not set (e.g. `go install` builds).
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	}

	if info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}

	return info
}
