package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/ternarybob/serendib/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// CurrentVersion reports the linked-in version. A commit left unset by the
// build falls back to the VCS revision Go stamps into the binary.
func CurrentVersion() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		Build:     Build,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
	if info.GitCommit != "unknown" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				info.GitCommit = s.Value[:7]
			}
		}
	}
	return info
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (build %s, commit %s, %s)", v.Version, v.Build, v.GitCommit, v.GoVersion)
}
