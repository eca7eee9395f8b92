package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X git.home.luguber.info/inful/doctools/internal/version.Version=v1.2.0".
var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info holds the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

// Get returns the ldflags values, completed from the VCS stamp of the
// binary when they were not set.
func Get() Info {
	info := Info{Version: Version, Commit: GitCommit, BuildTime: BuildTime}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "unknown" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String renders the version line printed by --version.
func String() string {
	info := Get()
	commit := info.Commit
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("doctools %s (commit %s, built %s)", info.Version, commit, info.BuildTime)
}
