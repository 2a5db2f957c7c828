// Package version reports the build's version and commit.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/lampsmart/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/lampsmart/internal/version.Commit=abc1234"
//
// Builds without ldflags fall back to VCS data embedded by the toolchain.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo(debug.ReadBuildInfo())
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills unset fields from the module and VCS build settings.
func fromBuildInfo(info *debug.BuildInfo, ok bool) {
	if !ok || info == nil {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if Commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			Commit = shortRevision(rev)
			if settings["vcs.modified"] == "true" {
				Commit += "-dirty"
			}
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies lampsmart HTTP clients.
func UserAgent() string {
	return fmt.Sprintf("lampsmart/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
