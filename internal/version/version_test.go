package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestShortRevision(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0123456789abcdef", "0123456"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortRevision(tt.in); got != tt.want {
			t.Errorf("shortRevision(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromBuildInfo(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "", ""
	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeefcafe"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)

	if Version != "v1.4.0" {
		t.Errorf("Version = %q, want v1.4.0", Version)
	}
	if Commit != "deadbee-dirty" {
		t.Errorf("Commit = %q, want deadbee-dirty", Commit)
	}
}

func TestFromBuildInfoKeepsLdflags(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "v9.9.9", ""
	fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	if Version != "v9.9.9" {
		t.Errorf("Version = %q, want v9.9.9", Version)
	}
	if Commit != "" {
		t.Errorf("Commit = %q, want empty", Commit)
	}
}

func TestFullAndUserAgent(t *testing.T) {
	if !strings.Contains(Full(), Commit) {
		t.Errorf("Full() = %q, missing commit", Full())
	}
	if !strings.HasPrefix(UserAgent(), "lampsmart/") {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
