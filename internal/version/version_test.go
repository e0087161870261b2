package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := resolve(Info{}, func() (*debug.BuildInfo, bool) { return bi, true })
	want := Info{Version: "v0.3.1", Commit: "0123456789abcdef0123", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0", Modified: true}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestResolveLdflagsWin(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}}
	got := resolve(Info{Version: "1.0.0", Commit: "fff"}, func() (*debug.BuildInfo, bool) { return bi, true })
	if got.Version != "1.0.0" || got.Commit != "fff" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	t.Parallel()

	got := resolve(Info{}, func() (*debug.BuildInfo, bool) { return nil, false })
	if got.Version != "dev" {
		t.Fatalf("got %q want dev", got.Version)
	}
}

func TestShortCommit(t *testing.T) {
	t.Parallel()
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("got %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
