package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	defer func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	}()

	Version = "0.3.0"
	Commit = "9f1c2ab"
	BuildTime = "2026-03-01T12:00:00Z"

	want := "0.3.0 (9f1c2ab) built 2026-03-01T12:00:00Z"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDefaultValues(t *testing.T) {
	if Version == "" || Commit == "" || BuildTime == "" {
		t.Errorf("build variables should have defaults: %q %q %q", Version, Commit, BuildTime)
	}
}
