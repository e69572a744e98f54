// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/luciancaetano/questnet/internal/version.Version=1.0.0 \
//	                   -X github.com/luciancaetano/questnet/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/questnetd
package version

var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the short git commit hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
