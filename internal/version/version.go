// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/doeshing/vitals/internal/version.Version=v1.2.0"
package version

var (
	// Version is the released version, "dev" for local builds.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = ""
	// BuildDate is the RFC 3339 build timestamp.
	BuildDate = ""
)
