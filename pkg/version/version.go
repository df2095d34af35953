// Package version carries build-time identification for the mail binary.
// Version, GitCommit and BuildTime are populated via -ldflags at release
// build time; the zero values below are what a local `go build` produces.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info is a point-in-time snapshot of the build identity plus the runtime
// Go toolchain and platform the binary was compiled for.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string
}

// Get returns a fresh Info built from the current package-level build
// variables and runtime.
func Get() *Info {
	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the full one-line build identity.
func (i *Info) String() string {
	return fmt.Sprintf("mail %s (%s) built %s", i.Version, i.GitCommit, i.BuildTime)
}

// Short returns just the version number, with no commit or build time.
func (i *Info) Short() string {
	return i.Version
}
