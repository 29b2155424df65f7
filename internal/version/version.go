// Package version carries build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// UserAgent is sent with every Vision API request.
func UserAgent() string {
	return "handscan/" + Version
}

// String is the multi-line text printed by --version.
func String() string {
	return fmt.Sprintf("handscan %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
