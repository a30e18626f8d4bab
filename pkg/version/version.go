package version

import (
	"fmt"
	"runtime"
	"time"
)

// Target identifies the CPU this build of gbasm assembles for. A second
// target (e.g. a Z80) would give this its own ldflags var; until then it's
// fixed.
const Target = "Game Boy (LR35902/SM83)"

// Version information set at build time via ldflags
var (
	// Version from git tag (e.g., "v0.10.0")
	Version = "dev"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// BuildDate is when the binary was built
	BuildDate = "unknown"

	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()

	// Platform is the target platform
	Platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

// GetVersion returns the version string, falling back to a commit-derived
// development version when no release tag was baked in via ldflags.
func GetVersion() string {
	if Version == "dev" && GitCommit != "unknown" && len(GitCommit) >= 7 {
		Version = fmt.Sprintf("dev-%s", GitCommit[:7])
	}
	return Version
}

// GetFullVersion returns detailed version information, including the
// assembler's fixed target CPU.
func GetFullVersion() string {
	return fmt.Sprintf(`gbasm %s
Target:   %s
Commit:   %s
Date:     %s
Go:       %s
Platform: %s`,
		GetVersion(),
		Target,
		GitCommit,
		BuildDate,
		GoVersion,
		Platform)
}

// init sets the build date to current time if not already set
func init() {
	if BuildDate == "unknown" {
		BuildDate = time.Now().Format("2006-01-02T15:04:05Z")
	}
}