package version

import "fmt"

// Version is the linkbio release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/linkbio/internal/version.Version=v1.0.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version line printed by --version and logged at startup.
func String() string {
	return fmt.Sprintf("linkbio %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
