// Package versions provides build information for the BCR API binary.
package versions

import (
	"fmt"
	"runtime"
)

const unknownStr = "unknown"

// Build information set with -ldflags "-X github.com/stackb/bcr-api/internal/versions.Version=..."
var (
	// Version is the release version of the BCR API
	Version = "dev"
	// BuildTimestamp is when the binary was built
	BuildTimestamp = unknownStr
	// GitCommit is the git commit hash of the build
	GitCommit = unknownStr
	// GitBranch is the git branch the build was made from
	GitBranch = unknownStr
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version        string `json:"version"`
	BuildTimestamp string `json:"build_timestamp"`
	GitCommit      string `json:"git_commit"`
	GitBranch      string `json:"git_branch"`

	// Reported by the CLI only
	GoVersion string `json:"-"`
	Platform  string `json:"-"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return getVersionInfoWithValues(Version, BuildTimestamp, GitCommit, GitBranch)
}

// getVersionInfoWithValues replaces empty values with their placeholders
func getVersionInfoWithValues(version, buildTimestamp, gitCommit, gitBranch string) VersionInfo {
	return VersionInfo{
		Version:        orDefault(version, "dev"),
		BuildTimestamp: orDefault(buildTimestamp, unknownStr),
		GitCommit:      orDefault(gitCommit, unknownStr),
		GitBranch:      orDefault(gitBranch, unknownStr),
		GoVersion:      runtime.Version(),
		Platform:       fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
