// SPDX-License-Identifier: MIT
//
// Package build carries build metadata embedded into the binary at compile
// time using linker flags: application name, build timestamp, Git commit and
// semantic version. Development builds without ldflags fall back to "dev"
// placeholders so the binary still starts.
package build

// Description is the one-line summary shown by the CLI help output.
const Description = "Live audio spectrum analyzer"

type ldFlags struct {
	Name        string
	Time        string
	Commit      string
	Version     string
	Description string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "spectra",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
		Description: Description,
	}
)

// Initialize copies build information from the ldflags variables into the
// buildFlags struct, keeping the development defaults for any flag the build
// did not set. Call early in program startup.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information. Safe to call before
// Initialize; callers then see the development defaults.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
