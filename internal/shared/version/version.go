// Package version reports the build version stamped in through -ldflags.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Set with -ldflags "-X github.com/saathi-inc/saathi/internal/shared/version.Current=v1.2.3".
var (
	Current = "dev"
	Commit  = "unknown"
)

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	if version == "" {
		return ""
	}
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// IsRelease reports whether version is a valid semantic version rather than a dev build.
func IsRelease(version string) bool {
	return semver.IsValid(Normalize(version))
}

// String returns the canonical release version, or the dev label with its commit.
func String() string {
	if IsRelease(Current) {
		return semver.Canonical(Normalize(Current))
	}
	return Current + "+" + Commit
}
