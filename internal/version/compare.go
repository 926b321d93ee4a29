package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility checks if the engine version and the version
// recorded in a results store are compatible.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - Engine 1.2.0, Store 1.2.0 -> OK (exact match)
//   - Engine 1.2.1, Store 1.2.0 -> OK (patch differs)
//   - Engine 1.3.0, Store 1.2.0 -> ERROR (minor differs)
//   - Engine 2.0.0, Store 1.2.0 -> ERROR (major differs)
//   - Engine main, Store 1.2.0 -> OK (dev build, skip check)
//   - Engine 1.2.0, Store main -> OK (dev build, skip check)
func CheckVersionCompatibility(engineVersion, storeVersion string) error {
	// Strip 'v' prefix if present for consistency
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	storeVersion = strings.TrimPrefix(storeVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" || storeVersion == "main" {
		return nil
	}

	// Parse engine version
	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	// Parse store version
	storeSemver, err := semver.NewVersion(storeVersion)
	if err != nil {
		return fmt.Errorf("invalid results store version '%s': %w", storeVersion, err)
	}

	// Check major version match
	if engineSemver.Major() != storeSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but results were written by %d.x.x",
			engineSemver.Major(), storeSemver.Major())
	}

	// Check minor version match
	if engineSemver.Minor() != storeSemver.Minor() {
		return fmt.Errorf("minor version mismatch: engine is %d.%d.x but results were written by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			storeSemver.Major(), storeSemver.Minor())
	}

	// Patch versions can differ, so we're compatible
	return nil
}
