// Package version exposes the framework version and the compatibility check
// applied to backends at device construction time.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the semantic version of the framework. Backends declare a semver
// constraint against this value.
const Version = "0.4.0"

// Semver returns the framework version as a parsed semver value.
func Semver() *semver.Version {
	return semver.MustParse(Version)
}

// CheckConstraint reports whether the running framework version satisfies the
// given semver constraint (e.g. ">= 0.4"). An empty constraint is accepted,
// meaning the backend places no requirement on the framework version.
func CheckConstraint(constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid framework version constraint %q: %w", constraint, err)
	}

	if !c.Check(Semver()) {
		return fmt.Errorf("requires framework versions %s, but v%s is installed", constraint, Version)
	}

	return nil
}
