package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BumpType classifies a semantic version increment.
type BumpType string

// Available bump types.
const (
	// BumpAuto leaves the decision to the bump advisor.
	BumpAuto BumpType = ""

	// BumpNone signals that no new version is warranted.
	BumpNone BumpType = "none"

	// BumpPatch is for non-structural changes.
	BumpPatch BumpType = "patch"

	// BumpMinor is for additive structural changes.
	BumpMinor BumpType = "minor"

	// BumpMajor is for removals and executable changes.
	BumpMajor BumpType = "major"
)

// IsValid returns true if the bump type is recognised. BumpAuto is valid.
func (b BumpType) IsValid() bool {
	switch b {
	case BumpAuto, BumpNone, BumpPatch, BumpMinor, BumpMajor:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b BumpType) String() string {
	if b == BumpAuto {
		return "auto"
	}
	return string(b)
}

// ParseBumpType parses a bump name. Empty and "auto" yield BumpAuto.
func ParseBumpType(s string) (BumpType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "auto" {
		return BumpAuto, nil
	}
	b := BumpType(s)
	if !b.IsValid() {
		return BumpAuto, fmt.Errorf("%w: unknown bump type %q", ErrInvalidInput, s)
	}
	return b, nil
}

// SemVer is a MAJOR.MINOR.PATCH version.
type SemVer struct {
	Major int
	Minor int
	Patch int
}

// InitialVersion is assigned to the first version of every workflow.
var InitialVersion = SemVer{Major: 1}

// ParseSemVer parses "MAJOR.MINOR.PATCH", with an optional leading "v".
func ParseSemVer(s string) (SemVer, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("%w: invalid version %q", ErrInvalidInput, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SemVer{}, fmt.Errorf("%w: invalid version %q", ErrInvalidInput, s)
		}
		nums[i] = n
	}
	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String formats the version as MAJOR.MINOR.PATCH.
func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1.
func (v SemVer) Compare(other SemVer) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

// Bump returns the next version for the given bump type.
// BumpNone and BumpAuto return v unchanged.
func (v SemVer) Bump(b BumpType) SemVer {
	switch b {
	case BumpMajor:
		return SemVer{Major: v.Major + 1}
	case BumpMinor:
		return SemVer{Major: v.Major, Minor: v.Minor + 1}
	case BumpPatch:
		return SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

// CompareVersionStrings compares two version strings.
// Unparseable strings sort before parseable ones, then lexically.
func CompareVersionStrings(a, b string) int {
	va, errA := ParseSemVer(a)
	vb, errB := ParseSemVer(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA != nil && errB == nil:
		return -1
	case errA == nil && errB != nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
