package versioning

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	canonicalPrefixConstant         = "v"
	npmEqualsPrefixConstant         = "="
	prereleaseSeparatorConstant     = "-"
	buildSeparatorConstant          = "+"
	versionCoreSeparatorConstant    = "."
	versionCoreComponentCount       = 3
	syntaxErrorTemplateConstant     = "invalid semantic version %q"
	syntaxErrorEmptyMessageConstant = "invalid semantic version: value is empty"
	comparisonErrorTemplateConstant = "unable to compare %q with %q: %w"
)

// SyntaxError reports a version string that is not a MAJOR.MINOR.PATCH semantic version.
type SyntaxError struct {
	Value string
}

// Error describes the offending value.
func (syntaxError SyntaxError) Error() string {
	if len(strings.TrimSpace(syntaxError.Value)) == 0 {
		return syntaxErrorEmptyMessageConstant
	}
	return fmt.Sprintf(syntaxErrorTemplateConstant, syntaxError.Value)
}

// Version is a validated semantic version.
type Version struct {
	original  string
	canonical string
}

// String returns the version as it was written.
func (version Version) String() string {
	return version.original
}

// Parse validates a semantic version. A leading "v" or "=" is tolerated the way npm tolerates it.
func Parse(value string) (Version, error) {
	trimmedValue := strings.TrimSpace(value)
	candidate := strings.TrimPrefix(trimmedValue, npmEqualsPrefixConstant)
	candidate = strings.TrimPrefix(candidate, canonicalPrefixConstant)
	if len(candidate) == 0 {
		return Version{}, SyntaxError{Value: value}
	}

	canonicalCandidate := canonicalPrefixConstant + candidate
	if !semver.IsValid(canonicalCandidate) || !hasFullVersionCore(candidate) {
		return Version{}, SyntaxError{Value: value}
	}

	return Version{original: trimmedValue, canonical: canonicalCandidate}, nil
}

// Compare returns -1, 0, or +1 depending on whether left is lower than, equal to, or greater than right.
func (version Version) Compare(other Version) int {
	return semver.Compare(version.canonical, other.canonical)
}

// GreaterThan parses both values and reports whether left is strictly newer than right.
func GreaterThan(left string, right string) (bool, error) {
	leftVersion, leftError := Parse(left)
	if leftError != nil {
		return false, fmt.Errorf(comparisonErrorTemplateConstant, left, right, leftError)
	}
	rightVersion, rightError := Parse(right)
	if rightError != nil {
		return false, fmt.Errorf(comparisonErrorTemplateConstant, left, right, rightError)
	}
	return leftVersion.Compare(rightVersion) > 0, nil
}

func hasFullVersionCore(candidate string) bool {
	versionCore := candidate
	if separatorIndex := strings.IndexAny(versionCore, prereleaseSeparatorConstant+buildSeparatorConstant); separatorIndex >= 0 {
		versionCore = versionCore[:separatorIndex]
	}
	return len(strings.Split(versionCore, versionCoreSeparatorConstant)) == versionCoreComponentCount
}
