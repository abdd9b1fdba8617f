// Package semver orders and increments MICO service versions.
//
// MICO versions are semantic versions with an optional letter prefix, such as
// "v1.2.3" or "release1.0.0-rc.1". Parsing and precedence come from
// github.com/Masterminds/semver/v3; the prefix is kept aside and restored on
// output.
package semver

import (
	"regexp"
	"slices"
	"strings"

	mm "github.com/Masterminds/semver/v3"

	"github.com/matzehuels/micograph/pkg/errors"
)

var prefixRegex = regexp.MustCompile(`^[a-zA-Z]+`)

// Version is a parsed MICO version.
type Version struct {
	Prefix string
	v      *mm.Version
}

// Parse parses raw. It requires all three numeric components.
func Parse(raw string) (Version, error) {
	prefix := prefixRegex.FindString(raw)
	v, err := mm.StrictNewVersion(strings.TrimPrefix(raw, prefix))
	if err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "parse version %q", raw)
	}
	return Version{Prefix: prefix, v: v}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.Prefix + v.v.Original()
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.v.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.v.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.v.Patch() }

// Prerelease returns the pre-release part without the leading dash.
func (v Version) Prerelease() string { return v.v.Prerelease() }

// Compare orders two version strings by semantic precedence. The prefix is
// ignored. Unparseable versions sort after all valid ones.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return va.v.Compare(vb.v)
}

// Sort orders versions ascending in place.
func Sort(versions []string) {
	slices.SortStableFunc(versions, Compare)
}

// SortFunc orders items ascending by the version key returns, in place.
func SortFunc[T any](items []T, key func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int { return Compare(key(a), key(b)) })
}

// Latest returns the highest valid version. It reports false if there is
// none.
func Latest(versions []string) (string, bool) {
	var best string
	found := false
	for _, v := range versions {
		if _, err := Parse(v); err != nil {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best, found = v, true
		}
	}
	return best, found
}

// Satisfies reports whether version matches a constraint such as "^1.2" or
// ">=1.0.0 <2.0.0".
func Satisfies(version, constraint string) (bool, error) {
	c, err := mm.NewConstraint(constraint)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse constraint %q", constraint)
	}
	v, err := Parse(version)
	if err != nil {
		return false, err
	}
	return c.Check(v.v), nil
}

// Component selects the part of a version to increment.
type Component int

const (
	Major Component = iota
	Minor
	Patch
)

// ParseComponent maps "major", "minor" and "patch" to a Component.
func ParseComponent(s string) (Component, error) {
	switch strings.ToLower(s) {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "patch":
		return Patch, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown version component %q (use major, minor or patch)", s)
}

// Increment returns the next version of raw. Lower components are reset to
// zero. The prefix and pre-release part are kept; build metadata is dropped.
func Increment(raw string, c Component) (string, error) {
	v, err := Parse(raw)
	if err != nil {
		return "", err
	}
	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	switch c {
	case Major:
		major, minor, patch = major+1, 0, 0
	case Minor:
		minor, patch = minor+1, 0
	default:
		patch++
	}
	return v.Prefix + mm.New(major, minor, patch, v.Prerelease(), "").String(), nil
}
