package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// shortNameRegex matches MICO short names: lower case letters, digits and
// inner dashes, starting with a letter.
var shortNameRegex = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

// ValidateShortName checks a service or application short name. Short names
// become URL path segments and node id prefixes.
func ValidateShortName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidShortName, "short name cannot be empty")
	}
	if len(name) > 63 {
		return New(ErrCodeInvalidShortName, "short name too long (max 63 characters)")
	}
	if !shortNameRegex.MatchString(name) {
		return New(ErrCodeInvalidShortName, "invalid short name %q", name)
	}
	return nil
}

// ValidateVersion checks that a version string is safe to use in a URL path.
// Semantic checks live in pkg/semver.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidVersion, "version cannot be empty")
	}
	if len(version) > 128 {
		return New(ErrCodeInvalidVersion, "version too long (max 128 characters)")
	}
	for _, r := range version {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidVersion, "version contains invalid characters")
		}
	}
	if strings.ContainsAny(version, "/\\?#") || strings.Contains(version, "..") {
		return New(ErrCodeInvalidVersion, "version contains invalid characters: %q", version)
	}
	return nil
}

// ValidateNodeID checks a graph node id of the form "<shortName>-<version>".
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id contains invalid control characters")
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidNodeID, "node id cannot contain path separators")
	}
	return nil
}

// ValidateURL checks that a base URL uses http or https.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
