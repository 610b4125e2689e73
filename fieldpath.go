package sift

import (
	"strconv"
	"strings"
)

// Wildcard is the path segment matching every element of a sequence.
const Wildcard = "*"

// FieldPath is a parsed dotted field path, e.g. "tags.*.name".
// Each segment is either a literal mapping key or Wildcard. Immutable
// after parsing.
type FieldPath struct {
	segments []string
}

// ParseFieldPath parses a dotted path string. Empty paths and empty
// segments ("a..b", trailing dots) are rejected with a *PathError.
// No escaping is supported; keys containing '.' or '*' cannot be
// addressed.
func ParseFieldPath(path string) (FieldPath, error) {
	if path == "" {
		return FieldPath{}, &PathError{Path: path, Reason: "empty path"}
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if seg == "" {
			return FieldPath{}, &PathError{Path: path, Reason: "empty segment at position " + strconv.Itoa(i)}
		}
	}
	return FieldPath{segments: segments}, nil
}

// MustParseFieldPath is ParseFieldPath that panics on error, for
// statically known paths.
func MustParseFieldPath(path string) FieldPath {
	fp, err := ParseFieldPath(path)
	if err != nil {
		panic(err)
	}
	return fp
}

// String returns the dotted form of the path.
func (fp FieldPath) String() string {
	return strings.Join(fp.segments, ".")
}

// Len returns the number of segments.
func (fp FieldPath) Len() int { return len(fp.segments) }

// HasWildcard reports whether any segment is the wildcard.
func (fp FieldPath) HasWildcard() bool {
	for _, seg := range fp.segments {
		if seg == Wildcard {
			return true
		}
	}
	return false
}
