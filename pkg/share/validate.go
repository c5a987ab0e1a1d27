package share

import (
	"regexp"

	"github.com/google/uuid"
)

// digestPattern matches a content digest: the 64-character lowercase hex
// encoding of a SHA-256 hash.
var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// IsUUID reports whether s is a canonical RFC 4122 UUID string.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// IsDigest reports whether s is a valid content digest.
func IsDigest(s string) bool {
	return digestPattern.MatchString(s)
}

// dedupeValid filters values through valid and removes duplicates, keeping
// first-occurrence order.
func dedupeValid(values []string, valid func(string) bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if !valid(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// unionIDs returns a with every element of b appended that is not already
// present, and whether the result differs from a. When nothing is added the
// original slice is returned untouched.
func unionIDs(a, b []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}

	out := a
	changed := false
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		if !changed {
			out = append([]string(nil), a...)
			changed = true
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, changed
}

// subtractIDs returns a without the elements of b, and whether the result
// differs from a. When nothing is removed the original slice is returned
// untouched.
func subtractIDs(a, b []string) ([]string, bool) {
	drop := make(map[string]struct{}, len(b))
	for _, v := range b {
		drop[v] = struct{}{}
	}

	changed := false
	for _, v := range a {
		if _, hit := drop[v]; hit {
			changed = true
			break
		}
	}
	if !changed {
		return a, false
	}

	out := make([]string, 0, len(a))
	for _, v := range a {
		if _, hit := drop[v]; !hit {
			out = append(out, v)
		}
	}
	return out, true
}

// containsID reports whether id is present in ids.
func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
