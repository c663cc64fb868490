package tags

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Tag ids are UUIDs. Rows written by older releases stored the compact
// 32-hex form instead of the hyphenated one, so both forms are accepted on
// read and only the canonical form is written.

// NormalizeRef parses either representation and returns the canonical id.
func NormalizeRef(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, raw)
	}
	return id.String(), nil
}

// RefForms returns every stored representation of a tag id.
func RefForms(raw string) ([]string, error) {
	canonical, err := NormalizeRef(raw)
	if err != nil {
		return nil, err
	}
	return []string{canonical, strings.ReplaceAll(canonical, "-", "")}, nil
}

// SameRef reports whether two stored references point at the same tag.
func SameRef(a, b string) bool {
	na, errA := NormalizeRef(a)
	nb, errB := NormalizeRef(b)
	return errA == nil && errB == nil && na == nb
}
