package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName is returned for empty names and traversal attempts.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and rejects ".." path elements.
// Names that merely contain "..", like "report..final.txt", are kept.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	for _, part := range strings.FieldsFunc(s, isPathSeparator) {
		if strings.TrimSpace(part) == ".." {
			return "", ErrInvalidFileName
		}
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}
	return s, nil
}

func isPathSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
