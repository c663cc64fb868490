package documents

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrForbidden    = errors.New("document access forbidden")
	ErrInvalidInput = errors.New("invalid document input")
)
