package tags

import (
	"errors"
	"time"
)

// Tag is a per-owner label. A tag used as a document's primary link is its folder.
type Tag struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// DocumentTag links a document to a tag.
type DocumentTag struct {
	DocumentID string
	TagID      string
	IsPrimary  bool
	CreatedAt  time.Time
}

// Folder is a tag with its association count.
type Folder struct {
	TagID string `json:"tagId"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

var (
	ErrNotFound      = errors.New("tag not found")
	ErrInvalidName   = errors.New("invalid tag name")
	ErrInvalidRef    = errors.New("invalid tag reference")
	ErrPrimaryExists = errors.New("document already has a primary tag")
	ErrDuplicateLink = errors.New("document already linked to tag")
)
