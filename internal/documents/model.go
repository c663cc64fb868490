package documents

import "time"

// Document is an uploaded or generated file owned by a user. Only
// ExtractedText changes after creation, and only once.
type Document struct {
	ID            string
	OwnerID       string
	FileName      string
	Mime          string
	BlobKey       string
	SizeBytes     int64
	ExtractedText *string
	CreatedAt     time.Time
}

// Text returns the extracted text or "" when extraction has not run.
func (d Document) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}
