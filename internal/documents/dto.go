package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	FileName      string    `json:"filename"`
	Mime          string    `json:"mime"`
	SizeBytes     int64     `json:"sizeBytes"`
	HasText       bool      `json:"hasText"`
	ExtractedText *string   `json:"extractedText,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UploadResponse adds the linked tag names.
type UploadResponse struct {
	DocumentResponse
	PrimaryTag    string   `json:"primaryTag"`
	SecondaryTags []string `json:"secondaryTags"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		OwnerID:       doc.OwnerID,
		FileName:      doc.FileName,
		Mime:          doc.Mime,
		SizeBytes:     doc.SizeBytes,
		HasText:       doc.ExtractedText != nil,
		ExtractedText: doc.ExtractedText,
		CreatedAt:     doc.CreatedAt,
	}
}

func toListResponse(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp := toResponse(doc)
		resp.ExtractedText = nil
		out = append(out, resp)
	}
	return out
}

func toUploadResponse(res UploadResult) UploadResponse {
	names := make([]string, 0, len(res.Tags))
	for _, t := range res.Tags {
		names = append(names, t.Name)
	}
	return UploadResponse{
		DocumentResponse: toResponse(res.Document),
		PrimaryTag:       res.Folder.Name,
		SecondaryTags:    names,
	}
}
