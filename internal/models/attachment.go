package models

import (
	"strings"
	"time"
)

// FileType is the derived attachment category, computed once at creation.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
)

// documentMIMEs is the fixed allow-list classified as documents.
var documentMIMEs = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

// ClassifyFileType derives the attachment category from a MIME type.
// Pure and deterministic: image/* -> image, video/* -> video,
// audio/* -> audio, the document allow-list -> document, else -> other.
func ClassifyFileType(mimeType string) FileType {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mt, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mt, "audio/"):
		return FileTypeAudio
	}
	if _, ok := documentMIMEs[mt]; ok {
		return FileTypeDocument
	}
	return FileTypeOther
}

// Attachment binds an uploaded file to a submission and the uploading user.
type Attachment struct {
	ID               string    `db:"id" json:"id"`
	SubmissionID     string    `db:"submission_id" json:"submission_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	FilePath         string    `db:"file_path" json:"-"`
	MimeType         string    `db:"mime_type" json:"mime_type"`
	FileType         FileType  `db:"file_type" json:"file_type"`
	SizeBytes        int64     `db:"size_bytes" json:"size_bytes"`
	Description      *string   `db:"description" json:"description,omitempty"`
	DownloadCount    int       `db:"download_count" json:"download_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
