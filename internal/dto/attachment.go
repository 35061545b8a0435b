package dto

import "time"

// CreateAttachmentRequest carries upload form fields alongside the file part.
type CreateAttachmentRequest struct {
	SubmissionID string `form:"submission_id" validate:"required"`
	Description  string `form:"description" validate:"max=255"`
}

// AttachmentLink is a time-limited signed download reference.
type AttachmentLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
