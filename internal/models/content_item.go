package models

import (
	"encoding/json"
	"time"
)

// ContentItem is a sub-unit of a submission carrying the actual content
// payload. Workflow state lives on the parent submission only.
type ContentItem struct {
	ID           string          `db:"id" json:"id"`
	SubmissionID string          `db:"submission_id" json:"submission_id"`
	Type         string          `db:"type" json:"type"`
	Title        string          `db:"title" json:"title"`
	Content      *string         `db:"content" json:"content,omitempty"`
	OrderIndex   int             `db:"order_index" json:"order_index"`
	IsPublished  bool            `db:"is_published" json:"is_published"`
	Metadata     json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
