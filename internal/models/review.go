package models

import "time"

// Review is an immutable reviewer decision record. Rows are append-only:
// the latest row by reviewed_at is authoritative for the current review
// outcome of a submission.
type Review struct {
	ID           string       `db:"id" json:"id"`
	SubmissionID string       `db:"submission_id" json:"submission_id"`
	ReviewerID   string       `db:"reviewer_id" json:"reviewer_id"`
	Status       ReviewStatus `db:"status" json:"status"`
	Notes        *string      `db:"notes" json:"notes,omitempty"`
	ReviewedAt   time.Time    `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
