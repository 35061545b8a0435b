package models

import (
	"encoding/json"
	"time"
)

// Validation is an immutable validator decision record, symmetric to Review.
type Validation struct {
	ID               string           `db:"id" json:"id"`
	SubmissionID     string           `db:"submission_id" json:"submission_id"`
	ValidatorID      string           `db:"validator_id" json:"validator_id"`
	Status           ValidationStatus `db:"status" json:"status"`
	Notes            *string          `db:"notes" json:"notes,omitempty"`
	PublishDate      *time.Time       `db:"publish_date" json:"publish_date,omitempty"`
	PublishedContent json.RawMessage  `db:"published_content" json:"published_content,omitempty"`
	ValidatedAt      time.Time        `db:"validated_at" json:"validated_at"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}
