package dto

import (
	"encoding/json"
	"time"
)

// AssignReviewerRequest appoints a reviewer to a submission.
type AssignReviewerRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// SubmitReviewRequest records a reviewer decision.
type SubmitReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// AssignValidatorRequest appoints a validator to a submission.
type AssignValidatorRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// SubmitValidationRequest records a validator decision.
type SubmitValidationRequest struct {
	Status           string          `json:"status" validate:"required,oneof=validated published rejected"`
	Notes            string          `json:"notes" validate:"max=2000"`
	PublishDate      *time.Time      `json:"publish_date"`
	PublishedContent json.RawMessage `json:"published_content"`
}

// QueueQuery captures review/validation queue filters.
type QueueQuery struct {
	Status     string `form:"status"`
	AssignedTo string `form:"assigned_to"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
