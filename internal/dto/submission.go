package dto

import (
	"encoding/json"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

// CreateSubmissionRequest is the payload for creating a new submission.
type CreateSubmissionRequest struct {
	Title       string                     `json:"title" validate:"required,max=255"`
	Description string                     `json:"description" validate:"max=2000"`
	Type        string                     `json:"type" validate:"max=100"`
	Items       []CreateContentItemRequest `json:"items" validate:"dive"`
}

// UpdateSubmissionRequest updates draft-stage fields.
type UpdateSubmissionRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,max=255"`
	Description *string                  `json:"description" validate:"omitempty,max=2000"`
	Type        *string                  `json:"type" validate:"omitempty,max=100"`
	Status      *models.SubmissionStatus `json:"status" validate:"omitempty,oneof=draft submitted confirmed"`
}

// SubmissionQuery captures list filters from query parameters.
type SubmissionQuery struct {
	Status   string `form:"status"`
	Stage    string `form:"workflow_stage"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CreateContentItemRequest adds a content item to a submission.
type CreateContentItemRequest struct {
	Type       string          `json:"type" validate:"required,max=50"`
	Title      string          `json:"title" validate:"required,max=255"`
	Content    string          `json:"content"`
	OrderIndex int             `json:"order_index" validate:"gte=0"`
	Metadata   json.RawMessage `json:"metadata"`
}
