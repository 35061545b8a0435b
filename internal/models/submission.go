package models

import (
	"encoding/json"
	"time"
)

// WorkflowStage is the coarse-grained position of a submission in the
// form -> review -> validation -> completed pipeline. Rejected is a terminal
// dead-end reachable from review or validation. The stage never moves backward.
type WorkflowStage string

const (
	StageForm       WorkflowStage = "form"
	StageReview     WorkflowStage = "review"
	StageValidation WorkflowStage = "validation"
	StageCompleted  WorkflowStage = "completed"
	StageRejected   WorkflowStage = "rejected"
)

// SubmissionStatus tracks the owner-facing lifecycle of a submission before
// and during the workflow.
type SubmissionStatus string

const (
	StatusDraft     SubmissionStatus = "draft"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusConfirmed SubmissionStatus = "confirmed"
)

// ReviewStatus is the reviewer decision recorded on a submission.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ValidationStatus is the validator decision recorded on a submission.
// Both validated and published are terminal-success outcomes.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationPublished ValidationStatus = "published"
	ValidationRejected  ValidationStatus = "rejected"
)

// Submission is the top-level unit of work moving through the workflow.
// It is the canonical owner of workflow state; the review_* and validation_*
// scalar columns are projections of the append-only reviews and validations
// tables, refreshed only inside the transaction that records a decision.
type Submission struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Title       string           `db:"title" json:"title"`
	Description *string          `db:"description" json:"description,omitempty"`
	Type        *string          `db:"type" json:"type,omitempty"`
	Status      SubmissionStatus `db:"status" json:"status"`
	Stage       WorkflowStage    `db:"workflow_stage" json:"workflow_stage"`
	IsConfirmed bool             `db:"is_confirmed" json:"is_confirmed"`
	SubmittedAt *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`

	AssignedTo *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedAt *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`

	ReviewStatus *ReviewStatus `db:"review_status" json:"review_status,omitempty"`
	ReviewNotes  *string       `db:"review_notes" json:"review_notes,omitempty"`
	ReviewedBy   *string       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`

	ValidationAssignedTo *string    `db:"validation_assigned_to" json:"validation_assigned_to,omitempty"`
	ValidationAssignedAt *time.Time `db:"validation_assigned_at" json:"validation_assigned_at,omitempty"`

	ValidationStatus *ValidationStatus `db:"validation_status" json:"validation_status,omitempty"`
	ValidationNotes  *string           `db:"validation_notes" json:"validation_notes,omitempty"`
	ValidatedBy      *string           `db:"validated_by" json:"validated_by,omitempty"`
	ValidatedAt      *time.Time        `db:"validated_at" json:"validated_at,omitempty"`
	PublishDate      *time.Time        `db:"publish_date" json:"publish_date,omitempty"`
	PublishedContent json.RawMessage   `db:"published_content" json:"published_content,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`

	Owner       *UserInfo     `db:"-" json:"owner,omitempty"`
	ContentItems []ContentItem `db:"-" json:"content_items,omitempty"`
	Reviews     []Review      `db:"-" json:"reviews,omitempty"`
	Validations []Validation  `db:"-" json:"validations,omitempty"`
	Attachments []Attachment  `db:"-" json:"attachments,omitempty"`
}

// SubmissionFilter captures listing criteria for submissions and queues.
type SubmissionFilter struct {
	OwnerID              string
	Status               SubmissionStatus
	Stage                WorkflowStage
	ReviewStatus         ReviewStatus
	AssignedTo           string
	ValidationAssignedTo string
	Page                 int
	PageSize             int
}
