package models

import "time"

// AuditAction enumerates recorded audit events.
type AuditAction string

const (
	AuditActionLogin              AuditAction = "LOGIN"
	AuditActionLogout             AuditAction = "LOGOUT"
	AuditActionSubmissionCreate   AuditAction = "SUBMISSION_CREATE"
	AuditActionSubmissionConfirm  AuditAction = "SUBMISSION_CONFIRM"
	AuditActionReviewAssign       AuditAction = "REVIEW_ASSIGN"
	AuditActionReviewDecision     AuditAction = "REVIEW_DECISION"
	AuditActionValidationAssign   AuditAction = "VALIDATION_ASSIGN"
	AuditActionValidationDecision AuditAction = "VALIDATION_DECISION"
	AuditActionAttachmentUpload   AuditAction = "ATTACHMENT_UPLOAD"
	AuditActionAttachmentDelete   AuditAction = "ATTACHMENT_DELETE"
)

// AuditLog captures a best-effort trail entry for privileged operations.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	UserID     *string     `db:"user_id" json:"user_id,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	Resource   string      `db:"resource" json:"resource"`
	ResourceID *string     `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte      `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte      `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string      `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string      `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
