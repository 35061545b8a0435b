package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

// WorkflowRepository executes workflow transitions. Every transition runs in
// a single transaction: the submission row is locked, the expected pre-state
// is re-checked under the lock, and the decision row plus the denormalized
// projection are written together or not at all. A pre-state mismatch
// surfaces as ErrStageMismatch with no partial writes.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) lockSubmission(ctx context.Context, tx *sqlx.Tx, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, submissionColumns)
	var submission models.Submission
	if err := tx.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// AssignReviewer sets the reviewer and moves the submission into the review
// stage. Allowed from the form stage or as a re-assignment while still in
// review (last assignee wins).
func (r *WorkflowRepository) AssignReviewer(ctx context.Context, submissionID, assigneeID string, now time.Time) (submission *models.Submission, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assign reviewer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	submission, err = r.lockSubmission(ctx, tx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Stage != models.StageForm && submission.Stage != models.StageReview {
		return nil, ErrStageMismatch
	}

	const update = `UPDATE submissions
	SET assigned_to = $1, assigned_at = $2, workflow_stage = $3, updated_at = $2
	WHERE id = $4`
	if _, err = tx.ExecContext(ctx, update, assigneeID, now, models.StageReview, submissionID); err != nil {
		return nil, fmt.Errorf("assign reviewer: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assign reviewer: %w", err)
	}

	submission.AssignedTo = &assigneeID
	submission.AssignedAt = &now
	submission.Stage = models.StageReview
	submission.UpdatedAt = now
	return submission, nil
}

// ReviewDecisionParams carries a reviewer decision.
type ReviewDecisionParams struct {
	SubmissionID string
	ReviewerID   string
	Status       models.ReviewStatus
	Notes        *string
	DecidedAt    time.Time
}

// SubmitReviewDecision appends an immutable review row and refreshes the
// denormalized review fields and stage on the submission in one transaction.
// Approval advances the stage to validation; rejection terminates the
// workflow in the rejected stage.
func (r *WorkflowRepository) SubmitReviewDecision(ctx context.Context, params ReviewDecisionParams) (review *models.Review, submission *models.Submission, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin review decision: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	submission, err = r.lockSubmission(ctx, tx, params.SubmissionID)
	if err != nil {
		return nil, nil, err
	}
	if submission.Stage != models.StageReview {
		return nil, nil, ErrStageMismatch
	}
	if submission.ReviewStatus != nil && *submission.ReviewStatus != models.ReviewPending {
		return nil, nil, ErrStageMismatch
	}

	nextStage := models.StageValidation
	if params.Status == models.ReviewRejected {
		nextStage = models.StageRejected
	}

	review = &models.Review{
		ID:           uuid.NewString(),
		SubmissionID: params.SubmissionID,
		ReviewerID:   params.ReviewerID,
		Status:       params.Status,
		Notes:        params.Notes,
		ReviewedAt:   params.DecidedAt,
		CreatedAt:    params.DecidedAt,
	}
	const insertReview = `INSERT INTO reviews (id, submission_id, reviewer_id, status, notes, reviewed_at, created_at)
	VALUES (:id, :submission_id, :reviewer_id, :status, :notes, :reviewed_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertReview, review); err != nil {
		return nil, nil, fmt.Errorf("insert review: %w", err)
	}

	const update = `UPDATE submissions
	SET review_status = $1, review_notes = $2, reviewed_by = $3, reviewed_at = $4, workflow_stage = $5, updated_at = $4
	WHERE id = $6`
	if _, err = tx.ExecContext(ctx, update, params.Status, params.Notes, params.ReviewerID, params.DecidedAt, nextStage, params.SubmissionID); err != nil {
		return nil, nil, fmt.Errorf("update review projection: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit review decision: %w", err)
	}

	submission.ReviewStatus = &params.Status
	submission.ReviewNotes = params.Notes
	submission.ReviewedBy = &params.ReviewerID
	submission.ReviewedAt = &params.DecidedAt
	submission.Stage = nextStage
	submission.UpdatedAt = params.DecidedAt
	return review, submission, nil
}

// AssignValidator sets the validator on a submission that already carries an
// approved review. Re-assignment is idempotent, last assignee wins.
func (r *WorkflowRepository) AssignValidator(ctx context.Context, submissionID, assigneeID string, now time.Time) (submission *models.Submission, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assign validator: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	submission, err = r.lockSubmission(ctx, tx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Stage != models.StageValidation {
		return nil, ErrStageMismatch
	}
	if submission.ReviewStatus == nil || *submission.ReviewStatus != models.ReviewApproved {
		return nil, ErrStageMismatch
	}

	const update = `UPDATE submissions
	SET validation_assigned_to = $1, validation_assigned_at = $2, updated_at = $2
	WHERE id = $3`
	if _, err = tx.ExecContext(ctx, update, assigneeID, now, submissionID); err != nil {
		return nil, fmt.Errorf("assign validator: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assign validator: %w", err)
	}

	submission.ValidationAssignedTo = &assigneeID
	submission.ValidationAssignedAt = &now
	submission.UpdatedAt = now
	return submission, nil
}

// ValidationDecisionParams carries a validator decision.
type ValidationDecisionParams struct {
	SubmissionID     string
	ValidatorID      string
	Status           models.ValidationStatus
	Notes            *string
	PublishDate      *time.Time
	PublishedContent json.RawMessage
	DecidedAt        time.Time
}

// SubmitValidationDecision appends an immutable validation row and refreshes
// the denormalized validation fields and stage in one transaction. Validated
// and published both complete the workflow; rejection terminates it.
func (r *WorkflowRepository) SubmitValidationDecision(ctx context.Context, params ValidationDecisionParams) (validation *models.Validation, submission *models.Submission, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin validation decision: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	submission, err = r.lockSubmission(ctx, tx, params.SubmissionID)
	if err != nil {
		return nil, nil, err
	}
	if submission.Stage != models.StageValidation {
		return nil, nil, ErrStageMismatch
	}
	if submission.ReviewStatus == nil || *submission.ReviewStatus != models.ReviewApproved {
		return nil, nil, ErrStageMismatch
	}
	if submission.ValidationStatus != nil && *submission.ValidationStatus != models.ValidationPending {
		return nil, nil, ErrStageMismatch
	}

	nextStage := models.StageCompleted
	if params.Status == models.ValidationRejected {
		nextStage = models.StageRejected
	}

	validation = &models.Validation{
		ID:               uuid.NewString(),
		SubmissionID:     params.SubmissionID,
		ValidatorID:      params.ValidatorID,
		Status:           params.Status,
		Notes:            params.Notes,
		PublishDate:      params.PublishDate,
		PublishedContent: params.PublishedContent,
		ValidatedAt:      params.DecidedAt,
		CreatedAt:        params.DecidedAt,
	}
	const insertValidation = `INSERT INTO validations
	(id, submission_id, validator_id, status, notes, publish_date, published_content, validated_at, created_at)
	VALUES (:id, :submission_id, :validator_id, :status, :notes, :publish_date, :published_content, :validated_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertValidation, validation); err != nil {
		return nil, nil, fmt.Errorf("insert validation: %w", err)
	}

	const update = `UPDATE submissions
	SET validation_status = $1, validation_notes = $2, validated_by = $3, validated_at = $4,
	    publish_date = $5, published_content = $6, workflow_stage = $7, updated_at = $4
	WHERE id = $8`
	if _, err = tx.ExecContext(ctx, update,
		params.Status, params.Notes, params.ValidatorID, params.DecidedAt,
		params.PublishDate, []byte(params.PublishedContent), nextStage, params.SubmissionID); err != nil {
		return nil, nil, fmt.Errorf("update validation projection: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit validation decision: %w", err)
	}

	submission.ValidationStatus = &params.Status
	submission.ValidationNotes = params.Notes
	submission.ValidatedBy = &params.ValidatorID
	submission.ValidatedAt = &params.DecidedAt
	submission.PublishDate = params.PublishDate
	submission.PublishedContent = params.PublishedContent
	submission.Stage = nextStage
	submission.UpdatedAt = params.DecidedAt
	return validation, submission, nil
}
