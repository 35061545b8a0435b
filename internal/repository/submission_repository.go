package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

const submissionColumns = `id, user_id, title, description, type, status, workflow_stage, is_confirmed, submitted_at,
       assigned_to, assigned_at, review_status, review_notes, reviewed_by, reviewed_at,
       validation_assigned_to, validation_assigned_at, validation_status, validation_notes,
       validated_by, validated_at, publish_date, published_content, created_at, updated_at, deleted_at`

// SubmissionRepository persists submissions and their content items.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission together with its content items atomically.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission, items []models.ContentItem) (err error) {
	now := time.Now().UTC()
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.Status == "" {
		submission.Status = models.StatusDraft
	}
	if submission.Stage == "" {
		submission.Stage = models.StageForm
	}
	submission.CreatedAt = now
	submission.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO submissions
	(id, user_id, title, description, type, status, workflow_stage, is_confirmed, created_at, updated_at)
	VALUES (:id, :user_id, :title, :description, :type, :status, :workflow_stage, :is_confirmed, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].SubmissionID = submission.ID
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		const itemQuery = `INSERT INTO content_items
		(id, submission_id, type, title, content, order_index, is_published, metadata, created_at, updated_at)
		VALUES (:id, :submission_id, :type, :title, :content, :order_index, :is_published, :metadata, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, itemQuery, items[i]); err != nil {
			return fmt.Errorf("create content item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	submission.ContentItems = items
	return nil
}

// GetByID fetches a non-deleted submission by identifier.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1 AND deleted_at IS NULL`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// List returns submissions matching the filter, newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM submissions`, submissionColumns))

	conditions, args := submissionConditions(filter)
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.PageSize
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, (page-1)*limit))

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// Count returns the number of submissions matching the filter.
func (r *SubmissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	conditions, args := submissionConditions(filter)
	query := "SELECT COUNT(*) FROM submissions WHERE " + strings.Join(conditions, " AND ")
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}

func submissionConditions(filter models.SubmissionFilter) ([]string, []interface{}) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0, 6)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Stage != "" {
		args = append(args, filter.Stage)
		conditions = append(conditions, fmt.Sprintf("workflow_stage = $%d", len(args)))
	}
	if filter.ReviewStatus != "" {
		args = append(args, filter.ReviewStatus)
		conditions = append(conditions, fmt.Sprintf("review_status = $%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.ValidationAssignedTo != "" {
		args = append(args, filter.ValidationAssignedTo)
		conditions = append(conditions, fmt.Sprintf("validation_assigned_to = $%d", len(args)))
	}
	return conditions, args
}

// UpdateSubmissionParams groups owner-editable columns.
type UpdateSubmissionParams struct {
	Title       *string
	Description *string
	Type        *string
	Status      *models.SubmissionStatus
}

// Update modifies owner-editable fields on a submission.
func (r *SubmissionRepository) Update(ctx context.Context, id string, params UpdateSubmissionParams) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if params.Title != nil {
		args = append(args, *params.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, *params.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.Type != nil {
		args = append(args, *params.Type)
		sets = append(sets, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE submissions SET %s WHERE id = $%d AND deleted_at IS NULL", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Confirm marks a draft submission as submitted and confirmed.
func (r *SubmissionRepository) Confirm(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE submissions
	SET status = $1, is_confirmed = TRUE, submitted_at = $2, updated_at = $2
	WHERE id = $3 AND deleted_at IS NULL AND status IN ($4, $5)`
	result, err := r.db.ExecContext(ctx, query, models.StatusConfirmed, now, id, models.StatusDraft, models.StatusSubmitted)
	if err != nil {
		return fmt.Errorf("confirm submission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SoftDelete marks the submission deleted without removing the row.
func (r *SubmissionRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `UPDATE submissions SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return fmt.Errorf("soft delete submission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// AddContentItem appends a content item to an existing submission.
func (r *SubmissionRepository) AddContentItem(ctx context.Context, item *models.ContentItem) error {
	now := time.Now().UTC()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO content_items
	(id, submission_id, type, title, content, order_index, is_published, metadata, created_at, updated_at)
	VALUES (:id, :submission_id, :type, :title, :content, :order_index, :is_published, :metadata, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("add content item: %w", err)
	}
	return nil
}

// ListContentItems returns a submission's items in display order.
func (r *SubmissionRepository) ListContentItems(ctx context.Context, submissionID string) ([]models.ContentItem, error) {
	const query = `SELECT id, submission_id, type, title, content, order_index, is_published, metadata, created_at, updated_at
	FROM content_items WHERE submission_id = $1 ORDER BY order_index ASC, created_at ASC`
	var items []models.ContentItem
	if err := r.db.SelectContext(ctx, &items, query, submissionID); err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	return items, nil
}
