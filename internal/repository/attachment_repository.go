package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

const attachmentColumns = `id, submission_id, user_id, original_filename, file_path, mime_type, file_type,
       size_bytes, description, download_count, created_at, updated_at`

// AttachmentRepository persists attachment metadata rows.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts a new attachment row.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	now := time.Now().UTC()
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	attachment.CreatedAt = now
	attachment.UpdatedAt = now
	const query = `INSERT INTO attachments
	(id, submission_id, user_id, original_filename, file_path, mime_type, file_type, size_bytes, description, download_count, created_at, updated_at)
	VALUES (:id, :submission_id, :user_id, :original_filename, :file_path, :mime_type, :file_type, :size_bytes, :description, :download_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// GetByID fetches an attachment by identifier.
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM attachments WHERE id = $1`, attachmentColumns)
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListBySubmission returns attachments bound to a submission.
func (r *AttachmentRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM attachments WHERE submission_id = $1 ORDER BY created_at ASC`, attachmentColumns)
	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, submissionID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// IncrementDownloadCount bumps the counter after an authorized download.
func (r *AttachmentRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	const query = `UPDATE attachments SET download_count = download_count + 1, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}

// Delete removes the metadata row. Blob deletion happens first in the
// service; a crash in between leaves an orphan row that surfaces NotFound
// on the next download.
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
