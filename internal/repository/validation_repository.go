package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

// ValidationRepository reads the append-only validations table, symmetric to
// ReviewRepository.
type ValidationRepository struct {
	db *sqlx.DB
}

// NewValidationRepository constructs the repository.
func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// ListBySubmission returns all validation decisions for a submission, newest first.
func (r *ValidationRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.Validation, error) {
	const query = `SELECT id, submission_id, validator_id, status, notes, publish_date, published_content, validated_at, created_at
	FROM validations WHERE submission_id = $1 ORDER BY validated_at DESC`
	var validations []models.Validation
	if err := r.db.SelectContext(ctx, &validations, query, submissionID); err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	return validations, nil
}

// Latest returns the most recent validation for a submission, or nil when
// none exists.
func (r *ValidationRepository) Latest(ctx context.Context, submissionID string) (*models.Validation, error) {
	const query = `SELECT id, submission_id, validator_id, status, notes, publish_date, published_content, validated_at, created_at
	FROM validations WHERE submission_id = $1 ORDER BY validated_at DESC LIMIT 1`
	var validation models.Validation
	if err := r.db.GetContext(ctx, &validation, query, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest validation: %w", err)
	}
	return &validation, nil
}
