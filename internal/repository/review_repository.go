package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

// ReviewRepository reads the append-only reviews table. Writes go through
// WorkflowRepository so a decision row and its projection stay atomic.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListBySubmission returns all review decisions for a submission, newest first.
func (r *ReviewRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.Review, error) {
	const query = `SELECT id, submission_id, reviewer_id, status, notes, reviewed_at, created_at
	FROM reviews WHERE submission_id = $1 ORDER BY reviewed_at DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, submissionID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Latest returns the authoritative (most recent) review for a submission,
// or nil when none exists.
func (r *ReviewRepository) Latest(ctx context.Context, submissionID string) (*models.Review, error) {
	const query = `SELECT id, submission_id, reviewer_id, status, notes, reviewed_at, created_at
	FROM reviews WHERE submission_id = $1 ORDER BY reviewed_at DESC LIMIT 1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest review: %w", err)
	}
	return &review, nil
}
