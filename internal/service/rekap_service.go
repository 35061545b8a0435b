package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/export"
)

type rekapSubmissionReader interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int, error)
}

// RekapResult carries a rendered export document.
type RekapResult struct {
	FileName    string
	ContentType string
	Content     []byte
	RowCount    int
}

// RekapService produces recap exports of finished submissions for the
// rekap role and administrators.
type RekapService struct {
	submissions rekapSubmissionReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRekapService constructs a RekapService instance.
func NewRekapService(submissions rekapSubmissionReader, validate *validator.Validate, logger *zap.Logger) *RekapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RekapService{
		submissions: submissions,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
	}
}

var rekapHeaders = []string{
	"ID", "Title", "Type", "Owner", "Stage", "Review Status", "Validation Status", "Submitted At", "Validated At",
}

// Export renders finished submissions as CSV or PDF.
func (s *RekapService) Export(ctx context.Context, query dto.RekapQuery, actor *models.JWTClaims) (*RekapResult, error) {
	if err := rekapAllowed(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recap query")
	}

	stage := models.StageCompleted
	if query.Stage != "" {
		stage = models.WorkflowStage(query.Stage)
	}
	filter := models.SubmissionFilter{
		Stage:    stage,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 200
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	dataset := export.NewDataset(rekapHeaders...)
	for i := range submissions {
		dataset.Append(rekapRow(&submissions[i]))
	}

	format := query.Format
	if format == "" {
		format = "csv"
	}
	stamp := time.Now().UTC().Format("20060102-150405")
	title := fmt.Sprintf("Rekap %s", stage)

	var result RekapResult
	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		result = RekapResult{
			FileName:    fmt.Sprintf("rekap-%s-%s.pdf", stage, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		result = RekapResult{
			FileName:    fmt.Sprintf("rekap-%s-%s.csv", stage, stamp),
			ContentType: "text/csv",
			Content:     content,
		}
	}
	result.RowCount = dataset.Len()

	s.logger.Info("recap exported",
		zap.String("stage", string(stage)),
		zap.String("format", format),
		zap.Int("rows", result.RowCount),
		zap.String("actor_id", actor.UserID))
	return &result, nil
}

// Summary returns per-stage submission counts for the recap dashboard.
func (s *RekapService) Summary(ctx context.Context, actor *models.JWTClaims) (map[models.WorkflowStage]int, error) {
	if err := rekapAllowed(actor); err != nil {
		return nil, err
	}
	stages := []models.WorkflowStage{
		models.StageForm, models.StageReview, models.StageValidation, models.StageCompleted, models.StageRejected,
	}
	counts := make(map[models.WorkflowStage]int, len(stages))
	for _, stage := range stages {
		count, err := s.submissions.Count(ctx, models.SubmissionFilter{Stage: stage})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count submissions")
		}
		counts[stage] = count
	}
	return counts, nil
}

func rekapRow(submission *models.Submission) map[string]string {
	row := map[string]string{
		"ID":    submission.ID,
		"Title": submission.Title,
		"Owner": submission.UserID,
		"Stage": string(submission.Stage),
	}
	if submission.Type != nil {
		row["Type"] = *submission.Type
	}
	if submission.ReviewStatus != nil {
		row["Review Status"] = string(*submission.ReviewStatus)
	}
	if submission.ValidationStatus != nil {
		row["Validation Status"] = string(*submission.ValidationStatus)
	}
	if submission.SubmittedAt != nil {
		row["Submitted At"] = submission.SubmittedAt.Format(time.RFC3339)
	}
	if submission.ValidatedAt != nil {
		row["Validated At"] = submission.ValidatedAt.Format(time.RFC3339)
	}
	return row
}

func rekapAllowed(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleRekap, models.RoleAdmin, models.RoleSuperAdmin:
		return nil
	}
	return appErrors.ErrForbidden
}
