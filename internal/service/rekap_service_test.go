package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
)

type rekapReaderStub struct {
	submissions    []models.Submission
	counts         map[models.WorkflowStage]int
	capturedFilter models.SubmissionFilter
}

func (s *rekapReaderStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	s.capturedFilter = filter
	out := make([]models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if filter.Stage != "" && sub.Stage != filter.Stage {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *rekapReaderStub) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	return s.counts[filter.Stage], nil
}

func rekapClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "rekap-1", Role: models.RoleRekap}
}

func completedSubmission(id, title string) models.Submission {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	contentType := "video"
	reviewStatus := models.ReviewApproved
	validationStatus := models.ValidationValidated
	return models.Submission{
		ID:               id,
		Title:            title,
		Type:             &contentType,
		UserID:           "user-1",
		Stage:            models.StageCompleted,
		ReviewStatus:     &reviewStatus,
		ValidationStatus: &validationStatus,
		SubmittedAt:      &now,
		ValidatedAt:      &now,
	}
}

func TestRekapExportCSV(t *testing.T) {
	reader := &rekapReaderStub{submissions: []models.Submission{
		completedSubmission("sub-1", "Liputan Upacara"),
		completedSubmission("sub-2", "Pengumuman PPDB"),
	}}
	svc := NewRekapService(reader, nil, nil)

	result, err := svc.Export(context.Background(), dto.RekapQuery{}, rekapClaims())
	require.NoError(t, err)
	require.Equal(t, 2, result.RowCount)
	require.Equal(t, "text/csv", result.ContentType)
	require.True(t, strings.HasPrefix(result.FileName, "rekap-completed-"))
	require.True(t, strings.HasSuffix(result.FileName, ".csv"))
	require.Equal(t, models.StageCompleted, reader.capturedFilter.Stage)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "ID,Title,Type,Owner,Stage,Review Status,Validation Status,Submitted At,Validated At", strings.TrimSpace(lines[0]))
	require.Contains(t, lines[1], "Liputan Upacara")
	require.Contains(t, lines[1], "approved")
	require.Contains(t, lines[1], "validated")
}

func TestRekapExportPDF(t *testing.T) {
	reader := &rekapReaderStub{submissions: []models.Submission{completedSubmission("sub-1", "Liputan Upacara")}}
	svc := NewRekapService(reader, nil, nil)

	result, err := svc.Export(context.Background(), dto.RekapQuery{Format: "pdf"}, rekapClaims())
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasSuffix(result.FileName, ".pdf"))
	require.True(t, len(result.Content) > 0)
	require.Equal(t, "%PDF", string(result.Content[:4]))
}

func TestRekapExportRejectedStage(t *testing.T) {
	rejected := completedSubmission("sub-3", "Konten Ditolak")
	rejected.Stage = models.StageRejected
	reader := &rekapReaderStub{submissions: []models.Submission{rejected}}
	svc := NewRekapService(reader, nil, nil)

	result, err := svc.Export(context.Background(), dto.RekapQuery{Stage: "rejected"}, rekapClaims())
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	require.Equal(t, models.StageRejected, reader.capturedFilter.Stage)
}

func TestRekapExportInvalidFormat(t *testing.T) {
	svc := NewRekapService(&rekapReaderStub{}, nil, nil)

	_, err := svc.Export(context.Background(), dto.RekapQuery{Format: "xlsx"}, rekapClaims())
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestRekapExportForbiddenForOtherRoles(t *testing.T) {
	svc := NewRekapService(&rekapReaderStub{}, nil, nil)

	_, err := svc.Export(context.Background(), dto.RekapQuery{}, ownerClaims())
	requireAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestRekapSummaryCountsAllStages(t *testing.T) {
	reader := &rekapReaderStub{counts: map[models.WorkflowStage]int{
		models.StageForm:       3,
		models.StageReview:     2,
		models.StageValidation: 1,
		models.StageCompleted:  7,
		models.StageRejected:   4,
	}}
	svc := NewRekapService(reader, nil, nil)

	counts, err := svc.Summary(context.Background(), rekapClaims())
	require.NoError(t, err)
	require.Len(t, counts, 5)
	require.Equal(t, 7, counts[models.StageCompleted])
	require.Equal(t, 4, counts[models.StageRejected])
}
