package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
)

var attachmentRowColumns = []string{
	"id", "submission_id", "user_id", "original_filename", "file_path", "mime_type", "file_type",
	"size_bytes", "description", "download_count", "created_at", "updated_at",
}

func TestAttachmentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attachments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	attachment := &models.Attachment{
		SubmissionID:     "sub-1",
		UserID:           "user-1",
		OriginalFilename: "naskah.pdf",
		FilePath:         "sub-1/naskah.pdf",
		MimeType:         "application/pdf",
		FileType:         models.FileTypeDocument,
		SizeBytes:        2048,
	}
	require.NoError(t, repo.Create(context.Background(), attachment))
	require.NotEmpty(t, attachment.ID)

	rows := sqlmock.NewRows(attachmentRowColumns).
		AddRow(attachment.ID, "sub-1", "user-1", "naskah.pdf", "sub-1/naskah.pdf", "application/pdf", "document",
			2048, nil, 0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submission_id, user_id")).
		WithArgs(attachment.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), attachment.ID)
	require.NoError(t, err)
	require.Equal(t, models.FileTypeDocument, found.FileType)
	require.Equal(t, int64(2048), found.SizeBytes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryListBySubmission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	rows := sqlmock.NewRows(attachmentRowColumns).
		AddRow("att-1", "sub-1", "user-1", "foto.jpg", "sub-1/foto.jpg", "image/jpeg", "image", 512, nil, 3, time.Now(), time.Now()).
		AddRow("att-2", "sub-1", "user-1", "naskah.pdf", "sub-1/naskah.pdf", "application/pdf", "document", 2048, nil, 0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submission_id, user_id")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	attachments, err := repo.ListBySubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, attachments, 2)
	require.Equal(t, "att-1", attachments[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryIncrementDownloadCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attachments SET download_count = download_count + 1")).
		WithArgs(sqlmock.AnyArg(), "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementDownloadCount(context.Background(), "att-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttachmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attachments WHERE id")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}
