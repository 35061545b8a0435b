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

func TestSubmissionRepositoryCreateWithItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO content_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	submission := &models.Submission{UserID: "user-1", Title: "Liputan Upacara"}
	body := "isi naskah"
	items := []models.ContentItem{{Type: "text", Title: "Naskah", Content: &body}}
	require.NoError(t, repo.Create(context.Background(), submission, items))
	require.NotEmpty(t, submission.ID)
	require.Equal(t, models.StatusDraft, submission.Status)
	require.Equal(t, models.StageForm, submission.Stage)
	require.Len(t, submission.ContentItems, 1)
	require.Equal(t, submission.ID, submission.ContentItems[0].SubmissionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, title")).
		WithArgs("sub-1").
		WillReturnRows(submissionRow("sub-1", models.StageForm, nil))

	submission, err := repo.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, "sub-1", submission.ID)
	require.Equal(t, models.StageForm, submission.Stage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListBuildsFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, title")).
		WithArgs("user-1", "review").
		WillReturnRows(submissionRow("sub-1", models.StageReview, nil))

	list, err := repo.List(context.Background(), models.SubmissionFilter{
		OwnerID: "user-1",
		Stage:   models.StageReview,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCountQueueByAssignee(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions")).
		WithArgs("review", "reviewer-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.Count(context.Background(), models.SubmissionFilter{
		Stage:      models.StageReview,
		AssignedTo: "reviewer-1",
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	title := "Judul Baru"
	err := repo.Update(context.Background(), "missing", UpdateSubmissionParams{Title: &title})
	require.ErrorIs(t, err, ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryConfirmOnlyOnce(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Confirm(context.Background(), "sub-1", now))

	// A confirmed submission no longer matches the status guard.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Confirm(context.Background(), "sub-1", now), ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET deleted_at")).
		WithArgs(sqlmock.AnyArg(), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), "sub-1", time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListContentItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"id", "submission_id", "type", "title", "content", "order_index", "is_published", "metadata", "created_at", "updated_at"}).
		AddRow("item-1", "sub-1", "text", "Naskah", "isi naskah", 0, false, []byte(nil), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submission_id, type, title")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	items, err := repo.ListContentItems(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "item-1", items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
