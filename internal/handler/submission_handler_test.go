package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/middleware"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	"github.com/savanapaaa/BE-form-pengajuan/internal/repository"
	"github.com/savanapaaa/BE-form-pengajuan/internal/service"
)

type submissionStoreStub struct {
	submissions map[string]*models.Submission
	items       map[string][]models.ContentItem
}

func newSubmissionStoreStub() *submissionStoreStub {
	return &submissionStoreStub{
		submissions: make(map[string]*models.Submission),
		items:       make(map[string][]models.ContentItem),
	}
}

func (s *submissionStoreStub) Create(ctx context.Context, submission *models.Submission, items []models.ContentItem) error {
	if submission.ID == "" {
		submission.ID = "sub-1"
	}
	stored := *submission
	s.submissions[submission.ID] = &stored
	s.items[submission.ID] = items
	return nil
}

func (s *submissionStoreStub) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	if submission, ok := s.submissions[id]; ok {
		found := *submission
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (s *submissionStoreStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	out := make([]models.Submission, 0, len(s.submissions))
	for _, submission := range s.submissions {
		if filter.OwnerID != "" && submission.UserID != filter.OwnerID {
			continue
		}
		out = append(out, *submission)
	}
	return out, nil
}

func (s *submissionStoreStub) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	list, _ := s.List(ctx, filter)
	return len(list), nil
}

func (s *submissionStoreStub) Update(ctx context.Context, id string, params repository.UpdateSubmissionParams) error {
	submission, ok := s.submissions[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	if params.Title != nil {
		submission.Title = *params.Title
	}
	return nil
}

func (s *submissionStoreStub) Confirm(ctx context.Context, id string, now time.Time) error {
	submission, ok := s.submissions[id]
	if !ok || submission.IsConfirmed {
		return repository.ErrNoRowsAffected
	}
	submission.Status = models.StatusConfirmed
	submission.IsConfirmed = true
	submission.SubmittedAt = &now
	return nil
}

func (s *submissionStoreStub) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	if _, ok := s.submissions[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(s.submissions, id)
	return nil
}

func (s *submissionStoreStub) AddContentItem(ctx context.Context, item *models.ContentItem) error {
	if item.ID == "" {
		item.ID = "item-1"
	}
	s.items[item.SubmissionID] = append(s.items[item.SubmissionID], *item)
	return nil
}

func (s *submissionStoreStub) ListContentItems(ctx context.Context, submissionID string) ([]models.ContentItem, error) {
	return s.items[submissionID], nil
}

func newSubmissionTestHandler(store *submissionStoreStub) *SubmissionHandler {
	return NewSubmissionHandler(service.NewSubmissionService(store, nil, nil, nil))
}

func testContext(t *testing.T, method, target string, body []byte, actor *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if actor != nil {
		c.Set(middleware.ContextUserKey, actor)
	}
	return c, w
}

func TestSubmissionHandlerCreate(t *testing.T) {
	store := newSubmissionStoreStub()
	handler := newSubmissionTestHandler(store)

	body, _ := json.Marshal(dto.CreateSubmissionRequest{Title: "Liputan Upacara", Type: "video"})
	c, w := testContext(t, http.MethodPost, "/submissions", body, &models.JWTClaims{UserID: "user-1", Role: models.RoleForm})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Submission `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "Liputan Upacara", envelope.Data.Title)
	require.Equal(t, models.StageForm, envelope.Data.Stage)
}

func TestSubmissionHandlerCreateInvalidBody(t *testing.T) {
	handler := newSubmissionTestHandler(newSubmissionStoreStub())
	c, w := testContext(t, http.MethodPost, "/submissions", []byte(`invalid`), &models.JWTClaims{UserID: "user-1", Role: models.RoleForm})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerCreateRequiresAuth(t *testing.T) {
	handler := newSubmissionTestHandler(newSubmissionStoreStub())
	body, _ := json.Marshal(dto.CreateSubmissionRequest{Title: "Liputan Upacara"})
	c, w := testContext(t, http.MethodPost, "/submissions", body, nil)

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmissionHandlerGetForbiddenForStranger(t *testing.T) {
	store := newSubmissionStoreStub()
	store.submissions["sub-1"] = &models.Submission{ID: "sub-1", UserID: "user-1", Title: "Liputan", Stage: models.StageForm}
	handler := newSubmissionTestHandler(store)

	c, w := testContext(t, http.MethodGet, "/submissions/sub-1", nil, &models.JWTClaims{UserID: "user-2", Role: models.RoleForm})
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmissionHandlerConfirmConflict(t *testing.T) {
	store := newSubmissionStoreStub()
	store.submissions["sub-1"] = &models.Submission{ID: "sub-1", UserID: "user-1", Stage: models.StageForm, IsConfirmed: true}
	handler := newSubmissionTestHandler(store)

	c, w := testContext(t, http.MethodPost, "/submissions/sub-1/confirm", nil, &models.JWTClaims{UserID: "user-1", Role: models.RoleForm})
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Confirm(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmissionHandlerDelete(t *testing.T) {
	store := newSubmissionStoreStub()
	store.submissions["sub-1"] = &models.Submission{ID: "sub-1", UserID: "user-1", Stage: models.StageForm}
	handler := newSubmissionTestHandler(store)

	c, w := testContext(t, http.MethodDelete, "/submissions/sub-1", nil, &models.JWTClaims{UserID: "user-1", Role: models.RoleForm})
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, store.submissions)
}
