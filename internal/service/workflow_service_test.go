package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	"github.com/savanapaaa/BE-form-pengajuan/internal/repository"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
)

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

// workflowStoreStub mimics the transactional transition semantics of the
// workflow repository against an in-memory map.
type workflowStoreStub struct {
	submissions map[string]*models.Submission
	reviews     map[string][]models.Review
	validations map[string][]models.Validation
	filter      models.SubmissionFilter
}

func newWorkflowStoreStub() *workflowStoreStub {
	return &workflowStoreStub{
		submissions: make(map[string]*models.Submission),
		reviews:     make(map[string][]models.Review),
		validations: make(map[string][]models.Validation),
	}
}

func (s *workflowStoreStub) add(sub *models.Submission) {
	s.submissions[sub.ID] = sub
}

func (s *workflowStoreStub) AssignReviewer(ctx context.Context, submissionID, assigneeID string, now time.Time) (*models.Submission, error) {
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if sub.Stage != models.StageForm && sub.Stage != models.StageReview {
		return nil, repository.ErrStageMismatch
	}
	sub.AssignedTo = &assigneeID
	sub.AssignedAt = &now
	sub.Stage = models.StageReview
	copy := *sub
	return &copy, nil
}

func (s *workflowStoreStub) SubmitReviewDecision(ctx context.Context, params repository.ReviewDecisionParams) (*models.Review, *models.Submission, error) {
	sub, ok := s.submissions[params.SubmissionID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if sub.Stage != models.StageReview {
		return nil, nil, repository.ErrStageMismatch
	}
	if sub.ReviewStatus != nil && *sub.ReviewStatus != models.ReviewPending {
		return nil, nil, repository.ErrStageMismatch
	}
	review := models.Review{
		ID:           uuid.NewString(),
		SubmissionID: params.SubmissionID,
		ReviewerID:   params.ReviewerID,
		Status:       params.Status,
		Notes:        params.Notes,
		ReviewedAt:   params.DecidedAt,
	}
	s.reviews[params.SubmissionID] = append(s.reviews[params.SubmissionID], review)
	sub.ReviewStatus = &params.Status
	sub.ReviewedBy = &params.ReviewerID
	sub.ReviewedAt = &params.DecidedAt
	if params.Status == models.ReviewRejected {
		sub.Stage = models.StageRejected
	} else {
		sub.Stage = models.StageValidation
	}
	copy := *sub
	return &review, &copy, nil
}

func (s *workflowStoreStub) AssignValidator(ctx context.Context, submissionID, assigneeID string, now time.Time) (*models.Submission, error) {
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if sub.Stage != models.StageValidation {
		return nil, repository.ErrStageMismatch
	}
	if sub.ReviewStatus == nil || *sub.ReviewStatus != models.ReviewApproved {
		return nil, repository.ErrStageMismatch
	}
	sub.ValidationAssignedTo = &assigneeID
	sub.ValidationAssignedAt = &now
	copy := *sub
	return &copy, nil
}

func (s *workflowStoreStub) SubmitValidationDecision(ctx context.Context, params repository.ValidationDecisionParams) (*models.Validation, *models.Submission, error) {
	sub, ok := s.submissions[params.SubmissionID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if sub.Stage != models.StageValidation {
		return nil, nil, repository.ErrStageMismatch
	}
	if sub.ReviewStatus == nil || *sub.ReviewStatus != models.ReviewApproved {
		return nil, nil, repository.ErrStageMismatch
	}
	if sub.ValidationStatus != nil && *sub.ValidationStatus != models.ValidationPending {
		return nil, nil, repository.ErrStageMismatch
	}
	validation := models.Validation{
		ID:           uuid.NewString(),
		SubmissionID: params.SubmissionID,
		ValidatorID:  params.ValidatorID,
		Status:       params.Status,
		Notes:        params.Notes,
		ValidatedAt:  params.DecidedAt,
	}
	s.validations[params.SubmissionID] = append(s.validations[params.SubmissionID], validation)
	sub.ValidationStatus = &params.Status
	sub.ValidatedBy = &params.ValidatorID
	sub.ValidatedAt = &params.DecidedAt
	if params.Status == models.ValidationRejected {
		sub.Stage = models.StageRejected
	} else {
		sub.Stage = models.StageCompleted
	}
	copy := *sub
	return &validation, &copy, nil
}

func (s *workflowStoreStub) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	if sub, ok := s.submissions[id]; ok {
		copy := *sub
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStoreStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	s.filter = filter
	result := make([]models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if filter.Stage != "" && sub.Stage != filter.Stage {
			continue
		}
		result = append(result, *sub)
	}
	return result, nil
}

func (s *workflowStoreStub) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	items, _ := s.List(ctx, filter)
	return len(items), nil
}

func (s *workflowStoreStub) ListContentItems(ctx context.Context, submissionID string) ([]models.ContentItem, error) {
	return nil, nil
}

func (s *workflowStoreStub) ListBySubmission(ctx context.Context, submissionID string) ([]models.Review, error) {
	return s.reviews[submissionID], nil
}

func (s *workflowStoreStub) Latest(ctx context.Context, submissionID string) (*models.Review, error) {
	reviews := s.reviews[submissionID]
	if len(reviews) == 0 {
		return nil, nil
	}
	latest := reviews[len(reviews)-1]
	return &latest, nil
}

type validationListerStub struct {
	store *workflowStoreStub
}

func (v validationListerStub) ListBySubmission(ctx context.Context, submissionID string) ([]models.Validation, error) {
	return v.store.validations[submissionID], nil
}

func (v validationListerStub) Latest(ctx context.Context, submissionID string) (*models.Validation, error) {
	validations := v.store.validations[submissionID]
	if len(validations) == 0 {
		return nil, nil
	}
	latest := validations[len(validations)-1]
	return &latest, nil
}

type attachmentListerStub struct{}

func (attachmentListerStub) ListBySubmission(ctx context.Context, submissionID string) ([]models.Attachment, error) {
	return nil, nil
}

func newWorkflowTestService(store *workflowStoreStub, audit *auditStub, opts ...WorkflowServiceOption) *WorkflowService {
	return NewWorkflowService(store, store, store, validationListerStub{store: store}, attachmentListerStub{}, audit, nil, opts...)
}

func formSubmission(id, owner string) *models.Submission {
	return &models.Submission{
		ID:     id,
		UserID: owner,
		Title:  "Liputan kegiatan",
		Status: models.StatusConfirmed,
		Stage:  models.StageForm,
	}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestWorkflowHappyPathToCompleted(t *testing.T) {
	store := newWorkflowStoreStub()
	audit := &auditStub{}
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, audit)
	ctx := context.Background()

	sub, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, models.StageReview, sub.Stage)
	require.Equal(t, "rev-1", *sub.AssignedTo)

	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReview}
	sub, err = svc.SubmitReview(ctx, "sub-1", dto.SubmitReviewRequest{Status: "approved", Notes: "layak"}, reviewer)
	require.NoError(t, err)
	require.Equal(t, models.StageValidation, sub.Stage)
	require.Equal(t, models.ReviewApproved, *sub.ReviewStatus)

	sub, err = svc.AssignValidator(ctx, "sub-1", dto.AssignValidatorRequest{AssigneeID: "val-1"}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, "val-1", *sub.ValidationAssignedTo)

	validator := &models.JWTClaims{UserID: "val-1", Role: models.RoleValidasi}
	sub, err = svc.SubmitValidation(ctx, "sub-1", dto.SubmitValidationRequest{Status: "validated"}, validator)
	require.NoError(t, err)
	require.Equal(t, models.StageCompleted, sub.Stage)
	require.Equal(t, models.ValidationValidated, *sub.ValidationStatus)
	require.Len(t, audit.logs, 4)
}

func TestWorkflowReviewRejectionIsTerminal(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	_, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)

	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReview}
	sub, err := svc.SubmitReview(ctx, "sub-1", dto.SubmitReviewRequest{Status: "rejected", Notes: "tidak lengkap"}, reviewer)
	require.NoError(t, err)
	require.Equal(t, models.StageRejected, sub.Stage)

	// No further transition is possible from the rejected stage.
	_, err = svc.AssignValidator(ctx, "sub-1", dto.AssignValidatorRequest{AssigneeID: "val-1"}, adminClaims())
	requireAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-2"}, adminClaims())
	requireAppError(t, err, appErrors.ErrConflict.Code)
}

func TestWorkflowForbiddenLeavesStateUnchanged(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})

	outsider := &models.JWTClaims{UserID: "user-2", Role: models.RoleUser}
	_, err := svc.AssignReviewer(context.Background(), "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, outsider)
	requireAppError(t, err, appErrors.ErrForbidden.Code)
	require.Equal(t, models.StageForm, store.submissions["sub-1"].Stage)
	require.Nil(t, store.submissions["sub-1"].AssignedTo)
}

func TestWorkflowAssignValidatorBeforeApprovalConflicts(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	_, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)

	// Still under review, no approved decision yet.
	_, err = svc.AssignValidator(ctx, "sub-1", dto.AssignValidatorRequest{AssigneeID: "val-1"}, adminClaims())
	requireAppError(t, err, appErrors.ErrConflict.Code)
}

func TestWorkflowReviewerReassignmentLastWins(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	_, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)
	sub, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-2"}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, "rev-2", *sub.AssignedTo)
	require.Equal(t, models.StageReview, sub.Stage)
}

func TestWorkflowDoubleReviewDecisionConflicts(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	_, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)
	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReview}
	_, err = svc.SubmitReview(ctx, "sub-1", dto.SubmitReviewRequest{Status: "approved"}, reviewer)
	require.NoError(t, err)

	_, err = svc.SubmitReview(ctx, "sub-1", dto.SubmitReviewRequest{Status: "rejected"}, reviewer)
	requireAppError(t, err, appErrors.ErrConflict.Code)
}

func TestWorkflowAssignedValidatorBypassesRoleGate(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	_, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)
	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReview}
	_, err = svc.SubmitReview(ctx, "sub-1", dto.SubmitReviewRequest{Status: "approved"}, reviewer)
	require.NoError(t, err)
	_, err = svc.AssignValidator(ctx, "sub-1", dto.AssignValidatorRequest{AssigneeID: "val-1"}, adminClaims())
	require.NoError(t, err)

	// The validasi role is not in the transition policy but the assignee may decide.
	validator := &models.JWTClaims{UserID: "val-1", Role: models.RoleValidasi}
	sub, err := svc.SubmitValidation(ctx, "sub-1", dto.SubmitValidationRequest{Status: "published"}, validator)
	require.NoError(t, err)
	require.Equal(t, models.StageCompleted, sub.Stage)
	require.Equal(t, models.ValidationPublished, *sub.ValidationStatus)
}

func TestWorkflowDoubleValidationDecisionConflicts(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	_, err := svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)
	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReview}
	_, err = svc.SubmitReview(ctx, "sub-1", dto.SubmitReviewRequest{Status: "approved"}, reviewer)
	require.NoError(t, err)
	_, err = svc.SubmitValidation(ctx, "sub-1", dto.SubmitValidationRequest{Status: "validated"}, adminClaims())
	require.NoError(t, err)

	_, err = svc.SubmitValidation(ctx, "sub-1", dto.SubmitValidationRequest{Status: "rejected"}, adminClaims())
	requireAppError(t, err, appErrors.ErrConflict.Code)
}

func TestWorkflowValidationRejectsInvalidPublishedContent(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	svc := newWorkflowTestService(store, &auditStub{})

	_, err := svc.SubmitValidation(context.Background(), "sub-1", dto.SubmitValidationRequest{
		Status:           "validated",
		PublishedContent: []byte(`{not json`),
	}, adminClaims())
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestWorkflowNotFound(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newWorkflowTestService(store, &auditStub{})

	_, err := svc.AssignReviewer(context.Background(), "missing", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestWorkflowReviewQueueScopedToAssignee(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newWorkflowTestService(store, &auditStub{})

	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleUser}
	_, err := svc.ListReviewQueue(context.Background(), dto.QueueQuery{}, reviewer)
	require.NoError(t, err)
	require.Equal(t, "rev-1", store.filter.AssignedTo)
	require.Equal(t, models.StageReview, store.filter.Stage)
}

func TestWorkflowValidationQueueVisibleToValidasiRole(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newWorkflowTestService(store, &auditStub{})

	validator := &models.JWTClaims{UserID: "val-1", Role: models.RoleValidasi}
	_, err := svc.ListValidationQueue(context.Background(), dto.QueueQuery{}, validator)
	require.NoError(t, err)
	require.Empty(t, store.filter.ValidationAssignedTo)
	require.Equal(t, models.StageValidation, store.filter.Stage)
}

func TestWorkflowGetItemPossession(t *testing.T) {
	store := newWorkflowStoreStub()
	sub := formSubmission("sub-1", "user-1")
	reviewerID := "rev-1"
	sub.AssignedTo = &reviewerID
	store.add(sub)
	svc := newWorkflowTestService(store, &auditStub{})
	ctx := context.Background()

	owner := &models.JWTClaims{UserID: "user-1", Role: models.RoleUser}
	_, err := svc.GetWorkflowItem(ctx, "sub-1", owner)
	require.NoError(t, err)

	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReview}
	_, err = svc.GetWorkflowItem(ctx, "sub-1", reviewer)
	require.NoError(t, err)

	outsider := &models.JWTClaims{UserID: "user-9", Role: models.RoleUser}
	_, err = svc.GetWorkflowItem(ctx, "sub-1", outsider)
	requireAppError(t, err, appErrors.ErrForbidden.Code)
}

// queueCacheStub records queue cache traffic.
type queueCacheStub struct {
	entries     map[string][]byte
	invalidated int
}

func newQueueCacheStub() *queueCacheStub {
	return &queueCacheStub{entries: make(map[string][]byte)}
}

func (c *queueCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *queueCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *queueCacheStub) InvalidatePrefix(ctx context.Context, prefix string) {
	c.invalidated++
	c.entries = make(map[string][]byte)
}

func TestWorkflowTransitionInvalidatesQueueCache(t *testing.T) {
	store := newWorkflowStoreStub()
	store.add(formSubmission("sub-1", "user-1"))
	cache := newQueueCacheStub()
	svc := newWorkflowTestService(store, &auditStub{}, WithQueueCache(cache, time.Minute))
	ctx := context.Background()

	_, err := svc.ListReviewQueue(ctx, dto.QueueQuery{}, adminClaims())
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	_, err = svc.AssignReviewer(ctx, "sub-1", dto.AssignReviewerRequest{AssigneeID: "rev-1"}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, 1, cache.invalidated)
	require.Empty(t, cache.entries)
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code)
}
