package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	"github.com/savanapaaa/BE-form-pengajuan/internal/repository"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type submissionStore interface {
	Create(ctx context.Context, submission *models.Submission, items []models.ContentItem) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int, error)
	Update(ctx context.Context, id string, params repository.UpdateSubmissionParams) error
	Confirm(ctx context.Context, id string, now time.Time) error
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
	AddContentItem(ctx context.Context, item *models.ContentItem) error
	ListContentItems(ctx context.Context, submissionID string) ([]models.ContentItem, error)
}

// SubmissionService manages submission CRUD and the owner-facing lifecycle
// before the workflow takes over.
type SubmissionService struct {
	repo      submissionStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs the service.
func NewSubmissionService(repo submissionStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubmissionService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Create stores a new draft submission owned by the actor.
func (s *SubmissionService) Create(ctx context.Context, req dto.CreateSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	submission := &models.Submission{
		UserID:      actor.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: optionalString(req.Description),
		Type:        optionalString(req.Type),
		Status:      models.StatusDraft,
		Stage:       models.StageForm,
	}
	items := make([]models.ContentItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.ContentItem{
			Type:       item.Type,
			Title:      item.Title,
			Content:    optionalString(item.Content),
			OrderIndex: item.OrderIndex,
			Metadata:   item.Metadata,
		})
	}

	if err := s.repo.Create(ctx, submission, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.emitAudit(ctx, actor, models.AuditActionSubmissionCreate, submission.ID, map[string]string{"title": submission.Title})
	return submission, nil
}

// List returns submissions visible to the actor. Non-privileged callers only
// see rows they own.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionQuery, actor *models.JWTClaims) ([]models.Submission, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.SubmissionFilter{
		Status:   models.SubmissionStatus(strings.ToLower(query.Status)),
		Stage:    models.WorkflowStage(strings.ToLower(query.Stage)),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 10
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		filter.OwnerID = actor.UserID
	}

	submissions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count submissions")
	}
	return submissions, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get loads one submission, enforcing the possession predicate.
func (s *SubmissionService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Submission, error) {
	submission, err := s.authorize(ctx, id, actor, false)
	if err != nil {
		return nil, err
	}
	if submission.ContentItems, err = s.repo.ListContentItems(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content items")
	}
	return submission, nil
}

// Update modifies draft-stage fields. Only the owner or a privileged role
// may update, and only while the workflow has not advanced past form.
func (s *SubmissionService) Update(ctx context.Context, id string, req dto.UpdateSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	submission, err := s.authorize(ctx, id, actor, true)
	if err != nil {
		return nil, err
	}
	if submission.Stage != models.StageForm {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already entered the workflow")
	}

	if err := s.repo.Update(ctx, id, repository.UpdateSubmissionParams{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
	}); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	return s.repo.GetByID(ctx, id)
}

// Confirm marks a draft submission as submitted and confirmed, recording the
// submission timestamp.
func (s *SubmissionService) Confirm(ctx context.Context, id string, actor *models.JWTClaims) (*models.Submission, error) {
	if _, err := s.authorize(ctx, id, actor, true); err != nil {
		return nil, err
	}
	if err := s.repo.Confirm(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission already confirmed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm submission")
	}
	s.emitAudit(ctx, actor, models.AuditActionSubmissionConfirm, id, nil)
	return s.repo.GetByID(ctx, id)
}

// Delete soft-deletes a submission.
func (s *SubmissionService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if _, err := s.authorize(ctx, id, actor, true); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	return nil
}

// AddContentItem appends a content item to a draft submission.
func (s *SubmissionService) AddContentItem(ctx context.Context, submissionID string, req dto.CreateContentItemRequest, actor *models.JWTClaims) (*models.ContentItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content item payload")
	}
	submission, err := s.authorize(ctx, submissionID, actor, true)
	if err != nil {
		return nil, err
	}
	if submission.Stage != models.StageForm {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already entered the workflow")
	}

	item := &models.ContentItem{
		SubmissionID: submissionID,
		Type:         req.Type,
		Title:        req.Title,
		Content:      optionalString(req.Content),
		OrderIndex:   req.OrderIndex,
		Metadata:     req.Metadata,
	}
	if err := s.repo.AddContentItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add content item")
	}
	return item, nil
}

// ListContentItems returns a submission's items to an authorized caller.
func (s *SubmissionService) ListContentItems(ctx context.Context, submissionID string, actor *models.JWTClaims) ([]models.ContentItem, error) {
	if _, err := s.authorize(ctx, submissionID, actor, false); err != nil {
		return nil, err
	}
	items, err := s.repo.ListContentItems(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list content items")
	}
	return items, nil
}

// authorize loads the submission and applies the possession predicate. When
// ownerOnly is set, assignment-based possession is not sufficient.
func (s *SubmissionService) authorize(ctx context.Context, id string, actor *models.JWTClaims, ownerOnly bool) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		return submission, nil
	}
	if submission.UserID == actor.UserID {
		return submission, nil
	}
	if !ownerOnly {
		if submission.AssignedTo != nil && *submission.AssignedTo == actor.UserID {
			return submission, nil
		}
		if submission.ValidationAssignedTo != nil && *submission.ValidationAssignedTo == actor.UserID {
			return submission, nil
		}
	}
	return nil, appErrors.ErrForbidden
}

func (s *SubmissionService) emitAudit(ctx context.Context, actor *models.JWTClaims, action models.AuditAction, submissionID string, values map[string]string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(values)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "submission",
		ResourceID: &submissionID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
