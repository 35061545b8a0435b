package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	"github.com/savanapaaa/BE-form-pengajuan/internal/repository"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
)

// Transition identifies a workflow state change.
type Transition string

const (
	TransitionAssignReviewer   Transition = "assign_reviewer"
	TransitionSubmitReview     Transition = "submit_review"
	TransitionAssignValidator  Transition = "assign_validator"
	TransitionSubmitValidation Transition = "submit_validation"
)

// transitionRoles is the authorization policy table: the static role
// allow-list consulted once per transition. Assigned reviewers and
// validators additionally bypass the table for their own decision
// transitions.
var transitionRoles = map[Transition][]models.UserRole{
	TransitionAssignReviewer:   {models.RoleAdmin, models.RoleSuperAdmin, models.RoleReview},
	TransitionSubmitReview:     {models.RoleAdmin, models.RoleSuperAdmin, models.RoleReview},
	TransitionAssignValidator:  {models.RoleAdmin, models.RoleSuperAdmin},
	TransitionSubmitValidation: {models.RoleAdmin, models.RoleSuperAdmin},
}

func roleAllowed(t Transition, role models.UserRole) bool {
	for _, allowed := range transitionRoles[t] {
		if allowed == role {
			return true
		}
	}
	return false
}

type workflowStore interface {
	AssignReviewer(ctx context.Context, submissionID, assigneeID string, now time.Time) (*models.Submission, error)
	SubmitReviewDecision(ctx context.Context, params repository.ReviewDecisionParams) (*models.Review, *models.Submission, error)
	AssignValidator(ctx context.Context, submissionID, assigneeID string, now time.Time) (*models.Submission, error)
	SubmitValidationDecision(ctx context.Context, params repository.ValidationDecisionParams) (*models.Validation, *models.Submission, error)
}

type workflowSubmissionReader interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int, error)
	ListContentItems(ctx context.Context, submissionID string) ([]models.ContentItem, error)
}

type reviewReader interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Review, error)
	Latest(ctx context.Context, submissionID string) (*models.Review, error)
}

type validationReader interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Validation, error)
	Latest(ctx context.Context, submissionID string) (*models.Validation, error)
}

type workflowAttachmentLister interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Attachment, error)
}

type queueCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string)
}

type cacheObserver interface {
	RecordCacheOperation(hit bool)
}

const queueCachePrefix = "workflow:queue:"

// WorkflowService owns the submission state machine: the valid stage
// transitions, the per-transition authorization gate, and the side effects
// each transition performs. The actor is passed explicitly into every call.
type WorkflowService struct {
	store       workflowStore
	submissions workflowSubmissionReader
	reviews     reviewReader
	validations validationReader
	attachments workflowAttachmentLister
	cache       queueCache
	cacheTTL    time.Duration
	observer    cacheObserver
	audit       auditLogger
	logger      *zap.Logger
}

// WorkflowServiceOption configures the service.
type WorkflowServiceOption func(*WorkflowService)

// WithQueueCache enables queue-listing caching with the given TTL.
func WithQueueCache(cache queueCache, ttl time.Duration) WorkflowServiceOption {
	return func(s *WorkflowService) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

// WithCacheObserver records queue cache hits and misses.
func WithCacheObserver(observer cacheObserver) WorkflowServiceOption {
	return func(s *WorkflowService) {
		s.observer = observer
	}
}

// NewWorkflowService constructs the workflow engine.
func NewWorkflowService(store workflowStore, submissions workflowSubmissionReader, reviews reviewReader, validations validationReader, attachments workflowAttachmentLister, audit auditLogger, logger *zap.Logger, opts ...WorkflowServiceOption) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &WorkflowService{
		store:       store,
		submissions: submissions,
		reviews:     reviews,
		validations: validations,
		attachments: attachments,
		audit:       audit,
		logger:      logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// AssignReviewer appoints a reviewer and moves the submission into review.
func (s *WorkflowService) AssignReviewer(ctx context.Context, submissionID string, req dto.AssignReviewerRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !roleAllowed(TransitionAssignReviewer, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to assign reviews")
	}
	if strings.TrimSpace(req.AssigneeID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee_id is required")
	}

	submission, err := s.store.AssignReviewer(ctx, submissionID, req.AssigneeID, time.Now().UTC())
	if err != nil {
		return nil, s.mapTransitionError(err, "failed to assign reviewer")
	}

	s.invalidateQueues(ctx)
	s.emitAudit(ctx, actor, models.AuditActionReviewAssign, submissionID, map[string]string{"assigned_to": req.AssigneeID})
	return submission, nil
}

// SubmitReview records a reviewer decision. Approval advances the stage to
// validation; rejection is terminal.
func (s *WorkflowService) SubmitReview(ctx context.Context, submissionID string, req dto.SubmitReviewRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	status := models.ReviewStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != models.ReviewApproved && status != models.ReviewRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved or rejected")
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !s.isAssignedReviewer(submission, actor) && !roleAllowed(TransitionSubmitReview, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to review this submission")
	}

	// The reviews table is the source of truth for decisions; an existing
	// row means this submission was already decided.
	latest, err := s.reviews.Latest(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest review")
	}
	if latest != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already has a review decision")
	}

	_, submission, err = s.store.SubmitReviewDecision(ctx, repository.ReviewDecisionParams{
		SubmissionID: submissionID,
		ReviewerID:   actor.UserID,
		Status:       status,
		Notes:        optionalString(req.Notes),
		DecidedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "failed to submit review")
	}

	s.invalidateQueues(ctx)
	s.emitAudit(ctx, actor, models.AuditActionReviewDecision, submissionID, map[string]string{"status": string(status)})
	return submission, nil
}

// AssignValidator appoints a validator on a submission with an approved
// review. Re-assignment is idempotent, last assignee wins.
func (s *WorkflowService) AssignValidator(ctx context.Context, submissionID string, req dto.AssignValidatorRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !roleAllowed(TransitionAssignValidator, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to assign validations")
	}
	if strings.TrimSpace(req.AssigneeID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee_id is required")
	}

	submission, err := s.store.AssignValidator(ctx, submissionID, req.AssigneeID, time.Now().UTC())
	if err != nil {
		return nil, s.mapTransitionError(err, "failed to assign validator")
	}

	s.invalidateQueues(ctx)
	s.emitAudit(ctx, actor, models.AuditActionValidationAssign, submissionID, map[string]string{"validation_assigned_to": req.AssigneeID})
	return submission, nil
}

// SubmitValidation records a validator decision. Validated and published are
// both terminal-success; rejection is terminal failure.
func (s *WorkflowService) SubmitValidation(ctx context.Context, submissionID string, req dto.SubmitValidationRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	status := models.ValidationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	switch status {
	case models.ValidationValidated, models.ValidationPublished, models.ValidationRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be validated, published, or rejected")
	}
	if len(req.PublishedContent) > 0 && !json.Valid(req.PublishedContent) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "published_content must be valid JSON")
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !s.isAssignedValidator(submission, actor) && !roleAllowed(TransitionSubmitValidation, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to validate this submission")
	}

	latest, err := s.validations.Latest(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest validation")
	}
	if latest != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already has a validation decision")
	}

	_, submission, err = s.store.SubmitValidationDecision(ctx, repository.ValidationDecisionParams{
		SubmissionID:     submissionID,
		ValidatorID:      actor.UserID,
		Status:           status,
		Notes:            optionalString(req.Notes),
		PublishDate:      req.PublishDate,
		PublishedContent: req.PublishedContent,
		DecidedAt:        time.Now().UTC(),
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "failed to submit validation")
	}

	s.invalidateQueues(ctx)
	s.emitAudit(ctx, actor, models.AuditActionValidationDecision, submissionID, map[string]string{"status": string(status)})
	return submission, nil
}

// QueuePage bundles queue entries with pagination metadata.
type QueuePage struct {
	Items      []models.Submission `json:"items"`
	Pagination models.Pagination   `json:"pagination"`
}

// ListReviewQueue returns submissions awaiting review. Privileged roles see
// the whole queue; everyone else only sees rows assigned to them.
func (s *WorkflowService) ListReviewQueue(ctx context.Context, query dto.QueueQuery, actor *models.JWTClaims) (*QueuePage, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.SubmissionFilter{
		Stage:        models.StageReview,
		ReviewStatus: models.ReviewStatus(strings.ToLower(query.Status)),
		AssignedTo:   query.AssignedTo,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if !roleAllowed(TransitionSubmitReview, actor.Role) {
		filter.AssignedTo = actor.UserID
	}
	return s.listQueue(ctx, "review", filter)
}

// ListValidationQueue returns submissions awaiting validation. The validasi
// role sees the whole queue alongside admins; others only their assignments.
func (s *WorkflowService) ListValidationQueue(ctx context.Context, query dto.QueueQuery, actor *models.JWTClaims) (*QueuePage, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.SubmissionFilter{
		Stage:                models.StageValidation,
		ReviewStatus:         models.ReviewApproved,
		ValidationAssignedTo: query.AssignedTo,
		Page:                 query.Page,
		PageSize:             query.PageSize,
	}
	if !roleAllowed(TransitionSubmitValidation, actor.Role) && actor.Role != models.RoleValidasi {
		filter.ValidationAssignedTo = actor.UserID
	}
	return s.listQueue(ctx, "validation", filter)
}

func (s *WorkflowService) listQueue(ctx context.Context, name string, filter models.SubmissionFilter) (*QueuePage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 10
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s:%s:%d:%d", queueCachePrefix, name,
		filter.ReviewStatus, filter.AssignedTo, filter.ValidationAssignedTo, filter.Page, filter.PageSize)
	if s.cache != nil {
		var cached QueuePage
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.observer != nil {
				s.observer.RecordCacheOperation(true)
			}
			return &cached, nil
		}
		if s.observer != nil {
			s.observer.RecordCacheOperation(false)
		}
	}

	items, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list queue")
	}
	total, err := s.submissions.Count(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count queue")
	}

	page := &QueuePage{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, page, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache queue page", zap.Error(err))
		}
	}
	return page, nil
}

// GetWorkflowItem loads a submission with its decision history, enforcing
// the possession predicate: owner, assigned reviewer, assigned validator,
// or a privileged role.
func (s *WorkflowService) GetWorkflowItem(ctx context.Context, submissionID string, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !s.canAccess(submission, actor) {
		return nil, appErrors.ErrForbidden
	}

	if submission.Reviews, err = s.reviews.ListBySubmission(ctx, submissionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviews")
	}
	if submission.Validations, err = s.validations.ListBySubmission(ctx, submissionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validations")
	}
	if submission.ContentItems, err = s.submissions.ListContentItems(ctx, submissionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content items")
	}
	if submission.Attachments, err = s.attachments.ListBySubmission(ctx, submissionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachments")
	}
	return submission, nil
}

func (s *WorkflowService) canAccess(submission *models.Submission, actor *models.JWTClaims) bool {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		return true
	}
	if submission.UserID == actor.UserID {
		return true
	}
	return s.isAssignedReviewer(submission, actor) || s.isAssignedValidator(submission, actor)
}

func (s *WorkflowService) isAssignedReviewer(submission *models.Submission, actor *models.JWTClaims) bool {
	return submission.AssignedTo != nil && *submission.AssignedTo == actor.UserID
}

func (s *WorkflowService) isAssignedValidator(submission *models.Submission, actor *models.JWTClaims) bool {
	return submission.ValidationAssignedTo != nil && *submission.ValidationAssignedTo == actor.UserID
}

func (s *WorkflowService) mapTransitionError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrNotFound
	case errors.Is(err, repository.ErrStageMismatch):
		return appErrors.Clone(appErrors.ErrConflict, "submission is not in the expected workflow state")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func (s *WorkflowService) invalidateQueues(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePrefix(ctx, queueCachePrefix)
	}
}

func (s *WorkflowService) emitAudit(ctx context.Context, actor *models.JWTClaims, action models.AuditAction, submissionID string, values map[string]string) {
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
