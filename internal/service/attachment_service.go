package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
)

type attachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Attachment, error)
	IncrementDownloadCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type attachmentSubmissionReader interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
}

type blobStorage interface {
	GenerateKey(originalFilename string) string
	SaveStream(key string, r io.Reader) (string, error)
	Open(key string) (*os.File, error)
	Exists(key string) bool
	Delete(key string) error
}

type downloadSigner interface {
	Generate(attachmentID, blobKey string) (string, time.Time, error)
	Parse(token string) (attachmentID, blobKey string, expiresAt time.Time, err error)
}

// AttachmentUpload carries upload metadata and the stream reader.
type AttachmentUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// AttachmentDownload bundles a blob reader with response metadata.
type AttachmentDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// AttachmentServiceConfig holds storage validation parameters.
type AttachmentServiceConfig struct {
	MaxFileSize int64
	APIPrefix   string
}

// AttachmentService manages attachment metadata and blob IO. The workflow
// never depends on attachments; they attach to and detach from submissions
// independently of the stage.
type AttachmentService struct {
	repo        attachmentStore
	submissions attachmentSubmissionReader
	storage     blobStorage
	signer      downloadSigner
	audit       auditLogger
	logger      *zap.Logger
	cfg         AttachmentServiceConfig
}

// NewAttachmentService constructs the service with defaults.
func NewAttachmentService(repo attachmentStore, submissions attachmentSubmissionReader, storage blobStorage, signer downloadSigner, audit auditLogger, logger *zap.Logger, cfg AttachmentServiceConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &AttachmentService{repo: repo, submissions: submissions, storage: storage, signer: signer, audit: audit, logger: logger, cfg: cfg}
}

// Upload stores the blob and persists the metadata row. The file type
// category is classified once here from the MIME type.
func (s *AttachmentService) Upload(ctx context.Context, meta dto.CreateAttachmentRequest, upload AttachmentUpload, actor *models.JWTClaims) (*models.Attachment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(meta.SubmissionID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission_id is required")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	submission, err := s.submissions.GetByID(ctx, meta.SubmissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission.UserID != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to attach files to this submission")
	}

	key := s.storage.GenerateKey(upload.Filename)
	path, err := s.storage.SaveStream(key, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment blob")
	}

	attachment := &models.Attachment{
		SubmissionID:     meta.SubmissionID,
		UserID:           actor.UserID,
		OriginalFilename: upload.Filename,
		FilePath:         path,
		MimeType:         upload.MimeType,
		FileType:         models.ClassifyFileType(upload.MimeType),
		SizeBytes:        upload.Size,
		Description:      optionalString(meta.Description),
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		_ = s.storage.Delete(path)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attachment metadata")
	}

	s.emitAudit(ctx, actor, models.AuditActionAttachmentUpload, attachment)
	return attachment, nil
}

// Download streams the blob for an authorized caller and bumps the counter.
// A metadata row whose blob disappeared surfaces NotFound.
func (s *AttachmentService) Download(ctx context.Context, id string, actor *models.JWTClaims) (*AttachmentDownload, error) {
	attachment, err := s.authorize(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, attachment)
}

// GenerateLink issues a time-limited signed download URL.
func (s *AttachmentService) GenerateLink(ctx context.Context, id string, actor *models.JWTClaims) (*dto.AttachmentLink, error) {
	attachment, err := s.authorize(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "signed downloads not configured")
	}
	token, expiresAt, err := s.signer.Generate(attachment.ID, attachment.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.AttachmentLink{
		URL:       fmt.Sprintf("%s/files/download?token=%s", s.cfg.APIPrefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// DownloadByToken streams the blob referenced by a valid signed token.
func (s *AttachmentService) DownloadByToken(ctx context.Context, token string) (*AttachmentDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "signed downloads not configured")
	}
	attachmentID, blobKey, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	attachment, err := s.repo.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.FilePath != blobKey {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	return s.open(ctx, attachment)
}

// Delete removes the blob first, then the metadata row. A crash in between
// orphans the row; the next download reports NotFound.
func (s *AttachmentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	attachment, err := s.authorize(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(attachment.FilePath); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment blob")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment metadata")
	}
	s.emitAudit(ctx, actor, models.AuditActionAttachmentDelete, attachment)
	return nil
}

// ListBySubmission returns attachment metadata for a submission the caller
// may access.
func (s *AttachmentService) ListBySubmission(ctx context.Context, submissionID string, actor *models.JWTClaims) ([]models.Attachment, error) {
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
	if !s.canAccessSubmission(submission, actor) {
		return nil, appErrors.ErrForbidden
	}
	attachments, err := s.repo.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return attachments, nil
}

func (s *AttachmentService) open(ctx context.Context, attachment *models.Attachment) (*AttachmentDownload, error) {
	if !s.storage.Exists(attachment.FilePath) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment blob missing")
	}
	file, err := s.storage.Open(attachment.FilePath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment blob missing")
	}
	if err := s.repo.IncrementDownloadCount(ctx, attachment.ID); err != nil {
		s.logger.Warn("failed to increment download count", zap.String("attachment_id", attachment.ID), zap.Error(err))
	}
	return &AttachmentDownload{
		File:      file,
		Filename:  attachment.OriginalFilename,
		MimeType:  attachment.MimeType,
		SizeBytes: attachment.SizeBytes,
	}, nil
}

func (s *AttachmentService) authorize(ctx context.Context, id string, actor *models.JWTClaims) (*models.Attachment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	attachment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.UserID != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to access this file")
	}
	return attachment, nil
}

func (s *AttachmentService) canAccessSubmission(submission *models.Submission, actor *models.JWTClaims) bool {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		return true
	}
	if submission.UserID == actor.UserID {
		return true
	}
	if submission.AssignedTo != nil && *submission.AssignedTo == actor.UserID {
		return true
	}
	return submission.ValidationAssignedTo != nil && *submission.ValidationAssignedTo == actor.UserID
}

func (s *AttachmentService) emitAudit(ctx context.Context, actor *models.JWTClaims, action models.AuditAction, attachment *models.Attachment) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "attachment",
		ResourceID: &attachment.ID,
		NewValues:  []byte(fmt.Sprintf(`{"submission_id":%q,"file_type":%q}`, attachment.SubmissionID, attachment.FileType)),
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
