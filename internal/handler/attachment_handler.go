package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/middleware"
	"github.com/savanapaaa/BE-form-pengajuan/internal/service"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/response"
)

// AttachmentHandler exposes upload and download endpoints for files.
type AttachmentHandler struct {
	service *service.AttachmentService
	metrics *service.MetricsService
}

// NewAttachmentHandler creates a new handler. metrics may be nil.
func NewAttachmentHandler(svc *service.AttachmentService, metrics *service.MetricsService) *AttachmentHandler {
	return &AttachmentHandler{service: svc, metrics: metrics}
}

// Upload godoc
// @Summary Upload attachment
// @Description Attach a file to a submission via multipart form
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param submission_id formData string true "Submission ID"
// @Param description formData string false "Description"
// @Param file formData file true "File content"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	var meta dto.CreateAttachmentRequest
	if err := c.ShouldBind(&meta); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload form"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file part is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	upload := service.AttachmentUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  file,
	}

	attachment, err := h.service.Upload(c.Request.Context(), meta, upload, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveUpload(attachment.SizeBytes)
	response.Created(c, attachment)
}

// ListBySubmission godoc
// @Summary List attachments
// @Description List attachments of a submission
// @Tags Attachments
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/attachments [get]
func (h *AttachmentHandler) ListBySubmission(c *gin.Context) {
	attachments, err := h.service.ListBySubmission(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, attachments)
}

// Download godoc
// @Summary Download attachment
// @Description Stream the attachment content to an authorized caller
// @Tags Attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	download, err := h.service.Download(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stream(c, download)
}

// Link godoc
// @Summary Create download link
// @Description Generate a time-limited signed download URL
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id}/link [post]
func (h *AttachmentHandler) Link(c *gin.Context) {
	link, err := h.service.GenerateLink(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, link)
}

// DownloadByToken godoc
// @Summary Download via signed token
// @Description Stream the attachment referenced by a signed token, no session required
// @Tags Attachments
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/download [get]
func (h *AttachmentHandler) DownloadByToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing download token"))
		return
	}

	download, err := h.service.DownloadByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stream(c, download)
}

// Delete godoc
// @Summary Delete attachment
// @Description Remove an attachment and its stored file
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AttachmentHandler) stream(c *gin.Context, download *service.AttachmentDownload) {
	defer download.File.Close()
	contentType := download.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	}
	c.DataFromReader(http.StatusOK, download.SizeBytes, contentType, download.File, headers)
}
