package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savanapaaa/BE-form-pengajuan/internal/dto"
	"github.com/savanapaaa/BE-form-pengajuan/internal/middleware"
	"github.com/savanapaaa/BE-form-pengajuan/internal/service"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/response"
)

// SubmissionHandler exposes the submission CRUD endpoints.
type SubmissionHandler struct {
	service *service.SubmissionService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Create godoc
// @Summary Create submission
// @Description Create a draft submission with optional content items
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	submission, err := h.service.Create(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary List submissions
// @Description List submissions visible to the caller
// @Tags Submissions
// @Produce json
// @Param status query string false "Submission status"
// @Param workflow_stage query string false "Workflow stage"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	var query dto.SubmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	submissions, pagination, err := h.service.List(c.Request.Context(), query, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, pagination)
}

// Get godoc
// @Summary Get submission
// @Description Fetch one submission by id
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// Update godoc
// @Summary Update submission
// @Description Update draft-stage fields of a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.UpdateSubmissionRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /submissions/{id} [put]
func (h *SubmissionHandler) Update(c *gin.Context) {
	var req dto.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	submission, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// Confirm godoc
// @Summary Confirm submission
// @Description Confirm a submission and hand it to the review stage
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /submissions/{id}/confirm [post]
func (h *SubmissionHandler) Confirm(c *gin.Context) {
	submission, err := h.service.Confirm(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// Delete godoc
// @Summary Delete submission
// @Description Soft delete a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddContentItem godoc
// @Summary Add content item
// @Description Append a content item to a draft submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.CreateContentItemRequest true "Content item payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /submissions/{id}/items [post]
func (h *SubmissionHandler) AddContentItem(c *gin.Context) {
	var req dto.CreateContentItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content item payload"))
		return
	}

	item, err := h.service.AddContentItem(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ListContentItems godoc
// @Summary List content items
// @Description List content items of a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/items [get]
func (h *SubmissionHandler) ListContentItems(c *gin.Context) {
	items, err := h.service.ListContentItems(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
