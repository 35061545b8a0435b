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

// WorkflowHandler exposes the review and validation transition endpoints.
type WorkflowHandler struct {
	service *service.WorkflowService
	metrics *service.MetricsService
}

// NewWorkflowHandler creates a new handler. metrics may be nil.
func NewWorkflowHandler(svc *service.WorkflowService, metrics *service.MetricsService) *WorkflowHandler {
	return &WorkflowHandler{service: svc, metrics: metrics}
}

// ReviewQueue godoc
// @Summary List review queue
// @Description List submissions in the review stage
// @Tags Workflow
// @Produce json
// @Param status query string false "Review status"
// @Param assigned_to query string false "Assignee user id"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reviews [get]
func (h *WorkflowHandler) ReviewQueue(c *gin.Context) {
	var query dto.QueueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	page, err := h.service.ListReviewQueue(c.Request.Context(), query, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// ValidationQueue godoc
// @Summary List validation queue
// @Description List submissions in the validation stage
// @Tags Workflow
// @Produce json
// @Param status query string false "Validation status"
// @Param assigned_to query string false "Assignee user id"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /validations [get]
func (h *WorkflowHandler) ValidationQueue(c *gin.Context) {
	var query dto.QueueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	page, err := h.service.ListValidationQueue(c.Request.Context(), query, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// Get godoc
// @Summary Get workflow item
// @Description Fetch a submission with its review and validation history
// @Tags Workflow
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workflow/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	submission, err := h.service.GetWorkflowItem(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// AssignReviewer godoc
// @Summary Assign reviewer
// @Description Assign a reviewer to a submission
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.AssignReviewerRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reviews/{id}/assign [post]
func (h *WorkflowHandler) AssignReviewer(c *gin.Context) {
	var req dto.AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	submission, err := h.service.AssignReviewer(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	h.metrics.ObserveTransition(string(service.TransitionAssignReviewer), err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// SubmitReview godoc
// @Summary Submit review decision
// @Description Record an approve or reject decision for a submission under review
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.SubmitReviewRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reviews/{id} [post]
func (h *WorkflowHandler) SubmitReview(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	submission, err := h.service.SubmitReview(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	h.metrics.ObserveTransition(string(service.TransitionSubmitReview), err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// AssignValidator godoc
// @Summary Assign validator
// @Description Assign a validator to an approved submission
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.AssignValidatorRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /validations/{id}/assign [post]
func (h *WorkflowHandler) AssignValidator(c *gin.Context) {
	var req dto.AssignValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	submission, err := h.service.AssignValidator(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	h.metrics.ObserveTransition(string(service.TransitionAssignValidator), err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// SubmitValidation godoc
// @Summary Submit validation decision
// @Description Record the final validate, publish or reject decision
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.SubmitValidationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /validations/{id} [post]
func (h *WorkflowHandler) SubmitValidation(c *gin.Context) {
	var req dto.SubmitValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	submission, err := h.service.SubmitValidation(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	h.metrics.ObserveTransition(string(service.TransitionSubmitValidation), err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}
