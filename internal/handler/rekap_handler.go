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

// RekapHandler exposes recap export endpoints.
type RekapHandler struct {
	service *service.RekapService
}

// NewRekapHandler creates a new handler.
func NewRekapHandler(svc *service.RekapService) *RekapHandler {
	return &RekapHandler{service: svc}
}

// Export godoc
// @Summary Export recap
// @Description Download finished submissions as CSV or PDF
// @Tags Rekap
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param stage query string false "completed or rejected" default(completed)
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /rekap/export [get]
func (h *RekapHandler) Export(c *gin.Context) {
	var query dto.RekapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	result, err := h.service.Export(c.Request.Context(), query, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Summary godoc
// @Summary Recap summary
// @Description Per-stage submission counts
// @Tags Rekap
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /rekap/summary [get]
func (h *RekapHandler) Summary(c *gin.Context) {
	counts, err := h.service.Summary(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, counts)
}
