package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/internal/service"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type applicationAdmin interface {
	List(ctx context.Context, query dto.ApplicationListQuery) ([]models.Application, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, query dto.ApplicationListQuery, format service.ExportFormat) (*service.ExportFile, error)
}

type applicationReviewer interface {
	UpdateApplication(ctx context.Context, id string, req dto.UpdateApplicationRequest) (*models.Application, error)
}

// AdminApplicationHandler exposes the admin roster and review endpoints.
type AdminApplicationHandler struct {
	applications applicationAdmin
	reviews      applicationReviewer
}

// NewAdminApplicationHandler creates a new handler.
func NewAdminApplicationHandler(applications applicationAdmin, reviews applicationReviewer) *AdminApplicationHandler {
	return &AdminApplicationHandler{applications: applications, reviews: reviews}
}

// List godoc
// @Summary List applications
// @Tags Admin Applications
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name, designation, status or email"
// @Param status query string false "Certificate status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/applications [get]
func (h *AdminApplicationHandler) List(c *gin.Context) {
	var query dto.ApplicationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}

	apps, pagination, err := h.applications.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Get godoc
// @Summary Get application
// @Tags Admin Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/applications/{id} [get]
func (h *AdminApplicationHandler) Get(c *gin.Context) {
	app, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Update godoc
// @Summary Review application
// @Description Updates workflow fields and status; certificate_file accepts a base64 image data URI
// @Tags Admin Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.UpdateApplicationRequest true "Review"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/applications/{id} [put]
func (h *AdminApplicationHandler) Update(c *gin.Context) {
	var req dto.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid application update"))
		return
	}

	app, err := h.reviews.UpdateApplication(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Delete godoc
// @Summary Delete application
// @Tags Admin Applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/applications/{id} [delete]
func (h *AdminApplicationHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export application roster
// @Tags Admin Applications
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/applications/export [get]
func (h *AdminApplicationHandler) Export(c *gin.Context) {
	var query dto.ApplicationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportCSV))))

	file, err := h.applications.Export(c.Request.Context(), query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
