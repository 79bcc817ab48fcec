package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type advisorReviewer interface {
	ListForAdvisor(ctx context.Context, advisorID string, query dto.ApplicationListQuery) ([]models.Application, *models.Pagination, error)
	Approve(ctx context.Context, advisorID, applicationID string) (*dto.ApprovalResponse, error)
}

// AdvisorHandler serves the advisor dashboard.
type AdvisorHandler struct {
	reviews advisorReviewer
}

// NewAdvisorHandler creates a new handler.
func NewAdvisorHandler(reviews advisorReviewer) *AdvisorHandler {
	return &AdvisorHandler{reviews: reviews}
}

// List godoc
// @Summary List assigned applications
// @Tags Advisor
// @Produce json
// @Security BearerAuth
// @Param status query string false "Certificate status"
// @Success 200 {object} response.Envelope
// @Router /advisor/applications [get]
func (h *AdvisorHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.ApplicationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}

	apps, pagination, err := h.reviews.ListForAdvisor(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Approve godoc
// @Summary Approve verified application
// @Description Approves a verified application and emails the applicant a signed download link
// @Tags Advisor
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /advisor/applications/{id}/approve [post]
func (h *AdvisorHandler) Approve(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	res, err := h.reviews.Approve(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
