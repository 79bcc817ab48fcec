package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type advisorProfileManager interface {
	Profile(ctx context.Context, advisorID string) (*models.Advisor, error)
	UpdateProfile(ctx context.Context, advisorID string, req dto.UpdateAdvisorProfileRequest) (*models.Advisor, error)
}

// AdvisorProfileHandler manages the signed-in advisor's own account.
type AdvisorProfileHandler struct {
	profiles advisorProfileManager
}

// NewAdvisorProfileHandler creates a new handler.
func NewAdvisorProfileHandler(profiles advisorProfileManager) *AdvisorProfileHandler {
	return &AdvisorProfileHandler{profiles: profiles}
}

// Get godoc
// @Summary Current advisor profile
// @Tags Advisor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /advisor/profile [get]
func (h *AdvisorProfileHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	advisor, err := h.profiles.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisor, nil)
}

// Update godoc
// @Summary Update advisor profile
// @Description Replaces profile fields; profile_image and signature accept base64 image data URIs
// @Tags Advisor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateAdvisorProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /advisor/profile [put]
func (h *AdvisorProfileHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateAdvisorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid advisor profile"))
		return
	}
	advisor, err := h.profiles.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisor, nil)
}
