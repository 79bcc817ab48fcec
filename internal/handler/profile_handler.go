package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type accountManager interface {
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateName(ctx context.Context, userID string, req dto.UpdateNameRequest) (*models.User, error)
	RequestEmailChange(ctx context.Context, userID string, req dto.EmailChangeRequest) (*dto.OTPAcknowledgement, error)
	VerifyEmailChange(ctx context.Context, userID string, req dto.VerifyOTPRequest) (*models.User, error)
	RequestPasswordChange(ctx context.Context, userID string, req dto.PasswordChangeRequest) (*dto.OTPAcknowledgement, error)
	VerifyPasswordChange(ctx context.Context, userID string, req dto.VerifyOTPRequest) error
}

// ProfileHandler manages the signed-in admin's own account.
type ProfileHandler struct {
	accounts accountManager
}

// NewProfileHandler creates a new handler.
func NewProfileHandler(accounts accountManager) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

// Get godoc
// @Summary Current admin profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	user, err := h.accounts.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateName godoc
// @Summary Update display name
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateNameRequest true "Name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/profile/name [put]
func (h *ProfileHandler) UpdateName(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid name payload"))
		return
	}
	user, err := h.accounts.UpdateName(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// RequestEmailChange godoc
// @Summary Request email change code
// @Description Sends a verification code to the current email address
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.EmailChangeRequest true "New email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/profile/email/otp [post]
func (h *ProfileHandler) RequestEmailChange(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.EmailChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid email change payload"))
		return
	}
	ack, err := h.accounts.RequestEmailChange(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack, nil)
}

// VerifyEmailChange godoc
// @Summary Confirm email change
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.VerifyOTPRequest true "Code"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/profile/email/verify [post]
func (h *ProfileHandler) VerifyEmailChange(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid verification payload"))
		return
	}
	user, err := h.accounts.VerifyEmailChange(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// RequestPasswordChange godoc
// @Summary Request password change code
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PasswordChangeRequest true "Passwords"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/profile/password/otp [post]
func (h *ProfileHandler) RequestPasswordChange(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid password change payload"))
		return
	}
	ack, err := h.accounts.RequestPasswordChange(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack, nil)
}

// VerifyPasswordChange godoc
// @Summary Confirm password change
// @Tags Profile
// @Accept json
// @Security BearerAuth
// @Param payload body dto.VerifyOTPRequest true "Code"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Router /admin/profile/password/verify [post]
func (h *ProfileHandler) VerifyPasswordChange(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid verification payload"))
		return
	}
	if err := h.accounts.VerifyPasswordChange(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
