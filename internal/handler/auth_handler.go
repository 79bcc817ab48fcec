package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type authenticator interface {
	LoginAdmin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	LoginAdvisor(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authenticator
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authenticator) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate admin
// @Description Authenticate an administrator by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, h.service.LoginAdmin)
}

// AdvisorLogin godoc
// @Summary Authenticate advisor
// @Description Authenticate an advisor by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /advisor/login [post]
func (h *AuthHandler) AdvisorLogin(c *gin.Context) {
	h.login(c, h.service.LoginAdvisor)
}

func (h *AuthHandler) login(c *gin.Context, fn func(context.Context, models.LoginRequest) (*models.LoginResponse, error)) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid login payload"))
		return
	}

	res, err := fn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
