package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/middleware"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes 401 and returns nil when no principal is attached.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

func invalidPayload(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
