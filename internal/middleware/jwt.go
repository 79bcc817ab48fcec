package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

const bearerChallenge = `Bearer realm="sciclub"`

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT admits requests carrying a valid bearer token and stores its claims
// under ContextUserKey. Rejections carry a WWW-Authenticate challenge.
func JWT(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *models.JWTClaims
			if claims, err = tokens.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
				c.Next()
				return
			}
		}
		c.Header("WWW-Authenticate", bearerChallenge)
		response.Error(c, err)
		c.Abort()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return token, nil
}

// CurrentUser returns the claims attached by JWT, if any.
func CurrentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
