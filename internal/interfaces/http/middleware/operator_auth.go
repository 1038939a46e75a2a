package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// Gin context keys set by OperatorAuth
const (
	OperatorIDKey   = "operator_id"
	OperatorNameKey = "operator_name"
)

// OperatorAuth guards the operator surface with bearer tokens
func OperatorAuth(tokens *auth.OperatorTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			operatorReject(c, dto.ErrCodeUnauthenticated, "authorization header required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			operatorReject(c, dto.ErrCodeTokenInvalid, "authorization header must be a bearer token")
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			operatorReject(c, code, "invalid operator token")
			return
		}

		c.Set(OperatorIDKey, claims.OperatorID)
		c.Set(OperatorNameKey, claims.Name)
		c.Next()
	}
}

func operatorReject(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
