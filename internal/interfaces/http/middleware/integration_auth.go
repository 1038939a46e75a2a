package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// Gin context keys set by IntegrationAuth
const (
	TenantIDKey   = "tenant_id"
	AuthSchemeKey = "auth_scheme"
)

// Integration credential headers
const (
	HeaderIntegrationKey    = "X-Integration-Key"
	HeaderIntegrationSecret = "X-Integration-Secret"
)

// IntegrationAuth authenticates integration requests. Key/secret headers take
// the api_key scheme; an Authorization Basic header takes the basic scheme.
// The resolved tenant id lands in the gin context.
func IntegrationAuth(auth *gateway.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			tenantID uuid.UUID
			scheme   string
			err      error
		)

		if key := c.GetHeader(HeaderIntegrationKey); key != "" {
			scheme = "api_key"
			tenantID, err = auth.AuthenticateAPIKey(c.Request.Context(), key, c.GetHeader(HeaderIntegrationSecret))
		} else if username, password, ok := c.Request.BasicAuth(); ok {
			scheme = "basic"
			tenantID, err = auth.AuthenticateBasic(c.Request.Context(), username, password)
		} else {
			unauthenticated(c, "integration credentials required")
			return
		}

		if err != nil {
			if errors.Is(err, shared.ErrIntegrationDisabled) {
				c.AbortWithStatusJSON(http.StatusForbidden,
					dto.NewErrorResponseWithRequestID(dto.ErrCodeIntegrationDisabled, "integration is disabled for this tenant", GetRequestID(c)))
				return
			}
			unauthenticated(c, "invalid integration credentials")
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		c.Set(AuthSchemeKey, scheme)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by IntegrationAuth
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(TenantIDKey)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func unauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthenticated, message, GetRequestID(c)))
}
