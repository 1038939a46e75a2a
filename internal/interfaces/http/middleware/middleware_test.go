package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memCredentialRepo struct {
	creds []*fulfillment.IntegrationCredential
}

func (m *memCredentialRepo) Save(_ context.Context, cred *fulfillment.IntegrationCredential) error {
	m.creds = append(m.creds, cred)
	return nil
}

func (m *memCredentialRepo) FindByLookupKey(_ context.Context, scheme fulfillment.CredentialScheme, lookupKey string) (*fulfillment.IntegrationCredential, error) {
	for _, c := range m.creds {
		if c.Scheme == scheme && c.LookupKey == lookupKey {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memCredentialRepo) FindActive(_ context.Context, tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*fulfillment.IntegrationCredential, error) {
	for _, c := range m.creds {
		if c.Active && c.Scheme == scheme && c.TenantID == tenantID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memCredentialRepo) Rotate(_ context.Context, replacement *fulfillment.IntegrationCredential) error {
	m.creds = append(m.creds, replacement)
	return nil
}

func (m *memCredentialRepo) Deactivate(_ context.Context, _ uuid.UUID) error { return nil }

type memAuditRepo struct{}

func (memAuditRepo) Append(_ context.Context, _ *fulfillment.AuditEntry) error { return nil }

func newTestAuthService(t *testing.T) (*gateway.AuthService, *memCredentialRepo) {
	t.Helper()
	cipher, err := secrets.NewSecretCipher(bytes.Repeat([]byte{0x24}, secrets.KeySize))
	require.NoError(t, err)
	repo := &memCredentialRepo{}
	return gateway.NewAuthService(repo, memAuditRepo{}, cipher, zap.NewNop()), repo
}

func protectedRouter(handler gin.HandlerFunc, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(mw...)
	r.GET("/protected", handler)
	return r
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.NotEmpty(t, GetRequestID(c))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// An inbound id is preserved
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("tiny")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("this body is longer than sixteen bytes")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestIntegrationAuth(t *testing.T) {
	svc, repo := newTestAuthService(t)
	tenantID := uuid.New()
	issued, err := svc.IssueCredential(context.Background(), tenantID, fulfillment.SchemeAPIKeySecret)
	require.NoError(t, err)
	basicCred, err := svc.IssueCredential(context.Background(), tenantID, fulfillment.SchemeBasicAuth)
	require.NoError(t, err)

	var seenTenant uuid.UUID
	r := protectedRouter(func(c *gin.Context) {
		id, ok := GetTenantID(c)
		require.True(t, ok)
		seenTenant = id
		c.Status(http.StatusOK)
	}, IntegrationAuth(svc))

	t.Run("api key headers authenticate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(HeaderIntegrationKey, issued.Key)
		req.Header.Set(HeaderIntegrationSecret, issued.Secret)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, seenTenant)
	})

	t.Run("basic auth authenticates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.SetBasicAuth(basicCred.Key, basicCred.Secret)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, seenTenant)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(HeaderIntegrationKey, issued.Key)
		req.Header.Set(HeaderIntegrationSecret, "not-the-secret")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHENTICATED")
	})

	t.Run("missing credentials are rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deactivated credential gets forbidden, not unauthorized", func(t *testing.T) {
		disabled, err := svc.IssueCredential(context.Background(), uuid.New(), fulfillment.SchemeAPIKeySecret)
		require.NoError(t, err)
		for _, c := range repo.creds {
			if c.ID == disabled.CredentialID {
				c.Active = false
			}
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(HeaderIntegrationKey, disabled.Key)
		req.Header.Set(HeaderIntegrationSecret, disabled.Secret)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INTEGRATION_DISABLED")
	})
}

func TestOperatorAuth(t *testing.T) {
	tokens := auth.NewOperatorTokenService(config.OperatorConfig{
		JWTSecret:     "test-operator-secret-test-operator-secret",
		JWTExpiration: time.Hour,
		JWTIssuer:     "storefront-gateway",
	})

	r := protectedRouter(func(c *gin.Context) {
		assert.NotEmpty(t, c.GetString(OperatorIDKey))
		c.Status(http.StatusOK)
	}, OperatorAuth(tokens))

	t.Run("valid bearer token passes", func(t *testing.T) {
		token, _, err := tokens.Generate(uuid.New(), "ops")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})
}
