package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/secrets"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IssuedCredential carries the plaintext credential parts back to the caller
// exactly once, at issuance. Nothing recoverable is persisted.
type IssuedCredential struct {
	CredentialID uuid.UUID
	TenantID     uuid.UUID
	Scheme       fulfillment.CredentialScheme
	Key          string // API key, or username for the basic scheme
	Secret       string // API secret, or password for the basic scheme
}

// AuthService authenticates integration callers and manages their
// credentials. Both schemes resolve by a keyed hash of the public part, so
// the table is never scanned with attacker-controlled plaintext.
type AuthService struct {
	credentials fulfillment.CredentialRepository
	audit       fulfillment.AuditRepository
	cipher      *secrets.SecretCipher
	logger      *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	credentials fulfillment.CredentialRepository,
	audit fulfillment.AuditRepository,
	cipher *secrets.SecretCipher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: credentials,
		audit:       audit,
		cipher:      cipher,
		logger:      logger,
	}
}

// AuthenticateAPIKey verifies the custom header scheme: the stored secret is
// unsealed and compared in constant time against the presented one.
func (s *AuthService) AuthenticateAPIKey(ctx context.Context, apiKey, apiSecret string) (uuid.UUID, error) {
	start := time.Now()

	if apiKey == "" || apiSecret == "" {
		s.auditAuth(ctx, uuid.Nil, fulfillment.AuditOutcomeFailure, "api key scheme: missing credentials", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}

	lookupKey := s.cipher.DeriveLookupKey(apiKey)
	cred, err := s.credentials.FindByLookupKey(ctx, fulfillment.SchemeAPIKeySecret, lookupKey)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: credential lookup: %v", shared.ErrTransientInfra, err)
	}
	if cred == nil {
		s.auditAuth(ctx, uuid.Nil, fulfillment.AuditOutcomeFailure, "api key scheme: unknown key", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}
	if !cred.Active {
		s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeFailure, "api key scheme: credential disabled", start)
		return uuid.Nil, shared.ErrIntegrationDisabled
	}

	stored, err := s.cipher.Open(cred.EncryptedSecret)
	if err != nil {
		s.logger.Error("stored secret cannot be unsealed", zap.String("credential_id", cred.ID.String()), zap.Error(err))
		s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeFailure, "api key scheme: secret unseal failed", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}

	if !secrets.Compare(stored, []byte(apiSecret)) {
		s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeFailure, "api key scheme: secret mismatch", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}

	s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeSuccess, "api key scheme", start)
	return cred.TenantID, nil
}

// AuthenticateBasic verifies the generated username/password scheme
func (s *AuthService) AuthenticateBasic(ctx context.Context, username, password string) (uuid.UUID, error) {
	start := time.Now()

	if username == "" || password == "" {
		s.auditAuth(ctx, uuid.Nil, fulfillment.AuditOutcomeFailure, "basic scheme: missing credentials", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}

	lookupKey := s.cipher.DeriveLookupKey(username)
	cred, err := s.credentials.FindByLookupKey(ctx, fulfillment.SchemeBasicAuth, lookupKey)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: credential lookup: %v", shared.ErrTransientInfra, err)
	}
	if cred == nil {
		s.auditAuth(ctx, uuid.Nil, fulfillment.AuditOutcomeFailure, "basic scheme: unknown username", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}
	if !cred.Active {
		s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeFailure, "basic scheme: credential disabled", start)
		return uuid.Nil, shared.ErrIntegrationDisabled
	}

	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeFailure, "basic scheme: password mismatch", start)
		return uuid.Nil, shared.ErrUnauthenticated
	}

	s.auditAuth(ctx, cred.TenantID, fulfillment.AuditOutcomeSuccess, "basic scheme", start)
	return cred.TenantID, nil
}

// IssueCredential generates and stores a fresh credential for a tenant,
// returning the plaintext parts. The caller must hand them to the tenant now;
// they cannot be shown again.
func (s *AuthService) IssueCredential(ctx context.Context, tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*IssuedCredential, error) {
	issued, cred, err := s.buildCredential(tenantID, scheme)
	if err != nil {
		return nil, err
	}
	if err := s.credentials.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("%w: save credential: %v", shared.ErrTransientInfra, err)
	}
	issued.CredentialID = cred.ID
	return issued, nil
}

// RotateCredential replaces the tenant's active credential for a scheme. The
// replaced credential stops authenticating immediately.
func (s *AuthService) RotateCredential(ctx context.Context, tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*IssuedCredential, error) {
	issued, cred, err := s.buildCredential(tenantID, scheme)
	if err != nil {
		return nil, err
	}
	if err := s.credentials.Rotate(ctx, cred); err != nil {
		return nil, fmt.Errorf("%w: rotate credential: %v", shared.ErrTransientInfra, err)
	}
	issued.CredentialID = cred.ID
	return issued, nil
}

func (s *AuthService) buildCredential(tenantID uuid.UUID, scheme fulfillment.CredentialScheme) (*IssuedCredential, *fulfillment.IntegrationCredential, error) {
	if !scheme.IsValid() {
		return nil, nil, shared.ErrInvalidInput
	}

	switch scheme {
	case fulfillment.SchemeAPIKeySecret:
		key := "sfk_" + randomHex(16)
		secret := "sfs_" + randomHex(32)

		cred := fulfillment.NewIntegrationCredential(tenantID, scheme, s.cipher.DeriveLookupKey(key))
		sealed, err := s.cipher.Seal([]byte(secret))
		if err != nil {
			return nil, nil, fmt.Errorf("seal secret: %w", err)
		}
		cred.EncryptedSecret = sealed

		return &IssuedCredential{TenantID: tenantID, Scheme: scheme, Key: key, Secret: secret}, cred, nil

	case fulfillment.SchemeBasicAuth:
		username := "sfu_" + randomHex(8)
		password := randomHex(24)

		cred := fulfillment.NewIntegrationCredential(tenantID, scheme, s.cipher.DeriveLookupKey(username))
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password: %w", err)
		}
		cred.PasswordHash = hash

		return &IssuedCredential{TenantID: tenantID, Scheme: scheme, Key: username, Secret: password}, cred, nil
	}
	return nil, nil, shared.ErrInvalidInput
}

func (s *AuthService) auditAuth(ctx context.Context, tenantID uuid.UUID, outcome fulfillment.AuditOutcome, detail string, start time.Time) {
	entry := fulfillment.NewAuditEntry(tenantID, fulfillment.AuditOpAuthenticate, outcome, detail, time.Since(start))
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append auth audit entry", zap.Error(err))
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
