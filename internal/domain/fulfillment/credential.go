package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

// CredentialScheme identifies how an external caller authenticates
type CredentialScheme string

const (
	// SchemeAPIKeySecret is an API key/secret pair sent via custom headers
	SchemeAPIKeySecret CredentialScheme = "api_key_secret"
	// SchemeBasicAuth is a generated username/password pair sent via HTTP Basic auth
	SchemeBasicAuth CredentialScheme = "basic_username_password"
)

// IsValid returns true if the scheme is one of the supported values
func (s CredentialScheme) IsValid() bool {
	return s == SchemeAPIKeySecret || s == SchemeBasicAuth
}

// IntegrationCredential is a tenant-scoped credential for the fulfillment
// integration. The secret material is stored encrypted (API secret) or hashed
// (basic password); the public part (API key or username) is stored only as a
// derived lookup key so resolution is an index lookup, never a scan of secrets.
//
// Invariant: at most one active credential per (tenant, scheme). Rotation
// deactivates the previous credential in the same transaction. Credentials are
// soft-disabled, never hard-deleted, while audit history references them.
type IntegrationCredential struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Scheme   CredentialScheme

	// LookupKey is a keyed hash of the public credential part (API key or
	// username), hex-encoded. Unique per scheme.
	LookupKey string

	// EncryptedSecret holds the AES-GCM sealed API secret for
	// SchemeAPIKeySecret. Empty for the basic scheme.
	EncryptedSecret []byte

	// PasswordHash holds the bcrypt hash of the generated password for
	// SchemeBasicAuth. Empty for the API key scheme.
	PasswordHash []byte

	Active    bool
	CreatedAt time.Time
	RotatedAt *time.Time
	UpdatedAt time.Time
}

// NewIntegrationCredential creates an active credential for a tenant
func NewIntegrationCredential(tenantID uuid.UUID, scheme CredentialScheme, lookupKey string) *IntegrationCredential {
	now := time.Now()
	return &IntegrationCredential{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Scheme:    scheme,
		LookupKey: lookupKey,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Deactivate soft-disables the credential
func (c *IntegrationCredential) Deactivate() {
	now := time.Now()
	c.Active = false
	c.RotatedAt = &now
	c.UpdatedAt = now
}
