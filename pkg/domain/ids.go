// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment. Parse helpers enforce the invariant that IDs are valid,
// non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "sendcore/pkg/domain-errors"
)

// TenantID identifies a tenant. Registration profiles are keyed 1:1 by it.
type TenantID uuid.UUID

// NewTenantID returns a fresh random tenant ID.
func NewTenantID() TenantID {
	return TenantID(uuid.New())
}

// ParseTenantID parses and validates a tenant ID from its string form.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	return TenantID(u), err
}

func (t TenantID) String() string { return uuid.UUID(t).String() }

// IsNil reports whether the ID is the zero UUID.
func (t TenantID) IsNil() bool { return uuid.UUID(t) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form for JSON and logs.
func (t TenantID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the ID from canonical UUID form.
func (t *TenantID) UnmarshalText(b []byte) error {
	parsed, err := ParseTenantID(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", what)
	}
	return u, nil
}
