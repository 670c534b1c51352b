// Package domain holds the typed identifiers and principal types shared
// across services. Typed UUIDs prevent cross-entity ID mix-ups at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "hemabank/pkg/domain-errors"
)

// Typed identifiers. Distinct types so a DonorID can never be passed where a
// RequestID is expected.
type (
	UserID     uuid.UUID
	ClinicID   uuid.UUID
	DonorID    uuid.UUID
	RequestID  uuid.UUID
	ResponseID uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id ClinicID) String() string   { return uuid.UUID(id).String() }
func (id DonorID) String() string    { return uuid.UUID(id).String() }
func (id RequestID) String() string  { return uuid.UUID(id).String() }
func (id ResponseID) String() string { return uuid.UUID(id).String() }

// MarshalText renders IDs as canonical UUID strings in JSON and logs.
func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ClinicID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id DonorID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ResponseID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ClinicID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DonorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID         { return UserID(uuid.New()) }
func NewClinicID() ClinicID     { return ClinicID(uuid.New()) }
func NewDonorID() DonorID       { return DonorID(uuid.New()) }
func NewRequestID() RequestID   { return RequestID(uuid.New()) }
func NewResponseID() ResponseID { return ResponseID(uuid.New()) }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is required", kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s id", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id must not be nil", kind)
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseClinicID(s string) (ClinicID, error) {
	u, err := parseUUID(s, "clinic")
	return ClinicID(u), err
}

func ParseDonorID(s string) (DonorID, error) {
	u, err := parseUUID(s, "donor")
	return DonorID(u), err
}

func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request")
	return RequestID(u), err
}

func ParseResponseID(s string) (ResponseID, error) {
	u, err := parseUUID(s, "response")
	return ResponseID(u), err
}
