// Package domain holds value types shared across modules.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "charitydrive/pkg/domain-errors"
)

// AccountID identifies a participant account: the marketplace operator, a
// bidder, the catalog owner or the marketplace's own credit account.
type AccountID uuid.UUID

func (a AccountID) String() string { return uuid.UUID(a).String() }
func (a AccountID) IsNil() bool    { return uuid.UUID(a) == uuid.Nil }

// MarshalText encodes the ID in canonical UUID form so it can be used in JSON.
func (a AccountID) MarshalText() ([]byte, error) {
	return uuid.UUID(a).MarshalText()
}

// UnmarshalText applies the same rules as ParseAccountID.
func (a *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccountID parses external input into an AccountID.
//
// Errors: CodeInvalidInput when the input is empty, malformed or the nil UUID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}

// NewAccountID returns a random account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}
