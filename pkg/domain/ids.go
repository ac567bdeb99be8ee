// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	dErrors "verifyx/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a DocumentID where a VerificationID is expected.
type (
	UserID         uuid.UUID
	VerificationID uuid.UUID
	DocumentID     uuid.UUID
)

// WalletAddress is a lower-cased 0x-prefixed EVM account address.
type WalletAddress string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	id, err := parseUUID(s, "verification ID")
	return VerificationID(id), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	id, err := parseUUID(s, "document ID")
	return DocumentID(id), err
}

// ParseWalletAddress validates hex address syntax and normalizes case.
func ParseWalletAddress(s string) (WalletAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address cannot be empty")
	}
	if !common.IsHexAddress(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid Ethereum address")
	}
	return WalletAddress(strings.ToLower(common.HexToAddress(s).Hex())), nil
}

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }

// String methods - for logging and debugging.

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (a WalletAddress) String() string   { return string(a) }

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (a WalletAddress) IsNil() bool   { return a == "" }

// Address returns the go-ethereum representation used for ABI packing.
func (a WalletAddress) Address() common.Address { return common.HexToAddress(string(a)) }

// DefaultDID derives the did:ethr identifier controlled by this address.
func (a WalletAddress) DefaultDID() string { return "did:ethr:" + string(a) }

// Short renders the address as 0x1234...abcd for human-facing text.
func (a WalletAddress) Short() string {
	s := string(a)
	if len(s) <= 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}

// Text encoding - IDs render as canonical UUID strings in JSON and SQL.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	return unmarshalUUID(b, (*uuid.UUID)(id))
}

func (id *VerificationID) UnmarshalText(b []byte) error {
	return unmarshalUUID(b, (*uuid.UUID)(id))
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	return unmarshalUUID(b, (*uuid.UUID)(id))
}

func unmarshalUUID(b []byte, dst *uuid.UUID) error {
	if len(b) == 0 {
		*dst = uuid.Nil
		return nil
	}
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid UUID")
	}
	*dst = parsed
	return nil
}
