package models

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	dErrors "verifyx/pkg/domain-errors"
)

// Source tells a verifier where a DID document was resolved from.
type Source string

const (
	SourceBlockchain Source = "blockchain"
	SourceDatabase   Source = "database"
)

// Document is a resolved DID. Chain-only fields are nil for off-chain records.
type Document struct {
	ID         string     `json:"id"`
	Controller string     `json:"controller"`
	PublicKey  string     `json:"publicKey"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	IsActive   *bool      `json:"isActive,omitempty"`
	OnChain    bool       `json:"onChain"`
	Status     string     `json:"status,omitempty"`
	Source     Source     `json:"source"`
}

// Check reports whether an address holds an on-chain DID.
type Check struct {
	Address string  `json:"address"`
	HasDID  bool    `json:"hasDID"`
	DID     *string `json:"did"`
}

// Registration is the confirmed on-chain DID of a user.
type Registration struct {
	DID          string     `json:"id"`
	Controller   string     `json:"controller"`
	PublicKey    string     `json:"publicKey"`
	TxHash       string     `json:"txHash"`
	RegisteredAt *time.Time `json:"registeredAt"`
}

// maxPublicKeyLength bounds the key string packed into registry calldata.
const maxPublicKeyLength = 1024

type RegisterRequest struct {
	PublicKey string `json:"publicKey"`
}

func (r *RegisterRequest) Sanitize() {
	r.PublicKey = strings.TrimSpace(r.PublicKey)
}

func (r *RegisterRequest) Validate() error {
	return validatePublicKey(r.PublicKey, "publicKey")
}

type UpdateRequest struct {
	NewPublicKey string `json:"newPublicKey"`
}

func (r *UpdateRequest) Sanitize() {
	r.NewPublicKey = strings.TrimSpace(r.NewPublicKey)
}

func (r *UpdateRequest) Validate() error {
	return validatePublicKey(r.NewPublicKey, "newPublicKey")
}

type ConfirmRequest struct {
	TxHash string `json:"txHash"`
}

func (r *ConfirmRequest) Normalize() {
	r.TxHash = strings.ToLower(strings.TrimSpace(r.TxHash))
}

func (r *ConfirmRequest) Validate() error {
	raw, err := hexutil.Decode(r.TxHash)
	if err != nil || len(raw) != common.HashLength {
		return dErrors.New(dErrors.CodeValidation, "txHash must be a 32-byte hex string")
	}
	return nil
}

func validatePublicKey(key, field string) error {
	if key == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if len(key) > maxPublicKeyLength {
		return dErrors.New(dErrors.CodeValidation, field+" is too long")
	}
	return nil
}
