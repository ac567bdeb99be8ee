package models

import (
	"time"

	id "verifyx/pkg/domain"
)

// VerificationLevel grades how thoroughly a user's identity has been proven.
type VerificationLevel string

const (
	LevelNone     VerificationLevel = "none"
	LevelBasic    VerificationLevel = "basic"
	LevelAdvanced VerificationLevel = "advanced"
	LevelFull     VerificationLevel = "full"
)

// User is a wallet-backed identity. The DID defaults to did:ethr:<wallet>
// and is fixed at construction.
type User struct {
	ID            id.UserID
	WalletAddress id.WalletAddress
	DID           string
	PublicKey     string

	Verification Verification
	Blockchain   Blockchain

	LastLogin  *time.Time
	LoginCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verification records whether the user holds an issued identity credential.
type Verification struct {
	IsVerified bool
	VerifiedAt *time.Time
	Level      VerificationLevel
}

// Blockchain is the off-chain cache of the user's DID registry entry.
// The registry is authoritative; these fields are refreshed from it.
type Blockchain struct {
	DIDRegistered bool
	DIDTxHash     string
	Controller    string
	RegisteredAt  *time.Time
}

// NewUser builds a user with the default DID derived from the wallet.
func NewUser(wallet id.WalletAddress, now time.Time) *User {
	return &User{
		ID:            id.NewUserID(),
		WalletAddress: wallet,
		DID:           wallet.DefaultDID(),
		Verification:  Verification{Level: LevelNone},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecordLogin bumps the login counter.
func (u *User) RecordLogin(now time.Time) {
	u.LoginCount++
	u.LastLogin = &now
	u.UpdatedAt = now
}

// MarkVerified flips the verified flag on. It never downgrades an existing
// level and reports whether anything changed.
func (u *User) MarkVerified(now time.Time) bool {
	if u.Verification.IsVerified {
		return false
	}
	u.Verification.IsVerified = true
	u.Verification.VerifiedAt = &now
	if u.Verification.Level == "" || u.Verification.Level == LevelNone {
		u.Verification.Level = LevelBasic
	}
	u.UpdatedAt = now
	return true
}

// SyncRegistered marks the DID as present on chain without confirmation details.
// Used when the registry reports a record this store did not know about.
func (u *User) SyncRegistered(now time.Time) {
	u.Blockchain.DIDRegistered = true
	u.UpdatedAt = now
}

// ConfirmRegistration copies registry-reported fields into the cache.
func (u *User) ConfirmRegistration(publicKey, controller, txHash string, now time.Time) {
	u.PublicKey = publicKey
	u.Blockchain.DIDRegistered = true
	u.Blockchain.DIDTxHash = txHash
	u.Blockchain.Controller = controller
	u.Blockchain.RegisteredAt = &now
	u.UpdatedAt = now
}
