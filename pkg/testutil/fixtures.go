package testutil

import (
	"time"

	"github.com/google/uuid"

	docmodels "verifyx/internal/document/models"
	idmodels "verifyx/internal/identity/models"
	id "verifyx/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	UserID1     id.UserID
	UserID2     id.UserID
	Wallet1     id.WalletAddress
	Wallet2     id.WalletAddress
	DocumentID1 id.DocumentID
	DocumentID2 id.DocumentID
}{
	UserID1:     id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2:     id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	Wallet1:     id.WalletAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"),
	Wallet2:     id.WalletAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8"),
	DocumentID1: id.DocumentID(uuid.MustParse("dddd0000-0000-0000-0000-000000000001")),
	DocumentID2: id.DocumentID(uuid.MustParse("dddd0000-0000-0000-0000-000000000002")),
}

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *idmodels.User
}

// NewUserBuilder creates a new UserBuilder for Wallet1 created now.
func NewUserBuilder() *UserBuilder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &UserBuilder{user: idmodels.NewUser(TestIDs.Wallet1, now)}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

// WithWallet also resets the DID to the wallet's default.
func (b *UserBuilder) WithWallet(wallet id.WalletAddress) *UserBuilder {
	b.user.WalletAddress = wallet
	b.user.DID = wallet.DefaultDID()
	return b
}

func (b *UserBuilder) Verified(at time.Time) *UserBuilder {
	b.user.MarkVerified(at)
	return b
}

func (b *UserBuilder) WithDIDRegistration(txHash string, at time.Time) *UserBuilder {
	b.user.Blockchain = idmodels.Blockchain{
		DIDRegistered: true,
		DIDTxHash:     txHash,
		Controller:    b.user.WalletAddress.String(),
		RegisteredAt:  &at,
	}
	return b
}

func (b *UserBuilder) Build() *idmodels.User {
	return b.user
}

// DocumentBuilder provides a fluent interface for building test documents.
type DocumentBuilder struct {
	doc *docmodels.Document
}

// NewDocumentBuilder creates a pending passport owned by UserID1.
func NewDocumentBuilder() *DocumentBuilder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &DocumentBuilder{
		doc: &docmodels.Document{
			ID:             id.NewDocumentID(),
			UserID:         TestIDs.UserID1,
			Type:           docmodels.TypePassport,
			IssuingCountry: "DE",
			FileName:       "passport.png",
			MimeType:       "image/png",
			Size:           204800,
			IPFSHash:       "QmT5NvUtoM5nWFfrQdVrFtvGfKFmG7AHE8P34isapyhCxX",
			Verification:   docmodels.Verification{Status: docmodels.StatusPending},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func (b *DocumentBuilder) WithID(documentID id.DocumentID) *DocumentBuilder {
	b.doc.ID = documentID
	return b
}

func (b *DocumentBuilder) WithUserID(userID id.UserID) *DocumentBuilder {
	b.doc.UserID = userID
	return b
}

func (b *DocumentBuilder) WithType(t docmodels.DocumentType) *DocumentBuilder {
	b.doc.Type = t
	return b
}

func (b *DocumentBuilder) CreatedAt(t time.Time) *DocumentBuilder {
	b.doc.CreatedAt = t
	b.doc.UpdatedAt = t
	return b
}

func (b *DocumentBuilder) Deleted(at time.Time) *DocumentBuilder {
	b.doc.SoftDelete(at)
	return b
}

func (b *DocumentBuilder) Build() *docmodels.Document {
	return b.doc
}

// NewTestUser creates a test user with the given ID and wallet.
func NewTestUser(userID id.UserID, wallet id.WalletAddress) *idmodels.User {
	return NewUserBuilder().
		WithID(userID).
		WithWallet(wallet).
		Build()
}

// NewTestDocument creates a pending test document for the given user.
func NewTestDocument(userID id.UserID) *docmodels.Document {
	return NewDocumentBuilder().
		WithUserID(userID).
		Build()
}
