package issuer

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verifyx/internal/credential/models"
	id "verifyx/pkg/domain"
)

// Well-known development key (hardhat account #0).
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func ptr[T any](v T) *T { return &v }

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func input() IssueInput {
	return IssueInput{
		SubjectUserID:  id.NewUserID(),
		Wallet:         "0x1234567890abcdef1234567890abcdef12345678",
		VerificationID: id.NewVerificationID(),
		Claims:         models.Claims{FullName: ptr("Jane Doe"), IsOver18: ptr(true)},
		Now:            now,
	}
}

func TestBuildAppliesDefaults(t *testing.T) {
	cred, err := New().Build(input())
	require.NoError(t, err)

	assert.Equal(t, models.TypeIdentity, cred.Type)
	assert.Equal(t, models.Issuer{DID: "did:ethr:verifyx", Name: "VerifyX"}, cred.Issuer)
	assert.Equal(t, "did:ethr:0x1234567890abcdef1234567890abcdef12345678", cred.Subject.DID)
	assert.Equal(t, models.DefaultIncludedClaims, cred.IncludedClaims)
	assert.Equal(t, now.Add(DefaultValidity), cred.ExpiresAt)
	assert.Nil(t, cred.Proof, "no signer configured")
	assert.True(t, cred.IntegrityIntact())
}

func TestBuildRespectsOptions(t *testing.T) {
	in := input()
	in.SubjectDID = "did:ethr:custom"
	in.IncludedClaims = []string{"fullName", "isOver18"}
	in.Type = models.TypeAge

	cred, err := New(WithIdentity("did:ethr:issuer", "Issuer"), WithValidity(24*time.Hour)).Build(in)
	require.NoError(t, err)
	assert.Equal(t, "did:ethr:custom", cred.Subject.DID)
	assert.Equal(t, "did:ethr:issuer", cred.Issuer.DID)
	assert.Equal(t, now.Add(24*time.Hour), cred.ExpiresAt)
	assert.Equal(t, map[models.ClaimKey]any{models.ClaimFullName: "Jane Doe", models.ClaimIsOver18: true}, cred.Disclose())
}

func TestBuildRejectsBadInput(t *testing.T) {
	in := input()
	in.IncludedClaims = []string{"documentNumber"}
	_, err := New().Build(in)
	assert.Error(t, err)

	in = input()
	in.Type = "Passport"
	_, err = New().Build(in)
	assert.Error(t, err)

	in = input()
	in.Wallet = ""
	_, err = New().Build(in)
	assert.Error(t, err)
}

func TestSignedProofVerifies(t *testing.T) {
	signer, err := NewSigner(devKey)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signer.Address().Hex())

	cred, err := New(WithSigner(signer)).Build(input())
	require.NoError(t, err)
	require.NotNil(t, cred.Proof)
	assert.Equal(t, "EcdsaSecp256k1Signature2019", cred.Proof.Type)
	assert.Equal(t, "assertionMethod", cred.Proof.ProofPurpose)
	assert.True(t, strings.Contains(cred.Proof.JWS, ".."))

	pub, err := hexutil.Decode(signer.PublicKeyHex())
	require.NoError(t, err)
	require.NoError(t, VerifyJWS(cred.Proof.JWS, cred.Hash, pub))
	assert.Error(t, VerifyJWS(cred.Proof.JWS, strings.Repeat("0", 64), pub))
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	_, err := NewSigner("not-a-key")
	assert.Error(t, err)
}
