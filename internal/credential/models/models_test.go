package models

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

func ptr[T any](v T) *T { return &v }

var (
	issuedAt  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiresAt = issuedAt.AddDate(1, 0, 0)
)

func TestComputeHash(t *testing.T) {
	claims := Claims{FullName: ptr("Jane Doe"), IsOver18: ptr(true)}

	t.Run("matches the canonical serialization", func(t *testing.T) {
		canonical, err := CanonicalJSON("did:ethr:verifyx", "did:ethr:0xabc", claims, issuedAt, expiresAt)
		require.NoError(t, err)
		assert.Equal(t, `{"issuer":"did:ethr:verifyx","subject":"did:ethr:0xabc","claims":{"fullName":"Jane Doe","dateOfBirth":null,"nationality":null,"documentType":null,"documentNumber":null,"isOver18":true,"isOver21":null},"issuedAt":"2025-06-01T12:00:00.000Z","expiresAt":"2026-06-01T12:00:00.000Z"}`, string(canonical))
		assert.Equal(t, "7bd4d78fa3770ae616b3e143e9c0ba821418fdc7b612c5cc292123ceb9604fc7",
			ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", claims, issuedAt, expiresAt))
	})

	t.Run("is idempotent", func(t *testing.T) {
		a := ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", claims, issuedAt, expiresAt)
		b := ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", claims.Clone(), issuedAt.In(time.FixedZone("CET", 3600)), expiresAt)
		assert.Equal(t, a, b, "time zone does not affect the hash")
		assert.True(t, IsHash(a))
	})

	t.Run("every defining field changes the hash", func(t *testing.T) {
		base := ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", claims, issuedAt, expiresAt)
		variants := map[string]string{
			"issuer":     ComputeHash("did:ethr:other", "did:ethr:0xabc", claims, issuedAt, expiresAt),
			"subject":    ComputeHash("did:ethr:verifyx", "did:ethr:0xabd", claims, issuedAt, expiresAt),
			"claim":      ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", Claims{FullName: ptr("Jane Doe."), IsOver18: ptr(true)}, issuedAt, expiresAt),
			"null claim": ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", Claims{FullName: ptr("Jane Doe"), IsOver18: ptr(false)}, issuedAt, expiresAt),
			"issuedAt":   ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", claims, issuedAt.Add(time.Millisecond), expiresAt),
			"expiresAt":  ComputeHash("did:ethr:verifyx", "did:ethr:0xabc", claims, issuedAt, expiresAt.Add(time.Millisecond)),
		}
		seen := map[string]string{}
		for name, h := range variants {
			assert.NotEqual(t, base, h, name)
			if other, dup := seen[h]; dup {
				t.Fatalf("%s and %s collide", name, other)
			}
			seen[h] = name
		}
	})

	t.Run("html characters are not escaped", func(t *testing.T) {
		canonical, err := CanonicalJSON("did:ethr:verifyx", "did:ethr:0xabc", Claims{FullName: ptr("A&B <C>")}, issuedAt, expiresAt)
		require.NoError(t, err)
		assert.Contains(t, string(canonical), `"A&B <C>"`)
	})
}

func TestIsHash(t *testing.T) {
	assert.False(t, IsHash("abc"))
	assert.False(t, IsHash("7BD4D78FA3770AE616B3E143E9C0BA821418FDC7B612C5CC292123CEB9604FC7"))
	assert.False(t, IsHash("zbd4d78fa3770ae616b3e143e9c0ba821418fdc7b612c5cc292123ceb9604fc7"))
}

func TestNewCredentialID(t *testing.T) {
	credID, err := NewCredentialID(issuedAt)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^cred_1748779200000_[0-9a-f]{12}$`), credID)
}

func TestParseIncludedClaims(t *testing.T) {
	keys, err := ParseIncludedClaims(nil)
	require.NoError(t, err)
	assert.Equal(t, []ClaimKey{ClaimFullName, ClaimNationality, ClaimDocumentType, ClaimIsOver18}, keys)

	keys, err = ParseIncludedClaims([]string{"isOver21", "fullName", "isOver21"})
	require.NoError(t, err)
	assert.Equal(t, []ClaimKey{ClaimIsOver21, ClaimFullName}, keys)

	_, err = ParseIncludedClaims([]string{"documentNumber"})
	assert.Error(t, err, "document numbers are never disclosed")

	_, err = ParseIncludedClaims([]string{"shoeSize"})
	assert.Error(t, err)
}

type CredentialSuite struct {
	suite.Suite
	cred   *Credential
	holder id.UserID
}

func TestCredentialSuite(t *testing.T) {
	suite.Run(t, new(CredentialSuite))
}

func (s *CredentialSuite) SetupTest() {
	s.holder = id.NewUserID()
	cred, err := NewCredential(Draft{
		Type:           TypeIdentity,
		Issuer:         Issuer{DID: "did:ethr:verifyx", Name: "VerifyX"},
		Subject:        Subject{UserID: s.holder, DID: "did:ethr:0xabc"},
		VerificationID: id.NewVerificationID(),
		Claims:         Claims{FullName: ptr("Jane Doe"), Nationality: nil, IsOver18: ptr(true)},
		IncludedClaims: []ClaimKey{ClaimFullName, ClaimNationality},
		IssuedAt:       issuedAt.Add(123456 * time.Nanosecond),
		ExpiresAt:      expiresAt,
	})
	s.Require().NoError(err)
	s.cred = cred
}

func (s *CredentialSuite) TestNewCredential() {
	s.Equal(StatusActive, s.cred.Status)
	s.Equal(HashAlgorithm, s.cred.HashAlgorithm)
	s.Equal(issuedAt, s.cred.IssuedAt, "timestamps are truncated to the hashed precision")
	s.True(s.cred.IntegrityIntact())
}

func (s *CredentialSuite) TestDisclosureDropsNullClaims() {
	s.Equal(map[ClaimKey]any{ClaimFullName: "Jane Doe"}, s.cred.Disclose())
}

func (s *CredentialSuite) TestIntegrityDetectsTampering() {
	s.cred.Claims.FullName = ptr("John Doe")
	s.False(s.cred.IntegrityIntact())
}

func (s *CredentialSuite) TestValidity() {
	s.True(s.cred.IsValid(issuedAt.Add(time.Hour)))
	s.False(s.cred.IsValid(expiresAt))
	s.Equal(StatusExpired, s.cred.EffectiveStatus(expiresAt))

	s.Require().NoError(s.cred.Revoke("lost", s.holder, issuedAt.Add(time.Hour)))
	s.False(s.cred.IsValid(issuedAt.Add(2 * time.Hour)))
	s.Equal(StatusRevoked, s.cred.EffectiveStatus(expiresAt))
}

func (s *CredentialSuite) TestRevokeIsIrreversible() {
	first := issuedAt.Add(time.Hour)
	s.Require().NoError(s.cred.Revoke("lost", s.holder, first))

	err := s.cred.Revoke("again", id.NewUserID(), first.Add(time.Hour))
	s.True(errors.Is(err, sentinel.ErrInvalidState))
	s.Equal("lost", s.cred.Revocation.Reason)
	s.Equal(first, *s.cred.Revocation.RevokedAt)
	s.Equal(s.holder, *s.cred.Revocation.RevokedBy)
}

func (s *CredentialSuite) TestCloneIsDeep() {
	s.cred.RecordVerify(issuedAt)
	cp := s.cred.Clone()
	*cp.Claims.FullName = "Changed"
	cp.IncludedClaims[0] = ClaimIsOver21
	*cp.Usage.LastVerifiedAt = expiresAt

	s.Equal("Jane Doe", *s.cred.Claims.FullName)
	s.Equal(ClaimFullName, s.cred.IncludedClaims[0])
	s.Equal(issuedAt, *s.cred.Usage.LastVerifiedAt)
}

func (s *CredentialSuite) TestClaimsFill() {
	filled := Claims{FullName: ptr("Jane Doe")}.Fill(Claims{FullName: ptr("OCR Name"), Nationality: ptr("FR")})
	s.Equal("Jane Doe", *filled.FullName, "caller values win")
	s.Equal("FR", *filled.Nationality)
}
