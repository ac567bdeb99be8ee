package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

type Type string

const (
	TypeIdentity    Type = "IdentityCredential"
	TypeAge         Type = "AgeVerification"
	TypeNationality Type = "NationalityVerification"
	TypeAddress     Type = "AddressVerification"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeIdentity, TypeAge, TypeNationality, TypeAddress:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusRevoked   Status = "revoked"
	StatusExpired   Status = "expired"
	StatusSuspended Status = "suspended"
)

const (
	HashAlgorithm = "sha256"
	ProofType     = "EcdsaSecp256k1Signature2019"
	ProofPurpose  = "assertionMethod"
)

// Credential is a verifiable credential issued from a passed verification
// session. Hash is fixed by NewCredential and never recomputed; callers
// compare it with ComputeHash to detect tampering.
type Credential struct {
	ID             string
	Hash           string
	HashAlgorithm  string
	Type           Type
	Issuer         Issuer
	Subject        Subject
	VerificationID id.VerificationID
	Claims         Claims
	IncludedClaims []ClaimKey
	Status         Status
	IssuedAt       time.Time
	ExpiresAt      time.Time
	Revocation     Revocation
	Usage          Usage
	Blockchain     Blockchain
	Proof          *Proof
}

type Issuer struct {
	DID  string `json:"did"`
	Name string `json:"name"`
}

type Subject struct {
	UserID id.UserID `json:"-"`
	DID    string    `json:"did"`
}

// Revocation is populated only on the transition to revoked.
type Revocation struct {
	RevokedAt *time.Time
	Reason    string
	RevokedBy *id.UserID
}

// Usage holds monotonic counters. Stores increment them atomically.
type Usage struct {
	ShareCount     int
	VerifyCount    int
	LastSharedAt   *time.Time
	LastVerifiedAt *time.Time
}

// Blockchain is the anchoring metadata. It is independent of Status.
type Blockchain struct {
	Stored          bool
	TxHash          string
	BlockNumber     *uint64
	Network         string
	ContractAddress string
	StoredAt        *time.Time
}

// Proof is a detached JWS over the credential hash.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	JWS                string    `json:"jws"`
}

// Draft carries the defining fields of a credential before it exists.
type Draft struct {
	Type           Type
	Issuer         Issuer
	Subject        Subject
	VerificationID id.VerificationID
	Claims         Claims
	IncludedClaims []ClaimKey
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// NewCredential assigns an id and computes the content hash. This is the
// only place a hash is ever derived for a stored credential.
func NewCredential(d Draft) (*Credential, error) {
	credID, err := NewCredentialID(d.IssuedAt)
	if err != nil {
		return nil, err
	}
	issuedAt := d.IssuedAt.UTC().Truncate(time.Millisecond)
	expiresAt := d.ExpiresAt.UTC().Truncate(time.Millisecond)
	return &Credential{
		ID:             credID,
		Hash:           ComputeHash(d.Issuer.DID, d.Subject.DID, d.Claims, issuedAt, expiresAt),
		HashAlgorithm:  HashAlgorithm,
		Type:           d.Type,
		Issuer:         d.Issuer,
		Subject:        d.Subject,
		VerificationID: d.VerificationID,
		Claims:         d.Claims.Clone(),
		IncludedClaims: append([]ClaimKey(nil), d.IncludedClaims...),
		Status:         StatusActive,
		IssuedAt:       issuedAt,
		ExpiresAt:      expiresAt,
		Blockchain:     Blockchain{Network: "ethereum"},
	}, nil
}

// NewCredentialID returns cred_<unix millis>_<12 hex chars>.
func NewCredentialID(now time.Time) (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate credential id: %w", err)
	}
	return fmt.Sprintf("cred_%d_%s", now.UnixMilli(), hex.EncodeToString(b[:])), nil
}

// IsValid is the single validity predicate for credentials.
func (c *Credential) IsValid(now time.Time) bool {
	return c.Status == StatusActive && now.Before(c.ExpiresAt)
}

// EffectiveStatus reports expired for active credentials past their window.
func (c *Credential) EffectiveStatus(now time.Time) Status {
	if c.Status == StatusActive && !now.Before(c.ExpiresAt) {
		return StatusExpired
	}
	return c.Status
}

// IntegrityIntact recomputes the hash from the defining fields and compares
// it with the stored one.
func (c *Credential) IntegrityIntact() bool {
	return ComputeHash(c.Issuer.DID, c.Subject.DID, c.Claims, c.IssuedAt, c.ExpiresAt) == c.Hash
}

// Disclose returns the included claims that carry a value. Included claims
// without a value are dropped rather than shown as null.
func (c *Credential) Disclose() map[ClaimKey]any {
	out := make(map[ClaimKey]any, len(c.IncludedClaims))
	for _, key := range c.IncludedClaims {
		if v, ok := c.Claims.Value(key); ok {
			out[key] = v
		}
	}
	return out
}

// IsOwnedBy reports whether userID is the credential subject.
func (c *Credential) IsOwnedBy(userID id.UserID) bool {
	return c.Subject.UserID == userID
}

// Revoke moves an active credential to revoked. Any other status is refused
// with sentinel.ErrInvalidState and leaves the credential untouched.
func (c *Credential) Revoke(reason string, by id.UserID, now time.Time) error {
	if c.Status != StatusActive {
		return fmt.Errorf("credential is %s: %w", c.Status, sentinel.ErrInvalidState)
	}
	c.Status = StatusRevoked
	c.Revocation = Revocation{RevokedAt: &now, Reason: reason, RevokedBy: &by}
	return nil
}

func (c *Credential) RecordShare(now time.Time) {
	c.Usage.ShareCount++
	c.Usage.LastSharedAt = &now
}

func (c *Credential) RecordVerify(now time.Time) {
	c.Usage.VerifyCount++
	c.Usage.LastVerifiedAt = &now
}

// RecordAnchor stores the registry transaction that anchored the hash.
func (c *Credential) RecordAnchor(txHash string, blockNumber uint64, network, contract string, now time.Time) {
	c.Blockchain = Blockchain{
		Stored:          true,
		TxHash:          txHash,
		BlockNumber:     &blockNumber,
		Network:         network,
		ContractAddress: contract,
		StoredAt:        &now,
	}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (c *Credential) Clone() *Credential {
	cp := *c
	cp.Claims = c.Claims.Clone()
	cp.IncludedClaims = append([]ClaimKey(nil), c.IncludedClaims...)
	cp.Revocation.RevokedAt = cloneTime(c.Revocation.RevokedAt)
	if c.Revocation.RevokedBy != nil {
		by := *c.Revocation.RevokedBy
		cp.Revocation.RevokedBy = &by
	}
	cp.Usage.LastSharedAt = cloneTime(c.Usage.LastSharedAt)
	cp.Usage.LastVerifiedAt = cloneTime(c.Usage.LastVerifiedAt)
	if c.Blockchain.BlockNumber != nil {
		n := *c.Blockchain.BlockNumber
		cp.Blockchain.BlockNumber = &n
	}
	cp.Blockchain.StoredAt = cloneTime(c.Blockchain.StoredAt)
	if c.Proof != nil {
		p := *c.Proof
		cp.Proof = &p
	}
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
