package models

import "time"

// Listing pairs a credential with its validity at read time.
type Listing struct {
	Credential *Credential
	Valid      bool
	Status     Status
}

// PublicView is what a verifier sees. Only disclosed claims are included and
// the subject is identified by DID alone.
type PublicView struct {
	ID         string           `json:"credentialId"`
	Type       Type             `json:"type"`
	Issuer     Issuer           `json:"issuer"`
	SubjectDID string           `json:"subjectDid"`
	Claims     map[ClaimKey]any `json:"claims"`
	Status     Status           `json:"status"`
	IssuedAt   time.Time        `json:"issuedAt"`
	ExpiresAt  time.Time        `json:"expiresAt"`
	Anchored   bool             `json:"anchored"`
	TxHash     string           `json:"txHash,omitempty"`
	Network    string           `json:"network,omitempty"`
	Proof      *Proof           `json:"proof,omitempty"`
}

// VerifyResult is the outcome of a public hash lookup.
type VerifyResult struct {
	Verified   bool       `json:"verified"`
	Credential PublicView `json:"credential"`
}

// ShareResult points a verifier at the public lookup for a credential.
type ShareResult struct {
	CredentialID string `json:"credentialId"`
	Hash         string `json:"hash"`
	VerifyPath   string `json:"verifyPath"`
	ShareCount   int    `json:"shareCount"`
}

// Redact builds the public view, reporting lapsed credentials as expired.
func (c *Credential) Redact(now time.Time) PublicView {
	return PublicView{
		ID:         c.ID,
		Type:       c.Type,
		Issuer:     c.Issuer,
		SubjectDID: c.Subject.DID,
		Claims:     c.Disclose(),
		Status:     c.EffectiveStatus(now),
		IssuedAt:   c.IssuedAt,
		ExpiresAt:  c.ExpiresAt,
		Anchored:   c.Blockchain.Stored,
		TxHash:     c.Blockchain.TxHash,
		Network:    c.Blockchain.Network,
		Proof:      c.Proof,
	}
}
