package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// isoMillis matches JavaScript's Date.toISOString, which the hash format
// was first defined against.
const isoMillis = "2006-01-02T15:04:05.000Z"

// hashInput fixes the canonical key order: issuer, subject, claims,
// issuedAt, expiresAt. Claims serialize in their declared field order with
// null for absent values.
type hashInput struct {
	Issuer    string `json:"issuer"`
	Subject   string `json:"subject"`
	Claims    Claims `json:"claims"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
}

// ComputeHash returns the sha256 hex digest of the canonical serialization
// of a credential's defining fields. It is a pure function of its inputs.
func ComputeHash(issuerDID, subjectDID string, claims Claims, issuedAt, expiresAt time.Time) string {
	// Encoding a struct of strings and scalar pointers cannot fail.
	canonical, _ := CanonicalJSON(issuerDID, subjectDID, claims, issuedAt, expiresAt)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// IsHash reports whether s looks like a ComputeHash result.
func IsHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// CanonicalJSON returns the exact bytes that ComputeHash digests.
func CanonicalJSON(issuerDID, subjectDID string, claims Claims, issuedAt, expiresAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(hashInput{
		Issuer:    issuerDID,
		Subject:   subjectDID,
		Claims:    claims,
		IssuedAt:  issuedAt.UTC().Format(isoMillis),
		ExpiresAt: expiresAt.UTC().Format(isoMillis),
	}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
