package models

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
)

// DefaultRevocationReason is recorded when the holder gives none.
const DefaultRevocationReason = "User requested revocation"

// IssueRequest asks for a credential backed by a passed verification session.
// Claims the caller omits are filled from the session's extracted data.
type IssueRequest struct {
	VerificationID string   `json:"verificationId"`
	Type           string   `json:"type,omitempty"`
	Claims         Claims   `json:"claims"`
	IncludedClaims []string `json:"includedClaims,omitempty"`
}

func (r *IssueRequest) Sanitize() {
	r.VerificationID = strings.TrimSpace(r.VerificationID)
	r.Claims.FullName = trimmed(r.Claims.FullName)
	r.Claims.DateOfBirth = trimmed(r.Claims.DateOfBirth)
	r.Claims.Nationality = trimmed(r.Claims.Nationality)
	r.Claims.DocumentType = trimmed(r.Claims.DocumentType)
	r.Claims.DocumentNumber = trimmed(r.Claims.DocumentNumber)
	for i, c := range r.IncludedClaims {
		r.IncludedClaims[i] = strings.TrimSpace(c)
	}
}

func (r *IssueRequest) Normalize() {
	if r.Type == "" {
		r.Type = string(TypeIdentity)
	}
}

func (r *IssueRequest) Validate() error {
	if _, err := id.ParseVerificationID(r.VerificationID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "verificationId must be a valid id")
	}
	if !Type(r.Type).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unsupported credential type")
	}
	if _, err := ParseIncludedClaims(r.IncludedClaims); err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if dob := r.Claims.DateOfBirth; dob != nil {
		if _, err := time.Parse(time.DateOnly, *dob); err != nil {
			return dErrors.New(dErrors.CodeValidation, "dateOfBirth must be YYYY-MM-DD")
		}
	}
	if name := r.Claims.FullName; name != nil && len(*name) > 256 {
		return dErrors.New(dErrors.CodeValidation, "fullName must be 256 characters or less")
	}
	return nil
}

type RevokeRequest struct {
	Reason string `json:"reason"`
}

func (r *RevokeRequest) Sanitize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeRequest) Normalize() {
	if r.Reason == "" {
		r.Reason = DefaultRevocationReason
	}
}

func (r *RevokeRequest) Validate() error {
	if len(r.Reason) > 512 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 512 characters or less")
	}
	return nil
}

type ConfirmAnchorRequest struct {
	TxHash string `json:"txHash"`
}

func (r *ConfirmAnchorRequest) Normalize() {
	r.TxHash = strings.ToLower(strings.TrimSpace(r.TxHash))
}

func (r *ConfirmAnchorRequest) Validate() error {
	raw, err := hexutil.Decode(r.TxHash)
	if err != nil || len(raw) != common.HashLength {
		return dErrors.New(dErrors.CodeValidation, "txHash must be a 32-byte hex string")
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
