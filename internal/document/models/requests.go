package models

import (
	"regexp"
	"strings"

	dErrors "verifyx/pkg/domain-errors"
)

// MaxDocumentSize mirrors the upload limit enforced at the edge.
const MaxDocumentSize = 10 << 20

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"image/webp":      true,
		"application/pdf": true,
	}
	ipfsHashPattern = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|b[a-z2-7]{20,})$`)
)

// RegisterRequest records metadata for a document already pinned to IPFS.
type RegisterRequest struct {
	DocumentType   string `json:"documentType"`
	IssuingCountry string `json:"issuingCountry,omitempty"`
	FileName       string `json:"fileName"`
	MimeType       string `json:"mimeType"`
	Size           int64  `json:"size"`
	IPFSHash       string `json:"ipfsHash"`
}

func (r *RegisterRequest) Sanitize() {
	r.DocumentType = strings.TrimSpace(r.DocumentType)
	r.IssuingCountry = strings.TrimSpace(r.IssuingCountry)
	r.FileName = strings.TrimSpace(r.FileName)
	r.MimeType = strings.TrimSpace(r.MimeType)
	r.IPFSHash = strings.TrimSpace(r.IPFSHash)
}

func (r *RegisterRequest) Normalize() {
	r.DocumentType = strings.ToLower(r.DocumentType)
	r.MimeType = strings.ToLower(r.MimeType)
	r.IssuingCountry = strings.ToUpper(r.IssuingCountry)
	if r.DocumentType == "" {
		r.DocumentType = string(TypePassport)
	}
}

func (r *RegisterRequest) Validate() error {
	if !DocumentType(r.DocumentType).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "documentType must be one of passport, driving_license, national_id, residence_permit, other")
	}
	if r.FileName == "" {
		return dErrors.New(dErrors.CodeValidation, "fileName is required")
	}
	if !allowedMimeTypes[r.MimeType] {
		return dErrors.New(dErrors.CodeValidation, "mimeType must be image/jpeg, image/png, image/webp or application/pdf")
	}
	if r.Size <= 0 || r.Size > MaxDocumentSize {
		return dErrors.New(dErrors.CodeValidation, "size must be between 1 byte and 10MB")
	}
	if !ipfsHashPattern.MatchString(r.IPFSHash) {
		return dErrors.New(dErrors.CodeValidation, "ipfsHash is not a valid CID")
	}
	return nil
}
