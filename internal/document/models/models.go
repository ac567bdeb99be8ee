package models

import (
	"time"

	id "verifyx/pkg/domain"
)

// DocumentType is the kind of identity document a user registered.
type DocumentType string

const (
	TypePassport        DocumentType = "passport"
	TypeDrivingLicense  DocumentType = "driving_license"
	TypeNationalID      DocumentType = "national_id"
	TypeResidencePermit DocumentType = "residence_permit"
	TypeOther           DocumentType = "other"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case TypePassport, TypeDrivingLicense, TypeNationalID, TypeResidencePermit, TypeOther:
		return true
	}
	return false
}

// Label is the human-readable name used in activity descriptions.
func (t DocumentType) Label() string {
	switch t {
	case TypePassport:
		return "Passport"
	case TypeDrivingLicense:
		return "Driving License"
	case TypeNationalID:
		return "National ID"
	case TypeResidencePermit:
		return "Residence Permit"
	default:
		return "Document"
	}
}

// Status tracks the AI verification outcome for a document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
	StatusExpired    Status = "expired"
)

// Document is the metadata record of an uploaded identity document.
// File contents live in IPFS; only the content hash is kept here.
type Document struct {
	ID             id.DocumentID
	UserID         id.UserID
	Type           DocumentType
	IssuingCountry string
	FileName       string
	MimeType       string
	Size           int64
	IPFSHash       string
	Verification   Verification
	IsDeleted      bool
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Verification struct {
	Status          Status
	VerifiedAt      *time.Time
	RejectionReason string
	AIConfidence    *float64
}

// IsOwnedBy reports whether the document belongs to userID and is still visible.
func (d *Document) IsOwnedBy(userID id.UserID) bool {
	return d.UserID == userID && !d.IsDeleted
}

func (d *Document) MarkVerified(confidence *float64, now time.Time) {
	d.Verification.Status = StatusVerified
	d.Verification.VerifiedAt = &now
	d.Verification.RejectionReason = ""
	d.Verification.AIConfidence = confidence
	d.UpdatedAt = now
}

func (d *Document) MarkRejected(reason string, confidence *float64, now time.Time) {
	d.Verification.Status = StatusRejected
	d.Verification.RejectionReason = reason
	d.Verification.AIConfidence = confidence
	d.UpdatedAt = now
}

// SoftDelete hides the document. Returns false if it was already deleted.
func (d *Document) SoftDelete(now time.Time) bool {
	if d.IsDeleted {
		return false
	}
	d.IsDeleted = true
	d.DeletedAt = &now
	d.UpdatedAt = now
	return true
}
