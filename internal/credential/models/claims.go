package models

import (
	"fmt"
	"slices"
)

// ClaimKey names one attribute of Claims.
type ClaimKey string

const (
	ClaimFullName       ClaimKey = "fullName"
	ClaimDateOfBirth    ClaimKey = "dateOfBirth"
	ClaimNationality    ClaimKey = "nationality"
	ClaimDocumentType   ClaimKey = "documentType"
	ClaimDocumentNumber ClaimKey = "documentNumber"
	ClaimIsOver18       ClaimKey = "isOver18"
	ClaimIsOver21       ClaimKey = "isOver21"
)

// DefaultIncludedClaims is the disclosure set used when the caller picks none.
var DefaultIncludedClaims = []ClaimKey{ClaimFullName, ClaimNationality, ClaimDocumentType, ClaimIsOver18}

// disclosable lists the claims a holder may disclose. The document number is
// certified but never shared.
var disclosable = []ClaimKey{
	ClaimFullName, ClaimDateOfBirth, ClaimNationality, ClaimDocumentType, ClaimIsOver18, ClaimIsOver21,
}

// IsDisclosable reports whether key may appear in IncludedClaims.
func (k ClaimKey) IsDisclosable() bool {
	return slices.Contains(disclosable, k)
}

// Claims is the certified attribute set. Nil marks an absent value. Field
// order is the canonical hashing order; do not reorder.
type Claims struct {
	FullName       *string `json:"fullName"`
	DateOfBirth    *string `json:"dateOfBirth"`
	Nationality    *string `json:"nationality"`
	DocumentType   *string `json:"documentType"`
	DocumentNumber *string `json:"documentNumber"`
	IsOver18       *bool   `json:"isOver18"`
	IsOver21       *bool   `json:"isOver21"`
}

// Value returns the claim's value and whether it is present.
func (c Claims) Value(key ClaimKey) (any, bool) {
	switch key {
	case ClaimFullName:
		return deref(c.FullName)
	case ClaimDateOfBirth:
		return deref(c.DateOfBirth)
	case ClaimNationality:
		return deref(c.Nationality)
	case ClaimDocumentType:
		return deref(c.DocumentType)
	case ClaimDocumentNumber:
		return deref(c.DocumentNumber)
	case ClaimIsOver18:
		return deref(c.IsOver18)
	case ClaimIsOver21:
		return deref(c.IsOver21)
	}
	return nil, false
}

// Fill copies values from other into claims that are absent here.
func (c Claims) Fill(other Claims) Claims {
	out := c.Clone()
	fill(&out.FullName, other.FullName)
	fill(&out.DateOfBirth, other.DateOfBirth)
	fill(&out.Nationality, other.Nationality)
	fill(&out.DocumentType, other.DocumentType)
	fill(&out.DocumentNumber, other.DocumentNumber)
	fill(&out.IsOver18, other.IsOver18)
	fill(&out.IsOver21, other.IsOver21)
	return out
}

func (c Claims) Clone() Claims {
	return Claims{
		FullName:       clonePtr(c.FullName),
		DateOfBirth:    clonePtr(c.DateOfBirth),
		Nationality:    clonePtr(c.Nationality),
		DocumentType:   clonePtr(c.DocumentType),
		DocumentNumber: clonePtr(c.DocumentNumber),
		IsOver18:       clonePtr(c.IsOver18),
		IsOver21:       clonePtr(c.IsOver21),
	}
}

// ParseIncludedClaims validates and de-duplicates the requested disclosure
// set, keeping the caller's order. An empty request yields the default set.
func ParseIncludedClaims(raw []string) ([]ClaimKey, error) {
	if len(raw) == 0 {
		return append([]ClaimKey(nil), DefaultIncludedClaims...), nil
	}
	out := make([]ClaimKey, 0, len(raw))
	for _, r := range raw {
		key := ClaimKey(r)
		if !key.IsDisclosable() {
			return nil, fmt.Errorf("claim %q cannot be disclosed", r)
		}
		if !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	return out, nil
}

func deref[T any](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func fill[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
