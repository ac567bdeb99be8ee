package service

import (
	"strings"
	"time"

	"verifyx/internal/credential/models"
	docModels "verifyx/internal/document/models"
	vModels "verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
)

// completeClaims fills what the caller left out from the session's OCR output
// and the document record. Caller-supplied values always win. Age flags are
// derived from the resulting date of birth.
func completeClaims(requested models.Claims, session *vModels.Session, doc *docModels.Document, now time.Time) models.Claims {
	var derived models.Claims
	if ocr := session.Scores.OCR; ocr != nil {
		derived.FullName = nonEmpty(ocr.Extracted.FullName)
		derived.Nationality = nonEmpty(ocr.Extracted.Nationality)
		derived.DocumentNumber = nonEmpty(ocr.Extracted.DocumentNumber)
		if dob := strings.TrimSpace(ocr.Extracted.DateOfBirth); dob != "" {
			if _, err := time.Parse(time.DateOnly, dob); err == nil {
				derived.DateOfBirth = &dob
			}
		}
	}
	if doc != nil {
		docType := string(doc.Type)
		derived.DocumentType = &docType
	}

	claims := requested.Fill(derived)
	if claims.DateOfBirth != nil && (claims.IsOver18 == nil || claims.IsOver21 == nil) {
		if birth, err := time.Parse(time.DateOnly, *claims.DateOfBirth); err == nil {
			over18 := id.IsOver18(birth, now)
			over21 := id.IsOver21(birth, now)
			claims = claims.Fill(models.Claims{IsOver18: &over18, IsOver21: &over21})
		}
	}
	return claims
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
