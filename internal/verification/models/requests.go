package models

import (
	"strings"

	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
)

type StartRequest struct {
	DocumentID string `json:"documentId"`
}

func (r *StartRequest) Sanitize() {
	r.DocumentID = strings.TrimSpace(r.DocumentID)
}

func (r *StartRequest) Validate() error {
	if _, err := id.ParseDocumentID(r.DocumentID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "documentId must be a valid id")
	}
	return nil
}

type UpdateStepRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStepRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *UpdateStepRequest) Validate() error {
	if !StepStatus(r.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be pending, processing, completed or failed")
	}
	return nil
}

type AddErrorRequest struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

func (r *AddErrorRequest) Sanitize() {
	r.Step = strings.TrimSpace(r.Step)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *AddErrorRequest) Validate() error {
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}
	if len(r.Message) > 1024 {
		return dErrors.New(dErrors.CodeValidation, "message must be 1024 characters or less")
	}
	return nil
}

// CompleteRequest submits client-side scores for the final verdict.
type CompleteRequest struct {
	Scores Scores `json:"scores"`
}

func (r *CompleteRequest) Validate() error {
	for _, v := range confidenceValues(r.Scores) {
		if v < 0 || v > 1 {
			return dErrors.New(dErrors.CodeValidation, "confidence values must be between 0 and 1")
		}
	}
	return nil
}

// ChecksInput is the payload forwarded to the AI oracle.
// Images are base64 encoded.
type ChecksInput struct {
	DocumentImage string   `json:"documentImage"`
	SelfieImage   string   `json:"selfieImage"`
	Frames        []string `json:"frames"`
	ChallengeType string   `json:"challengeType,omitempty"`
	DocumentType  string   `json:"documentType,omitempty"`
}

func (r *ChecksInput) Normalize() {
	r.ChallengeType = strings.ToLower(strings.TrimSpace(r.ChallengeType))
	if r.ChallengeType == "" {
		r.ChallengeType = "blink"
	}
	r.DocumentType = strings.ToLower(strings.TrimSpace(r.DocumentType))
	if r.DocumentType == "" {
		r.DocumentType = "passport"
	}
}

func (r *ChecksInput) Validate() error {
	if r.DocumentImage == "" {
		return dErrors.New(dErrors.CodeValidation, "documentImage is required")
	}
	if r.SelfieImage == "" {
		return dErrors.New(dErrors.CodeValidation, "selfieImage is required")
	}
	if len(r.Frames) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one liveness frame is required")
	}
	if len(r.Frames) > 30 {
		return dErrors.New(dErrors.CodeValidation, "at most 30 liveness frames are accepted")
	}
	return nil
}

func confidenceValues(s Scores) []float64 {
	var ptrs []*float64
	if s.FaceMatch != nil {
		ptrs = append(ptrs, s.FaceMatch.Confidence)
	}
	if s.Liveness != nil {
		ptrs = append(ptrs, s.Liveness.Confidence)
	}
	if s.OCR != nil {
		c := s.OCR.ConfidenceScores
		ptrs = append(ptrs, c.FullName, c.DateOfBirth, c.DocumentNumber, c.Nationality, c.ExpiryDate)
	}
	var out []float64
	for _, p := range ptrs {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
