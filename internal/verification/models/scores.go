package models

// Scores holds the oracle results per check family. Nil pointers mark
// checks that were skipped or that failed to produce a value.
type Scores struct {
	FaceMatch *FaceMatch `json:"faceMatch,omitempty"`
	Liveness  *Liveness  `json:"liveness,omitempty"`
	OCR       *OCR       `json:"ocr,omitempty"`
}

type FaceMatch struct {
	Passed           *bool    `json:"passed,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Threshold        float64  `json:"threshold,omitempty"`
	Model            string   `json:"model,omitempty"`
	ProcessingTimeMs int64    `json:"processingTimeMs,omitempty"`
}

type Liveness struct {
	Passed           *bool    `json:"passed,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	IsRealFace       *bool    `json:"isRealFace,omitempty"`
	SpoofType        string   `json:"spoofType,omitempty"`
	ChallengeType    string   `json:"challengeType,omitempty"`
	ProcessingTimeMs int64    `json:"processingTimeMs,omitempty"`
}

type OCR struct {
	Passed           *bool               `json:"passed,omitempty"`
	DataExtracted    *bool               `json:"dataExtracted,omitempty"`
	DocumentValid    *bool               `json:"documentValid,omitempty"`
	MRZValid         *bool               `json:"mrzValid,omitempty"`
	ExpiryValid      *bool               `json:"expiryValid,omitempty"`
	ConfidenceScores OCRConfidenceScores `json:"confidenceScores"`
	Extracted        ExtractedData       `json:"extracted"`
	ProcessingTimeMs int64               `json:"processingTimeMs,omitempty"`
}

type OCRConfidenceScores struct {
	FullName       *float64 `json:"fullName,omitempty"`
	DateOfBirth    *float64 `json:"dateOfBirth,omitempty"`
	DocumentNumber *float64 `json:"documentNumber,omitempty"`
	Nationality    *float64 `json:"nationality,omitempty"`
	ExpiryDate     *float64 `json:"expiryDate,omitempty"`
}

func (c OCRConfidenceScores) present() []float64 {
	var out []float64
	for _, v := range []*float64{c.FullName, c.DateOfBirth, c.DocumentNumber, c.Nationality, c.ExpiryDate} {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// ExtractedData is the OCR field output used to populate credential claims.
type ExtractedData struct {
	FullName         string `json:"fullName,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	DocumentNumber   string `json:"documentNumber,omitempty"`
	Nationality      string `json:"nationality,omitempty"`
	ExpiryDate       string `json:"expiryDate,omitempty"`
	IssuingAuthority string `json:"issuingAuthority,omitempty"`
	Gender           string `json:"gender,omitempty"`
	MRZLine1         string `json:"mrzLine1,omitempty"`
	MRZLine2         string `json:"mrzLine2,omitempty"`
}

// Merge overlays the non-nil families of other onto s.
func (s Scores) Merge(other Scores) Scores {
	if other.FaceMatch != nil {
		s.FaceMatch = other.FaceMatch
	}
	if other.Liveness != nil {
		s.Liveness = other.Liveness
	}
	if other.OCR != nil {
		s.OCR = other.OCR
	}
	return s
}

// Clone deep-copies every family.
func (s Scores) Clone() Scores {
	var out Scores
	if f := s.FaceMatch; f != nil {
		cp := *f
		cp.Passed = cloneBool(f.Passed)
		cp.Confidence = cloneFloat(f.Confidence)
		out.FaceMatch = &cp
	}
	if l := s.Liveness; l != nil {
		cp := *l
		cp.Passed = cloneBool(l.Passed)
		cp.Confidence = cloneFloat(l.Confidence)
		cp.IsRealFace = cloneBool(l.IsRealFace)
		out.Liveness = &cp
	}
	if o := s.OCR; o != nil {
		cp := *o
		cp.Passed = cloneBool(o.Passed)
		cp.DataExtracted = cloneBool(o.DataExtracted)
		cp.DocumentValid = cloneBool(o.DocumentValid)
		cp.MRZValid = cloneBool(o.MRZValid)
		cp.ExpiryValid = cloneBool(o.ExpiryValid)
		c := o.ConfidenceScores
		cp.ConfidenceScores = OCRConfidenceScores{
			FullName:       cloneFloat(c.FullName),
			DateOfBirth:    cloneFloat(c.DateOfBirth),
			DocumentNumber: cloneFloat(c.DocumentNumber),
			Nationality:    cloneFloat(c.Nationality),
			ExpiryDate:     cloneFloat(c.ExpiryDate),
		}
		out.OCR = &cp
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
