package oracle

// Check names one of the oracle's scoring endpoints.
type Check string

const (
	CheckFace     Check = "face_verify"
	CheckLiveness Check = "liveness_detect"
	CheckOCR      Check = "ocr_extract"
)

const DefaultChallengeType = "blink"

// FaceResult is the outcome of a document-photo versus selfie comparison.
type FaceResult struct {
	Match            bool
	Confidence       float64
	Threshold        float64
	Model            string
	DistanceMetric   string
	ProcessingTimeMs int64
}

// LivenessResult combines the challenge outcome with anti-spoofing.
type LivenessResult struct {
	IsLive              bool
	Confidence          float64
	ChallengeCompleted  bool
	ChallengeType       string
	IsRealFace          bool
	SpoofType           *string
	AntiSpoofConfidence float64
	ProcessingTimeMs    int64
}

// OCRFields are the values read off the document.
type OCRFields struct {
	FullName         string `json:"full_name"`
	DateOfBirth      string `json:"date_of_birth"`
	DocumentNumber   string `json:"document_number"`
	Nationality      string `json:"nationality"`
	ExpiryDate       string `json:"expiry_date"`
	IssuingAuthority string `json:"issuing_authority"`
	Gender           string `json:"gender"`
	MRZLine1         string `json:"mrz_line1"`
	MRZLine2         string `json:"mrz_line2"`
}

// OCRConfidence holds per-field confidences. Fields the engine did not score are nil.
type OCRConfidence struct {
	FullName       *float64 `json:"full_name"`
	DateOfBirth    *float64 `json:"date_of_birth"`
	DocumentNumber *float64 `json:"document_number"`
	Nationality    *float64 `json:"nationality"`
	ExpiryDate     *float64 `json:"expiry_date"`
}

type OCRResult struct {
	Fields           OCRFields
	Confidence       OCRConfidence
	QualityScore     *float64
	QualityIssues    []string
	ProcessingTimeMs int64
}

// Wire formats.

type faceRequest struct {
	DocumentImage string `json:"document_image"`
	SelfieImage   string `json:"selfie_image"`
}

type faceResponse struct {
	Verification struct {
		Match          bool    `json:"match"`
		Confidence     float64 `json:"confidence"`
		Threshold      float64 `json:"threshold"`
		Model          string  `json:"model"`
		DistanceMetric string  `json:"distance_metric"`
	} `json:"verification"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type livenessRequest struct {
	Frames        []string `json:"frames"`
	ChallengeType string   `json:"challenge_type"`
}

type livenessResponse struct {
	Liveness struct {
		IsLive             bool    `json:"is_live"`
		Confidence         float64 `json:"confidence"`
		ChallengeCompleted bool    `json:"challenge_completed"`
		ChallengeType      string  `json:"challenge_type"`
	} `json:"liveness"`
	AntiSpoofing struct {
		IsRealFace        bool    `json:"is_real_face"`
		SpoofTypeDetected *string `json:"spoof_type_detected"`
		Confidence        float64 `json:"confidence"`
	} `json:"anti_spoofing"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type ocrRequest struct {
	Image        string `json:"image"`
	DocumentType string `json:"document_type"`
}

type ocrResponse struct {
	ExtractedData    OCRFields     `json:"extracted_data"`
	ConfidenceScores OCRConfidence `json:"confidence_scores"`
	DocumentQuality  struct {
		OverallScore *float64 `json:"overall_score"`
		Issues       []string `json:"issues"`
	} `json:"document_quality"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}
