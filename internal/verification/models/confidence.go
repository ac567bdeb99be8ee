package models

// Check family weights for the blended confidence.
const (
	WeightFaceMatch = 0.40
	WeightLiveness  = 0.35
	WeightOCR       = 0.25
)

// AggregateConfidence blends the per-family confidences. Families without a
// usable value are left out and the remaining weights renormalized, so a
// missing check never counts as zero. Returns nil when nothing contributed.
func AggregateConfidence(scores Scores) *float64 {
	var sum, total float64

	if f := scores.FaceMatch; f != nil && f.Confidence != nil {
		sum += *f.Confidence * WeightFaceMatch
		total += WeightFaceMatch
	}
	if l := scores.Liveness; l != nil && l.Confidence != nil {
		sum += *l.Confidence * WeightLiveness
		total += WeightLiveness
	}
	if o := scores.OCR; o != nil {
		if fields := o.ConfidenceScores.present(); len(fields) > 0 {
			var acc float64
			for _, v := range fields {
				acc += v
			}
			sum += acc / float64(len(fields)) * WeightOCR
			total += WeightOCR
		}
	}

	if total == 0 {
		return nil
	}
	result := sum / total
	return &result
}

// PassesGate is the pass/fail verdict: the face must match and liveness must
// pass or report a real face. OCR is informational and never gates.
func PassesGate(scores Scores) bool {
	face := scores.FaceMatch
	if face == nil || !isTrue(face.Passed) {
		return false
	}
	live := scores.Liveness
	if live == nil {
		return false
	}
	return isTrue(live.Passed) || isTrue(live.IsRealFace)
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
