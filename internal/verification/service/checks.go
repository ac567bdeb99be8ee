package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"verifyx/internal/oracle"
	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/requestcontext"
)

// checkOutcome is the result of one oracle call. Exactly one of the score
// pointers or err is set.
type checkOutcome struct {
	step      models.StepName
	faceMatch *models.FaceMatch
	liveness  *models.Liveness
	ocr       *models.OCR
	err       error
}

// RunChecks calls the oracle's face, liveness and OCR checks concurrently,
// records each outcome on its step and then completes the session. A failed
// check is recorded as a failed step plus an error entry; it never aborts
// the other checks. A session that expires while the oracle is working
// keeps the recorded outcomes and stays expired.
func (s *Service) RunChecks(ctx context.Context, userID id.UserID, sessionID id.VerificationID, input models.ChecksInput) (*models.Session, error) {
	if s.oracle == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "verification oracle is not configured")
	}
	started := requestcontext.Now(ctx)

	_, err := s.mutate(ctx, userID, sessionID, func(session *models.Session) error {
		if session.IsExpired(started) {
			session.MarkExpired(started)
			return models.ErrSessionExpired()
		}
		for _, step := range []models.StepName{models.StepDocumentUpload, models.StepFaceCapture, models.StepLivenessCheck, models.StepAIVerification} {
			if err := session.UpdateStep(step, models.StepProcessing, started); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.observeRefusal(err)
		return nil, err
	}

	outcomes := s.callOracle(ctx, input, started)

	// The oracle may have taken a while; judge expiry by the clock, not the request time.
	now := s.clock()
	session, err := s.mutate(ctx, userID, sessionID, func(session *models.Session) error {
		var scores models.Scores
		for _, o := range outcomes {
			status := models.StepCompleted
			if o.err != nil {
				status = models.StepFailed
				session.AddError(o.step, checkErrorMessage(o.err), now)
			}
			if err := session.UpdateStep(o.step, status, now); err != nil {
				return err
			}
			switch {
			case o.faceMatch != nil:
				scores.FaceMatch = o.faceMatch
			case o.liveness != nil:
				scores.Liveness = o.liveness
			case o.ocr != nil:
				scores.OCR = o.ocr
			}
		}
		if session.Status == models.StatusExpired {
			session.Scores = session.Scores.Merge(scores)
			return models.ErrSessionExpired()
		}
		return finalize(session, scores, now)
	})
	if s.metrics != nil {
		s.metrics.ObserveChecksDuration(now.Sub(started).Seconds())
	}
	if err != nil {
		s.observeRefusal(err)
		return nil, err
	}
	s.afterVerdict(ctx, session)
	return session, nil
}

// callOracle fans the three checks out. Each goroutine reports through its
// own slot, so the group never cancels its siblings.
func (s *Service) callOracle(ctx context.Context, input models.ChecksInput, now time.Time) []checkOutcome {
	outcomes := make([]checkOutcome, 3)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o := checkOutcome{step: models.StepFaceCapture}
		res, err := s.oracle.VerifyFace(gctx, input.DocumentImage, input.SelfieImage)
		if err != nil {
			o.err = err
		} else {
			o.faceMatch = faceScores(res)
		}
		outcomes[0] = o
		return nil
	})
	g.Go(func() error {
		o := checkOutcome{step: models.StepLivenessCheck}
		res, err := s.oracle.DetectLiveness(gctx, input.Frames, input.ChallengeType)
		if err != nil {
			o.err = err
		} else {
			o.liveness = livenessScores(res)
		}
		outcomes[1] = o
		return nil
	})
	g.Go(func() error {
		o := checkOutcome{step: models.StepDocumentUpload}
		res, err := s.oracle.ExtractOCR(gctx, input.DocumentImage, input.DocumentType)
		if err != nil {
			o.err = err
		} else {
			o.ocr = ocrScores(res, now)
		}
		outcomes[2] = o
		return nil
	})
	_ = g.Wait()

	for _, o := range outcomes {
		if o.err == nil {
			continue
		}
		category := oracle.CategoryOf(o.err)
		if s.metrics != nil {
			s.metrics.IncrementCheckFailures(string(o.step), string(category))
		}
		s.logger.WarnContext(ctx, "oracle check failed",
			"step", string(o.step),
			"category", string(category),
			"retryable", oracle.IsRetryable(o.err),
			"error", o.err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return outcomes
}

func checkErrorMessage(err error) string {
	var ce *oracle.CheckError
	if errors.As(err, &ce) {
		return string(ce.Category) + ": " + ce.Message
	}
	return err.Error()
}

func faceScores(res *oracle.FaceResult) *models.FaceMatch {
	passed := res.Match
	confidence := res.Confidence
	return &models.FaceMatch{
		Passed:           &passed,
		Confidence:       &confidence,
		Threshold:        res.Threshold,
		Model:            res.Model,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}
}

func livenessScores(res *oracle.LivenessResult) *models.Liveness {
	passed := res.IsLive
	confidence := res.Confidence
	realFace := res.IsRealFace
	out := &models.Liveness{
		Passed:           &passed,
		Confidence:       &confidence,
		IsRealFace:       &realFace,
		ChallengeType:    res.ChallengeType,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}
	if res.SpoofType != nil {
		out.SpoofType = *res.SpoofType
	}
	return out
}

// mrzLineLength is the TD3 (passport) machine readable zone line length.
const mrzLineLength = 44

// minDocumentQuality is the overall quality score below which a document
// image is treated as unreadable.
const minDocumentQuality = 0.5

func ocrScores(res *oracle.OCRResult, now time.Time) *models.OCR {
	f := res.Fields
	extracted := strings.TrimSpace(f.FullName) != "" || strings.TrimSpace(f.DocumentNumber) != ""

	out := &models.OCR{
		DataExtracted: &extracted,
		ConfidenceScores: models.OCRConfidenceScores{
			FullName:       res.Confidence.FullName,
			DateOfBirth:    res.Confidence.DateOfBirth,
			DocumentNumber: res.Confidence.DocumentNumber,
			Nationality:    res.Confidence.Nationality,
			ExpiryDate:     res.Confidence.ExpiryDate,
		},
		Extracted: models.ExtractedData{
			FullName:         f.FullName,
			DateOfBirth:      f.DateOfBirth,
			DocumentNumber:   f.DocumentNumber,
			Nationality:      f.Nationality,
			ExpiryDate:       f.ExpiryDate,
			IssuingAuthority: f.IssuingAuthority,
			Gender:           f.Gender,
			MRZLine1:         f.MRZLine1,
			MRZLine2:         f.MRZLine2,
		},
		ProcessingTimeMs: res.ProcessingTimeMs,
	}

	if res.QualityScore != nil {
		valid := *res.QualityScore >= minDocumentQuality
		out.DocumentValid = &valid
	}
	if f.MRZLine1 != "" || f.MRZLine2 != "" {
		valid := len(f.MRZLine1) == mrzLineLength && len(f.MRZLine2) == mrzLineLength
		out.MRZValid = &valid
	}
	if expiry, err := time.Parse(time.DateOnly, f.ExpiryDate); err == nil {
		valid := now.Before(expiry)
		out.ExpiryValid = &valid
	}

	passed := extracted
	for _, check := range []*bool{out.DocumentValid, out.ExpiryValid} {
		if check != nil && !*check {
			passed = false
		}
	}
	out.Passed = &passed
	return out
}
