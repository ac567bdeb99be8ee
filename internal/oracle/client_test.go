package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifyx/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	calls   atomic.Int32
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.calls.Store(0)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.handler(w, r)
	}))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) newClient(opts ...Option) *Client {
	opts = append([]Option{WithBackoff(BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxRetries: 2})}, opts...)
	return New(s.server.URL, opts...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *ClientSuite) TestVerifyFace() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v1/face/verify", r.URL.Path)
		s.Equal("secret", r.Header.Get("X-API-Key"))
		var req faceRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("doc", req.DocumentImage)
		s.Equal("selfie", req.SelfieImage)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"verification": map[string]any{
				"match": true, "confidence": 0.95, "threshold": 0.8,
				"model": "ArcFace", "distance_metric": "cosine",
			},
			"processing_time_ms": 1250,
		})
	}

	res, err := s.newClient(WithAPIKey("secret")).VerifyFace(context.Background(), "doc", "selfie")
	s.Require().NoError(err)
	s.True(res.Match)
	s.InDelta(0.95, res.Confidence, 1e-9)
	s.Equal("ArcFace", res.Model)
	s.Equal(int64(1250), res.ProcessingTimeMs)
}

func (s *ClientSuite) TestDetectLivenessDefaultsChallenge() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		var req livenessRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal(DefaultChallengeType, req.ChallengeType)
		s.Len(req.Frames, 2)
		writeJSON(w, http.StatusOK, map[string]any{
			"liveness":      map[string]any{"is_live": false, "confidence": 0.4, "challenge_completed": false, "challenge_type": "blink"},
			"anti_spoofing": map[string]any{"is_real_face": true, "spoof_type_detected": nil, "confidence": 0.96},
		})
	}

	res, err := s.newClient().DetectLiveness(context.Background(), []string{"f1", "f2"}, "")
	s.Require().NoError(err)
	s.False(res.IsLive)
	s.True(res.IsRealFace)
	s.Nil(res.SpoofType)
}

func (s *ClientSuite) TestExtractOCRKeepsMissingConfidencesNil() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"extracted_data":    map[string]any{"full_name": "John Doe", "nationality": "United States"},
			"confidence_scores": map[string]any{"full_name": 0.98, "nationality": 0.97},
			"document_quality":  map[string]any{"overall_score": 0.92, "issues": []string{}},
		})
	}

	res, err := s.newClient().ExtractOCR(context.Background(), "img", "passport")
	s.Require().NoError(err)
	s.Equal("John Doe", res.Fields.FullName)
	s.Require().NotNil(res.Confidence.FullName)
	s.Nil(res.Confidence.DateOfBirth)
	s.Require().NotNil(res.QualityScore)
}

func (s *ClientSuite) TestRetries() {
	s.Run("bad input is not retried", func() {
		s.calls.Store(0)
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Image is required"})
		}
		_, err := s.newClient().ExtractOCR(context.Background(), "", "passport")
		s.Require().Error(err)
		s.Equal(ErrorBadData, CategoryOf(err))
		s.Contains(err.Error(), "Image is required")
		s.Equal(int32(1), s.calls.Load())
	})

	s.Run("outage is retried until success", func() {
		s.calls.Store(0)
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			if s.calls.Load() < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"verification": map[string]any{"match": true, "confidence": 0.9}})
		}
		res, err := s.newClient().VerifyFace(context.Background(), "a", "b")
		s.Require().NoError(err)
		s.True(res.Match)
		s.Equal(int32(3), s.calls.Load())
	})

	s.Run("gives up after max retries", func() {
		s.calls.Store(0)
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}
		_, err := s.newClient().VerifyFace(context.Background(), "a", "b")
		s.Require().Error(err)
		s.True(IsRetryable(err))
		s.Equal(int32(3), s.calls.Load())
	})
}

func (s *ClientSuite) TestBreakerOpensOnOutage() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	breaker := circuit.New("oracle", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	client := s.newClient(WithBreaker(breaker), WithBackoff(BackoffConfig{InitialDelay: time.Millisecond, MaxRetries: 0}))

	for range 2 {
		_, err := client.VerifyFace(context.Background(), "a", "b")
		s.Require().Error(err)
	}
	s.Equal(circuit.StateOpen, breaker.State())

	_, err := client.VerifyFace(context.Background(), "a", "b")
	s.Equal(ErrorCircuitOpen, CategoryOf(err))
	s.Equal(int32(2), s.calls.Load())
}
