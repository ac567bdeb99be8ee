// Package oracle is the HTTP client for the AI scoring service that runs face
// matching, liveness detection and document OCR.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"verifyx/pkg/platform/circuit"
	"verifyx/pkg/platform/tracer"
)

// maxResponseBytes bounds oracle response bodies.
const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BackoffConfig configures retries for retryable failures.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
	Multiplier   float64
}

type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
	breaker *circuit.Breaker
	tracer  tracer.Tracer
	metrics *Metrics
	backoff BackoffConfig
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithBackoff(cfg BackoffConfig) Option {
	return func(c *Client) {
		c.backoff = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the oracle at baseURL. The default HTTP client
// times out after 30s; retries use 100ms doubling up to 2s, twice.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backoff.InitialDelay <= 0 {
		c.backoff.InitialDelay = 100 * time.Millisecond
	}
	if c.backoff.MaxDelay <= 0 {
		c.backoff.MaxDelay = 2 * time.Second
	}
	if c.backoff.MaxRetries < 0 {
		c.backoff.MaxRetries = 0
	}
	if c.backoff.Multiplier <= 1 {
		c.backoff.Multiplier = 2.0
	}
	return c
}

// VerifyFace compares the document photo with a selfie. Images are base64.
func (c *Client) VerifyFace(ctx context.Context, documentImage, selfieImage string) (*FaceResult, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanOracleFace)
	var resp faceResponse
	err := c.call(ctx, CheckFace, "/api/v1/face/verify", faceRequest{
		DocumentImage: documentImage,
		SelfieImage:   selfieImage,
	}, &resp)
	span.End(err)
	if err != nil {
		return nil, err
	}
	return &FaceResult{
		Match:            resp.Verification.Match,
		Confidence:       resp.Verification.Confidence,
		Threshold:        resp.Verification.Threshold,
		Model:            resp.Verification.Model,
		DistanceMetric:   resp.Verification.DistanceMetric,
		ProcessingTimeMs: resp.ProcessingTimeMs,
	}, nil
}

// DetectLiveness runs the liveness challenge over captured frames.
func (c *Client) DetectLiveness(ctx context.Context, frames []string, challengeType string) (*LivenessResult, error) {
	if challengeType == "" {
		challengeType = DefaultChallengeType
	}
	ctx, span := c.tracer.Start(ctx, tracer.SpanOracleLiveness)
	var resp livenessResponse
	err := c.call(ctx, CheckLiveness, "/api/v1/liveness/detect", livenessRequest{
		Frames:        frames,
		ChallengeType: challengeType,
	}, &resp)
	span.End(err)
	if err != nil {
		return nil, err
	}
	return &LivenessResult{
		IsLive:              resp.Liveness.IsLive,
		Confidence:          resp.Liveness.Confidence,
		ChallengeCompleted:  resp.Liveness.ChallengeCompleted,
		ChallengeType:       resp.Liveness.ChallengeType,
		IsRealFace:          resp.AntiSpoofing.IsRealFace,
		SpoofType:           resp.AntiSpoofing.SpoofTypeDetected,
		AntiSpoofConfidence: resp.AntiSpoofing.Confidence,
		ProcessingTimeMs:    resp.ProcessingTimeMs,
	}, nil
}

// ExtractOCR reads the document's text fields.
func (c *Client) ExtractOCR(ctx context.Context, image, documentType string) (*OCRResult, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanOracleOCR)
	var resp ocrResponse
	err := c.call(ctx, CheckOCR, "/api/v1/ocr/extract", ocrRequest{
		Image:        image,
		DocumentType: documentType,
	}, &resp)
	span.End(err)
	if err != nil {
		return nil, err
	}
	return &OCRResult{
		Fields:           resp.ExtractedData,
		Confidence:       resp.ConfidenceScores,
		QualityScore:     resp.DocumentQuality.OverallScore,
		QualityIssues:    resp.DocumentQuality.Issues,
		ProcessingTimeMs: resp.ProcessingTimeMs,
	}, nil
}

// Health reports whether the oracle answers GET /health with 200.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return NewCheckError(ErrorOutage, "health", "health check failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewCheckError(ErrorOutage, "health", fmt.Sprintf("unhealthy status: %d", resp.StatusCode), nil)
	}
	return nil
}

// call POSTs body to path with exponential backoff on retryable failures.
func (c *Client) call(ctx context.Context, check Check, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewCheckError(ErrorBadData, check, "failed to marshal request", err)
	}

	delay := c.backoff.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= c.backoff.MaxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.retry(check)
			select {
			case <-ctx.Done():
				return NewCheckError(ErrorTimeout, check, "cancelled while waiting to retry", ctx.Err())
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoff.Multiplier)
			if delay > c.backoff.MaxDelay {
				delay = c.backoff.MaxDelay
			}
		}

		start := time.Now()
		lastErr = c.attempt(ctx, check, path, payload, out)
		c.metrics.observe(check, time.Since(start).Seconds(), lastErr)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		c.logger.WarnContext(ctx, "oracle call failed, retrying",
			"check", string(check),
			"attempt", attempt+1,
			"error", lastErr,
		)
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, check Check, path string, payload []byte, out any) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return NewCheckError(ErrorCircuitOpen, check, "oracle circuit open", nil)
	}
	err := c.do(ctx, check, path, payload, out)
	if c.breaker != nil {
		// Only upstream health trips the breaker; bad input does not.
		if err != nil && IsRetryable(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, check Check, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewCheckError(ErrorInternal, check, "failed to create request", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return NewCheckError(ErrorTimeout, check, "request timeout", err)
		}
		return NewCheckError(ErrorOutage, check, "failed to execute request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return NewCheckError(ErrorBadData, check, "failed to read response", err)
	}

	if cerr := classifyStatus(check, resp.StatusCode, data); cerr != nil {
		return cerr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewCheckError(ErrorBadData, check, "failed to parse response", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// classifyStatus maps non-2xx responses to a CheckError carrying the
// oracle's own error message when it sent one.
func classifyStatus(check Check, status int, body []byte) *CheckError {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := upstreamMessage(body)

	var cerr *CheckError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		cerr = NewCheckError(ErrorAuthentication, check, fmt.Sprintf("authentication failed: %d", status), nil)
	case status == http.StatusTooManyRequests:
		cerr = NewCheckError(ErrorRateLimited, check, "rate limit exceeded", nil)
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		cerr = NewCheckError(ErrorTimeout, check, fmt.Sprintf("upstream timeout: %d", status), nil)
	case status >= 500:
		cerr = NewCheckError(ErrorOutage, check, fmt.Sprintf("oracle unavailable: %d", status), nil)
	default:
		cerr = NewCheckError(ErrorBadData, check, fmt.Sprintf("rejected input: %d", status), nil)
	}
	if msg != "" {
		cerr.Message += ": " + msg
	}
	cerr.StatusCode = status
	return cerr
}

func upstreamMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}
