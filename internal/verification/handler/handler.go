package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/platform/middleware/metadata"
	"verifyx/pkg/requestcontext"
)

// Service defines the verification session operations exposed over HTTP.
type Service interface {
	Start(ctx context.Context, userID id.UserID, documentID id.DocumentID, meta models.Metadata) (*models.Session, error)
	Active(ctx context.Context, userID id.UserID) (*models.Session, error)
	Get(ctx context.Context, userID id.UserID, sessionID id.VerificationID) (*models.Session, error)
	UpdateStep(ctx context.Context, userID id.UserID, sessionID id.VerificationID, step models.StepName, status models.StepStatus) (*models.Session, error)
	AddError(ctx context.Context, userID id.UserID, sessionID id.VerificationID, step models.StepName, message string) (*models.Session, error)
	RunChecks(ctx context.Context, userID id.UserID, sessionID id.VerificationID, input models.ChecksInput) (*models.Session, error)
	Complete(ctx context.Context, userID id.UserID, sessionID id.VerificationID, scores models.Scores) (*models.Session, error)
	Cancel(ctx context.Context, userID id.UserID, sessionID id.VerificationID) (*models.Session, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes. The router is expected to carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/verifications", h.HandleStart)
	r.Get("/api/v1/verifications/active", h.HandleActive)
	r.Get("/api/v1/verifications/{id}", h.HandleGet)
	r.Put("/api/v1/verifications/{id}/steps/{step}", h.HandleUpdateStep)
	r.Post("/api/v1/verifications/{id}/errors", h.HandleAddError)
	r.Post("/api/v1/verifications/{id}/checks", h.HandleRunChecks)
	r.Post("/api/v1/verifications/{id}/complete", h.HandleComplete)
	r.Post("/api/v1/verifications/{id}/cancel", h.HandleCancel)
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.StartRequest](w, r, h.logger)
	if !ok {
		return
	}
	// Validate has already accepted the id.
	documentID, _ := id.ParseDocumentID(req.DocumentID)

	userAgent := requestcontext.UserAgent(ctx)
	meta := models.Metadata{
		IPAddress: requestcontext.ClientIP(ctx),
		UserAgent: userAgent,
		Device:    metadata.DeviceLabel(userAgent),
	}

	session, err := h.service.Start(ctx, userID, documentID, meta)
	if err != nil {
		h.logFailure(ctx, "failed to start verification session", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(session))
}

func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.Active(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, sessionID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(ctx, userID, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) HandleUpdateStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, sessionID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateStepRequest](w, r, h.logger)
	if !ok {
		return
	}
	step := models.StepName(chi.URLParam(r, "step"))

	session, err := h.service.UpdateStep(ctx, userID, sessionID, step, models.StepStatus(req.Status))
	if err != nil {
		h.logFailure(ctx, "failed to update verification step", err, "session_id", sessionID.String(), "step", string(step))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) HandleAddError(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, sessionID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.AddErrorRequest](w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.service.AddError(ctx, userID, sessionID, models.StepName(req.Step), req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) HandleRunChecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, sessionID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.ChecksInput](w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.service.RunChecks(ctx, userID, sessionID, *req)
	if err != nil {
		h.logFailure(ctx, "verification checks failed", err, "session_id", sessionID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, sessionID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.CompleteRequest](w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.service.Complete(ctx, userID, sessionID, req.Scores)
	if err != nil {
		h.logFailure(ctx, "failed to complete verification session", err, "session_id", sessionID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, sessionID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	session, err := h.service.Cancel(ctx, userID, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) requireTarget(w http.ResponseWriter, r *http.Request) (id.UserID, id.VerificationID, bool) {
	userID, err := httputil.RequireUserID(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.VerificationID{}, false
	}
	sessionID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verification id"))
		return id.UserID{}, id.VerificationID{}, false
	}
	return userID, sessionID, true
}

// logFailure logs unexpected failures at error level and expected refusals
// (conflicts, not found, validation) at warn level.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
}

// Response is the wire shape of a verification session.
type Response struct {
	ID                id.VerificationID     `json:"id"`
	DocumentID        id.DocumentID         `json:"documentId"`
	Status            models.Status         `json:"status"`
	Result            models.Result         `json:"result"`
	Steps             []models.Step         `json:"steps"`
	Scores            models.Scores         `json:"scores"`
	OverallConfidence *float64              `json:"overallConfidence"`
	Errors            []models.SessionError `json:"errors"`
	Credential        models.CredentialLink `json:"credential"`
	Metadata          models.Metadata       `json:"metadata"`
	CreatedAt         time.Time             `json:"createdAt"`
	StartedAt         time.Time             `json:"startedAt"`
	CompletedAt       *time.Time            `json:"completedAt,omitempty"`
	ExpiresAt         time.Time             `json:"expiresAt"`
}

func toResponse(s *models.Session) *Response {
	errs := s.Errors
	if errs == nil {
		errs = []models.SessionError{}
	}
	return &Response{
		ID:                s.ID,
		DocumentID:        s.DocumentID,
		Status:            s.Status,
		Result:            s.Result,
		Steps:             s.Steps,
		Scores:            s.Scores,
		OverallConfidence: s.OverallConfidence,
		Errors:            errs,
		Credential:        s.Credential,
		Metadata:          s.Metadata,
		CreatedAt:         s.CreatedAt,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		ExpiresAt:         s.ExpiresAt,
	}
}
