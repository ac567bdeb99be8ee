package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verifyx/internal/document/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/requestcontext"
)

// Service defines the document operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, userID id.UserID, req *models.RegisterRequest) (*models.Document, error)
	List(ctx context.Context, userID id.UserID) ([]*models.Document, error)
	Get(ctx context.Context, userID id.UserID, documentID id.DocumentID) (*models.Document, error)
	Delete(ctx context.Context, userID id.UserID, documentID id.DocumentID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the document routes. The router is expected to carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/documents", h.HandleRegister)
	r.Get("/api/v1/documents", h.HandleList)
	r.Get("/api/v1/documents/{id}", h.HandleGet)
	r.Delete("/api/v1/documents/{id}", h.HandleDelete)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	doc, err := h.service.Register(ctx, userID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to register document",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toResponse(doc))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	docs, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*Response, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Documents: out, Count: len(out)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, documentID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Get(ctx, userID, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, documentID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, userID, documentID); err != nil {
		h.logger.WarnContext(ctx, "failed to delete document",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", documentID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireTarget(w http.ResponseWriter, r *http.Request) (id.UserID, id.DocumentID, bool) {
	userID, err := httputil.RequireUserID(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.DocumentID{}, false
	}
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return id.UserID{}, id.DocumentID{}, false
	}
	return userID, documentID, true
}

// Response is the wire shape of a document.
type Response struct {
	ID             id.DocumentID `json:"id"`
	DocumentType   string        `json:"documentType"`
	IssuingCountry string        `json:"issuingCountry,omitempty"`
	FileName       string        `json:"fileName"`
	MimeType       string        `json:"mimeType"`
	Size           int64         `json:"size"`
	IPFSHash       string        `json:"ipfsHash"`
	Verification   Verification  `json:"verification"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type Verification struct {
	Status          string     `json:"status"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	AIConfidence    *float64   `json:"aiConfidence,omitempty"`
}

type ListResponse struct {
	Documents []*Response `json:"documents"`
	Count     int         `json:"count"`
}

func toResponse(doc *models.Document) *Response {
	return &Response{
		ID:             doc.ID,
		DocumentType:   string(doc.Type),
		IssuingCountry: doc.IssuingCountry,
		FileName:       doc.FileName,
		MimeType:       doc.MimeType,
		Size:           doc.Size,
		IPFSHash:       doc.IPFSHash,
		Verification: Verification{
			Status:          string(doc.Verification.Status),
			VerifiedAt:      doc.Verification.VerifiedAt,
			RejectionReason: doc.Verification.RejectionReason,
			AIConfidence:    doc.Verification.AIConfidence,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
