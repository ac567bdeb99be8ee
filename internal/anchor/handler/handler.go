package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verifyx/internal/anchor/models"
	"verifyx/internal/anchor/registry"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/requestcontext"
)

// Service defines the DID operations exposed over HTTP.
type Service interface {
	Prepare(ctx context.Context, userID id.UserID, publicKey string) (*registry.PreparedTx, error)
	Confirm(ctx context.Context, userID id.UserID, txHash string) (*models.Registration, error)
	PrepareUpdate(ctx context.Context, userID id.UserID, newPublicKey string) (*registry.PreparedTx, error)
	PrepareDeactivate(ctx context.Context, userID id.UserID) (*registry.PreparedTx, error)
	Lookup(ctx context.Context, address string) (*models.Document, error)
	Check(ctx context.Context, address string) (*models.Check, error)
	Status(ctx context.Context) registry.NetworkStatus
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated registry reads.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/api/v1/did/status", h.HandleStatus)
	r.Get("/api/v1/did/check/{address}", h.HandleCheck)
	r.Get("/api/v1/did/{address}", h.HandleLookup)
}

// Register mounts the holder routes. The router is expected to carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/did/register", h.HandleRegister)
	r.Post("/api/v1/did/confirm-registration", h.HandleConfirm)
	r.Put("/api/v1/did/update", h.HandleUpdate)
	r.Delete("/api/v1/did/deactivate", h.HandleDeactivate)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Status(r.Context()))
}

func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Check(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.logFailure(r.Context(), "failed to check DID", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Lookup(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.logFailure(r.Context(), "failed to resolve DID", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
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

	tx, err := h.service.Prepare(ctx, userID, req.PublicKey)
	if err != nil {
		h.logFailure(ctx, "failed to prepare DID registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

// HandleConfirm answers 202 with confirmed=false while the transaction is
// pending so wallets can poll.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.ConfirmRequest](w, r, h.logger)
	if !ok {
		return
	}

	reg, err := h.service.Confirm(ctx, userID, req.TxHash)
	if dErrors.HasCode(err, dErrors.CodeNotYetConfirmed) {
		httputil.WriteJSON(w, http.StatusAccepted, &ConfirmResponse{Confirmed: false, Message: "DID not found on blockchain, the transaction may be pending"})
		return
	}
	if err != nil {
		h.logFailure(ctx, "failed to confirm DID registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ConfirmResponse{Confirmed: true, DID: reg})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	tx, err := h.service.PrepareUpdate(ctx, userID, req.NewPublicKey)
	if err != nil {
		h.logFailure(ctx, "failed to prepare DID update", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, err := h.service.PrepareDeactivate(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to prepare DID deactivation", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DeactivateResponse{
		Warning:     "deactivation is irreversible",
		Transaction: tx,
	})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
}

type ConfirmResponse struct {
	Confirmed bool                 `json:"confirmed"`
	Message   string               `json:"message,omitempty"`
	DID       *models.Registration `json:"did,omitempty"`
}

type DeactivateResponse struct {
	Warning     string               `json:"warning"`
	Transaction *registry.PreparedTx `json:"transaction"`
}
