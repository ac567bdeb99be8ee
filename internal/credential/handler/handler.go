package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verifyx/internal/anchor/registry"
	"verifyx/internal/credential/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/requestcontext"
)

// Service defines the credential operations exposed over HTTP.
type Service interface {
	Issue(ctx context.Context, userID id.UserID, req *models.IssueRequest) (*models.Credential, error)
	List(ctx context.Context, userID id.UserID) ([]models.Listing, error)
	Get(ctx context.Context, userID id.UserID, credentialID string) (*models.Credential, error)
	Revoke(ctx context.Context, userID id.UserID, credentialID string, req *models.RevokeRequest) (*models.Credential, error)
	Share(ctx context.Context, userID id.UserID, credentialID string) (*models.ShareResult, error)
	VerifyByHash(ctx context.Context, hash string) (*models.VerifyResult, error)
	PrepareAnchor(ctx context.Context, userID id.UserID, credentialID string) (*registry.PreparedTx, error)
	ConfirmAnchor(ctx context.Context, userID id.UserID, credentialID, txHash string) (*models.Credential, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the holder routes. The router is expected to carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/credentials", h.HandleIssue)
	r.Get("/api/v1/credentials", h.HandleList)
	r.Get("/api/v1/credentials/{id}", h.HandleGet)
	r.Put("/api/v1/credentials/{id}/revoke", h.HandleRevoke)
	r.Post("/api/v1/credentials/{id}/share", h.HandleShare)
	r.Post("/api/v1/credentials/{id}/anchor", h.HandlePrepareAnchor)
	r.Post("/api/v1/credentials/{id}/anchor/confirm", h.HandleConfirmAnchor)
}

// RegisterPublic mounts the unauthenticated hash lookup.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/api/v1/credentials/verify/{hash}", h.HandleVerify)
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.IssueRequest](w, r, h.logger)
	if !ok {
		return
	}

	cred, err := h.service.Issue(ctx, userID, req)
	if err != nil {
		h.logFailure(ctx, "failed to issue credential", err, "verification_id", req.VerificationID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(cred, requestcontext.Now(ctx)))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.List(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to list credentials", err)
		httputil.WriteError(w, err)
		return
	}
	now := requestcontext.Now(ctx)
	out := make([]*Response, 0, len(listing))
	for _, l := range listing {
		out = append(out, toResponse(l.Credential, now))
	}
	httputil.WriteJSON(w, http.StatusOK, &ListResponse{Credentials: out, Count: len(out)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, credentialID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	cred, err := h.service.Get(ctx, userID, credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(cred, requestcontext.Now(ctx)))
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, credentialID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	// The reason is optional, so an empty body is accepted.
	req := &models.RevokeRequest{}
	if r.ContentLength != 0 {
		if req, ok = httputil.DecodeAndPrepare[models.RevokeRequest](w, r, h.logger); !ok {
			return
		}
	} else if err := httputil.PrepareRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cred, err := h.service.Revoke(ctx, userID, credentialID, req)
	if err != nil {
		h.logFailure(ctx, "failed to revoke credential", err, "credential_id", credentialID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(cred, requestcontext.Now(ctx)))
}

func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, credentialID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	res, err := h.service.Share(ctx, userID, credentialID)
	if err != nil {
		h.logFailure(ctx, "failed to share credential", err, "credential_id", credentialID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.VerifyByHash(ctx, chi.URLParam(r, "hash"))
	if err != nil {
		h.logFailure(ctx, "credential verification failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandlePrepareAnchor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, credentialID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	tx, err := h.service.PrepareAnchor(ctx, userID, credentialID)
	if err != nil {
		h.logFailure(ctx, "failed to prepare credential anchor", err, "credential_id", credentialID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) HandleConfirmAnchor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, credentialID, ok := h.requireTarget(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.ConfirmAnchorRequest](w, r, h.logger)
	if !ok {
		return
	}

	cred, err := h.service.ConfirmAnchor(ctx, userID, credentialID, req.TxHash)
	if dErrors.HasCode(err, dErrors.CodeNotYetConfirmed) {
		httputil.WriteJSON(w, http.StatusAccepted, &ConfirmResponse{Confirmed: false, Message: "transaction is not confirmed yet, retry later"})
		return
	}
	if err != nil {
		h.logFailure(ctx, "failed to confirm credential anchor", err, "credential_id", credentialID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ConfirmResponse{Confirmed: true, Credential: toResponse(cred, requestcontext.Now(ctx))})
}

func (h *Handler) requireTarget(w http.ResponseWriter, r *http.Request) (id.UserID, string, bool) {
	userID, err := httputil.RequireUserID(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, "", false
	}
	credentialID := chi.URLParam(r, "id")
	if credentialID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "credential id is required"))
		return id.UserID{}, "", false
	}
	return userID, credentialID, true
}

// logFailure logs unexpected failures at error level and expected refusals
// at warn level.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout, dErrors.CodeIntegrity:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
}

// Response is the holder's view of a credential. It carries every claim;
// the disclosure set only limits what verifiers see.
type Response struct {
	ID             string            `json:"credentialId"`
	Type           models.Type       `json:"type"`
	Hash           string            `json:"credentialHash"`
	HashAlgorithm  string            `json:"hashAlgorithm"`
	Issuer         models.Issuer     `json:"issuer"`
	SubjectDID     string            `json:"subjectDid"`
	VerificationID id.VerificationID `json:"verificationId"`
	Claims         models.Claims     `json:"claims"`
	IncludedClaims []models.ClaimKey `json:"includedClaims"`
	Status         models.Status     `json:"status"`
	Valid          bool              `json:"isValid"`
	IssuedAt       time.Time         `json:"issuedAt"`
	ExpiresAt      time.Time         `json:"expiresAt"`
	Revocation     *Revocation       `json:"revocation,omitempty"`
	Usage          Usage             `json:"usage"`
	Blockchain     Blockchain        `json:"blockchain"`
	Proof          *models.Proof     `json:"proof,omitempty"`
}

type Revocation struct {
	RevokedAt *time.Time `json:"revokedAt"`
	Reason    string     `json:"reason"`
}

type Usage struct {
	ShareCount     int        `json:"shareCount"`
	VerifyCount    int        `json:"verificationCount"`
	LastSharedAt   *time.Time `json:"lastSharedAt,omitempty"`
	LastVerifiedAt *time.Time `json:"lastVerifiedAt,omitempty"`
}

type Blockchain struct {
	Stored          bool       `json:"stored"`
	TxHash          string     `json:"txHash,omitempty"`
	BlockNumber     *uint64    `json:"blockNumber,omitempty"`
	Network         string     `json:"network,omitempty"`
	ContractAddress string     `json:"contractAddress,omitempty"`
	StoredAt        *time.Time `json:"storedAt,omitempty"`
}

type ListResponse struct {
	Credentials []*Response `json:"credentials"`
	Count       int         `json:"count"`
}

type ConfirmResponse struct {
	Confirmed  bool      `json:"confirmed"`
	Message    string    `json:"message,omitempty"`
	Credential *Response `json:"credential,omitempty"`
}

func toResponse(c *models.Credential, now time.Time) *Response {
	resp := &Response{
		ID:             c.ID,
		Type:           c.Type,
		Hash:           c.Hash,
		HashAlgorithm:  c.HashAlgorithm,
		Issuer:         c.Issuer,
		SubjectDID:     c.Subject.DID,
		VerificationID: c.VerificationID,
		Claims:         c.Claims,
		IncludedClaims: c.IncludedClaims,
		Status:         c.EffectiveStatus(now),
		Valid:          c.IsValid(now),
		IssuedAt:       c.IssuedAt,
		ExpiresAt:      c.ExpiresAt,
		Usage: Usage{
			ShareCount:     c.Usage.ShareCount,
			VerifyCount:    c.Usage.VerifyCount,
			LastSharedAt:   c.Usage.LastSharedAt,
			LastVerifiedAt: c.Usage.LastVerifiedAt,
		},
		Blockchain: Blockchain{
			Stored:          c.Blockchain.Stored,
			TxHash:          c.Blockchain.TxHash,
			BlockNumber:     c.Blockchain.BlockNumber,
			Network:         c.Blockchain.Network,
			ContractAddress: c.Blockchain.ContractAddress,
			StoredAt:        c.Blockchain.StoredAt,
		},
		Proof: c.Proof,
	}
	if c.Revocation.RevokedAt != nil {
		resp.Revocation = &Revocation{RevokedAt: c.Revocation.RevokedAt, Reason: c.Revocation.Reason}
	}
	return resp
}
