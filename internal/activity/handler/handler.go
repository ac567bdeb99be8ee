package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verifyx/internal/activity/projector"
	id "verifyx/pkg/domain"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/requestcontext"
)

// Service produces the activity feed.
type Service interface {
	Feed(ctx context.Context, userID id.UserID) (*projector.Feed, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the feed route. The router is expected to carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/activity", h.HandleFeed)
}

func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	feed, err := h.service.Feed(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build activity feed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feed)
}
