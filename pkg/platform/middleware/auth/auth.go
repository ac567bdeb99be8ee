package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "verifyx/pkg/domain"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/requestcontext"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims the middleware needs from a validated token.
type JWTClaims struct {
	UserID        string
	WalletAddress string
	JTI           string
}

// parsedClaims holds the typed values parsed from JWT claims.
type parsedClaims struct {
	UserID id.UserID
	Wallet id.WalletAddress
}

// parseClaims converts string claims to typed IDs.
// The wallet claim is optional; tokens minted before wallet binding carry only a user ID.
func parseClaims(claims *JWTClaims) (*parsedClaims, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}

	var wallet id.WalletAddress
	if claims.WalletAddress != "" {
		wallet, err = id.ParseWalletAddress(claims.WalletAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet_address: %w", err)
		}
	}

	return &parsedClaims{UserID: userID, Wallet: wallet}, nil
}

func unauthorized(w http.ResponseWriter, desc string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
		Error:       "unauthorized",
		Description: desc,
	})
}

// RequireAuth returns middleware that validates bearer tokens and stores the
// caller's user ID and wallet address in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			parsed, err := parseClaims(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed token claims",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithUserID(ctx, parsed.UserID)
			if !parsed.Wallet.IsNil() {
				ctx = requestcontext.WithWalletAddress(ctx, parsed.Wallet)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
