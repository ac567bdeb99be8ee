package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	id "verifyx/pkg/domain"
	"verifyx/pkg/requestcontext"
)

const (
	testUserID = "550e8400-e29b-41d4-a716-446655440001"
	testWallet = "0xAbC0000000000000000000000000000000000DeF"
)

type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingHandler captures whether it was reached and with which context.
type recordingHandler struct {
	called bool
	ctx    context.Context
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockJWTValidator
	next      *recordingHandler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.next = &recordingHandler{}
}

func (s *AuthMiddlewareSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareSuite) serve(authHeader string) *httptest.ResponseRecorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credentials", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	RequireAuth(s.validator, logger)(s.next).ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestValidTokenPopulatesContext() {
	s.validator.On("ValidateToken", "good").Return(&JWTClaims{
		UserID:        testUserID,
		WalletAddress: testWallet,
		JTI:           "jti-1",
	}, nil)

	w := s.serve("Bearer good")

	s.Require().True(s.next.called)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(testUserID, requestcontext.UserID(s.next.ctx).String())
	s.Equal(id.WalletAddress("0xabc0000000000000000000000000000000000def"), requestcontext.WalletAddress(s.next.ctx))
}

func (s *AuthMiddlewareSuite) TestWalletClaimIsOptional() {
	s.validator.On("ValidateToken", "good").Return(&JWTClaims{UserID: testUserID}, nil)

	s.serve("Bearer good")

	s.Require().True(s.next.called)
	s.Empty(requestcontext.WalletAddress(s.next.ctx))
}

func (s *AuthMiddlewareSuite) TestMalformedClaimsRejected() {
	s.Run("bad user id", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "t").Return(&JWTClaims{UserID: "nope"}, nil)
		w := s.serve("Bearer t")
		s.False(s.next.called)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.JSONEq(`{"error":"unauthorized","error_description":"Invalid or expired token"}`, w.Body.String())
	})

	s.Run("bad wallet", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "t").Return(&JWTClaims{UserID: testUserID, WalletAddress: "0x12"}, nil)
		w := s.serve("Bearer t")
		s.False(s.next.called)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *AuthMiddlewareSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "expired").Return(nil, errors.New("token expired"))

	w := s.serve("Bearer expired")

	s.False(s.next.called)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("application/json", w.Header().Get("Content-Type"))
}

func (s *AuthMiddlewareSuite) TestMissingOrMalformedHeader() {
	for _, header := range []string{"", "token", "Basic dXNlcjpwYXNz", "bearer token", "Bearertoken"} {
		s.Run(header, func() {
			s.next = &recordingHandler{}
			w := s.serve(header)
			s.False(s.next.called)
			s.Equal(http.StatusUnauthorized, w.Code)
			s.JSONEq(`{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, w.Body.String())
		})
	}
}
