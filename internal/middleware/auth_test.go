package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testIssuer   = "fintrack"
	testAudience = "fintrack-api"
)

func signToken(t *testing.T, secret, subject string, expiry time.Time) string {
	t.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	token, err := jwt.Signed(signer).Claims(jwt.Claims{
		Issuer:   testIssuer,
		Subject:  subject,
		Audience: jwt.Audience{testAudience},
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Expiry:   jwt.NewNumericDate(expiry),
	}).CompactSerialize()
	require.NoError(t, err)
	return token
}

func newTestAuth(t *testing.T) *AuthMiddleware {
	t.Helper()
	m, err := NewAuthMiddleware(testSecret, testIssuer, testAudience)
	require.NoError(t, err)
	return m
}

// runAuth sends req through Authenticate and returns the recorder and the
// owner the handler saw
func runAuth(t *testing.T, m *AuthMiddleware, req *http.Request) (*httptest.ResponseRecorder, uuid.UUID) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen uuid.UUID
	handler := m.Authenticate()(func(c echo.Context) error {
		seen = GetOwnerID(c)
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, handler(c))
	return rec, seen
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	ownerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, ownerID.String(), time.Now().Add(time.Hour)))

	rec, seen := runAuth(t, newTestAuth(t), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, ownerID, seen)
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	ownerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: signToken(t, testSecret, ownerID.String(), time.Now().Add(time.Hour))})

	rec, seen := runAuth(t, newTestAuth(t), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, ownerID, seen)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing token", "", "missing authentication token"},
		{"wrong scheme", "Basic abc", "invalid authorization header format"},
		{"empty bearer", "Bearer ", "invalid authorization header format"},
		{"garbage token", "Bearer not-a-jwt", "invalid token"},
		{"wrong secret", "Bearer " + signToken(t, "ffffffffffffffffffffffffffffffff", uuid.NewString(), time.Now().Add(time.Hour)), "invalid token"},
		{"expired", "Bearer " + signToken(t, testSecret, uuid.NewString(), time.Now().Add(-time.Hour)), "invalid token"},
		{"non uuid subject", "Bearer " + signToken(t, testSecret, "user-42", time.Now().Add(time.Hour)), "token subject is not a valid owner id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec, seen := runAuth(t, newTestAuth(t), req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, uuid.Nil, seen)

			var problem problemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, errorTypeUnauthorized, problem.Type)
			assert.Equal(t, tt.detail, problem.Detail)
			assert.Equal(t, "/api/v1/transactions/stats", problem.Instance)
		})
	}
}

func TestGetOwnerID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, uuid.Nil, GetOwnerID(c))
	_, err := RequireOwner(c)
	assert.Error(t, err)

	ownerID := uuid.New()
	ctx := context.WithValue(c.Request().Context(), OwnerIDKey, ownerID)
	c.SetRequest(c.Request().WithContext(ctx))

	assert.Equal(t, ownerID, GetOwnerID(c))
	got, err := RequireOwner(c)
	require.NoError(t, err)
	assert.Equal(t, ownerID, got)
}

func TestGetClaims(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Nil(t, GetClaims(c))

	claims := &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: "s"}}
	ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
	c.SetRequest(c.Request().WithContext(ctx))

	assert.Equal(t, claims, GetClaims(c))
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := CustomClaims{}
	assert.NoError(t, claims.Validate(context.Background()))
}
