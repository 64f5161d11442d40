package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(id, role string) Claims {
	return Claims{
		ID:   id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParseToken(t *testing.T) {
	tok := signToken(t, jwt.SigningMethodHS256, secret, validClaims("user-1", RoleAdmin))

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestParseToken_Rejects(t *testing.T) {
	expired := validClaims("user-1", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims("user-1", "")), secret},
		{"expired", signToken(t, jwt.SigningMethodHS256, secret, expired), secret},
		{"no subject", signToken(t, jwt.SigningMethodHS256, secret, validClaims("", "")), secret},
		{"unsigned", signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims("user-1", "")), secret},
		{"no secret configured", signToken(t, jwt.SigningMethodHS256, secret, validClaims("user-1", "")), nil},
		{"garbage", "not.a.token", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestAuthenticateAndAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Authenticate(secret), func(c *gin.Context) {
		id, err := GetUserID(c)
		require.NoError(t, err)
		c.String(http.StatusOK, id)
	})
	r.GET("/admin", Authenticate(secret), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	userTok := signToken(t, jwt.SigningMethodHS256, secret, validClaims("user-1", ""))
	adminTok := signToken(t, jwt.SigningMethodHS256, secret, validClaims("admin-1", RoleAdmin))

	do := func(path string, header, value string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set(header, value)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("/me", "token", userTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	assert.Equal(t, http.StatusOK, do("/me", "Authorization", "Bearer "+userTok).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "Authorization", userTok).Code)
	assert.Equal(t, http.StatusForbidden, do("/admin", "token", userTok).Code)
	assert.Equal(t, http.StatusNoContent, do("/admin", "token", adminTok).Code)
}

func TestGetUserID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := GetUserID(c)
	assert.Error(t, err)
}
