package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront/services/common/auth"
	"github.com/yashrajoria/storefront/services/order-service/controllers"
	"github.com/yashrajoria/storefront/services/order-service/models"
	"github.com/yashrajoria/storefront/services/order-service/services"
)

var secret = []byte("test-secret")

type stubOrders struct{ services.OrderService }

func (stubOrders) ListAllOrders(context.Context) ([]models.Order, *services.ServiceError) {
	return []models.Order{}, nil
}

func (stubOrders) ListUserOrders(context.Context, string) ([]models.Order, *services.ServiceError) {
	return []models.Order{}, nil
}

func (stubOrders) VerifyPayment(_ context.Context, _, _ string, success bool) (*services.VerifyResult, *services.ServiceError) {
	return &services.VerifyResult{Success: success}, nil
}

func sign(t *testing.T, id, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		ID:   id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r,
		controllers.NewOrderController(stubOrders{}),
		controllers.NewCartController(services.NewCartService(nil, nil)),
		secret)
	return r
}

func post(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	return postBody(r, path, "{}", headers)
}

func postBody(r http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_Auth(t *testing.T) {
	r := newRouter()
	userTok := sign(t, "665000000000000000000001", "")
	adminTok := sign(t, "665000000000000000000002", auth.RoleAdmin)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		code    int
	}{
		{"no token", "/api/order/userorders", nil, http.StatusUnauthorized},
		{"garbage token", "/api/order/userorders", map[string]string{"token": "nope"}, http.StatusUnauthorized},
		{"token header", "/api/order/userorders", map[string]string{"token": userTok}, http.StatusOK},
		{"bearer header", "/api/order/userorders", map[string]string{"Authorization": "Bearer " + userTok}, http.StatusOK},
		{"user on admin route", "/api/order/list", map[string]string{"token": userTok}, http.StatusForbidden},
		{"admin on admin route", "/api/order/list", map[string]string{"token": adminTok}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.path, tt.headers)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRoutes_Health(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_VerifyAliases(t *testing.T) {
	r := newRouter()
	userTok := sign(t, "665000000000000000000001", "")
	body := `{"txnid":"665000000000000000000009","status":"success"}`

	for _, path := range []string{"/api/order/verify", "/api/order/verifyPayU"} {
		t.Run(path, func(t *testing.T) {
			w := postBody(r, path, body, map[string]string{"token": userTok})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"success":true`)

			w = postBody(r, path, body, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
