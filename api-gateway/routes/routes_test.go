package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront/api-gateway/utils"
)

func backend(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Backend", name)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(r.Method + " " + r.URL.RequestURI() + " " + r.Header.Get("token") + " " + string(body)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, ordersURL, paymentsURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	orders, err := utils.NewForwarder(ordersURL, time.Second)
	require.NoError(t, err)
	payments, err := utils.NewForwarder(paymentsURL, time.Second)
	require.NoError(t, err)

	r := gin.New()
	RegisterAllRoutes(r, orders, payments)
	return r
}

func TestGateway_Forwards(t *testing.T) {
	orderSrv, paymentSrv := backend(t, "orders"), backend(t, "payments")
	r := newGateway(t, orderSrv.URL, paymentSrv.URL)

	tests := []struct {
		method  string
		path    string
		backend string
	}{
		{http.MethodPost, "/api/order/place", "orders"},
		{http.MethodPost, "/api/cart/get", "orders"},
		{http.MethodGet, "/payments/order/665000000000000000000001?x=1", "payments"},
		{http.MethodPost, "/stripe/webhook", "payments"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"a":1}`))
			req.Header.Set("token", "tok")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusAccepted, w.Code)
			assert.Equal(t, tt.backend, w.Header().Get("X-Backend"))
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.method+" "+tt.path+` tok {"a":1}`, w.Body.String())
		})
	}
}

func TestGateway_BackendDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	r := newGateway(t, down.URL, down.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/order/list", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Service unreachable")
}

func TestNewForwarder_InvalidURL(t *testing.T) {
	_, err := utils.NewForwarder("order-service:8083", time.Second)
	assert.Error(t, err)
}
