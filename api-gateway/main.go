package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yashrajoria/storefront/api-gateway/routes"
	"github.com/yashrajoria/storefront/api-gateway/utils"
	"github.com/yashrajoria/storefront/services/common/logger"
	commonmw "github.com/yashrajoria/storefront/services/common/middleware"
	"go.uber.org/zap"
)

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	zl, err := logger.Initialize(os.Getenv("ENV"), "api-gateway")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orders, err := utils.NewForwarder(getEnv("ORDER_SERVICE_URL", "http://order-service:8083"), 35*time.Second)
	if err != nil {
		zl.Fatal("Invalid ORDER_SERVICE_URL", zap.Error(err))
	}
	payments, err := utils.NewForwarder(getEnv("PAYMENT_SERVICE_URL", "http://payment-service:8087"), 35*time.Second)
	if err != nil {
		zl.Fatal("Invalid PAYMENT_SERVICE_URL", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(commonmw.RequestID())
	r.Use(commonmw.RequestLogger(zl))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")))

	routes.RegisterAllRoutes(r, orders, payments)

	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("API Gateway listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Gateway forced to shutdown", zap.Error(err))
	}
}
