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
	aws_pkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/logger"
	commonmw "github.com/yashrajoria/storefront/services/common/middleware"
	"github.com/yashrajoria/storefront/services/order-service/controllers"
	"github.com/yashrajoria/storefront/services/order-service/database"
	"github.com/yashrajoria/storefront/services/order-service/repository"
	"github.com/yashrajoria/storefront/services/order-service/routes"
	"github.com/yashrajoria/storefront/services/order-service/services"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "order-service"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var cwLogs *aws_pkg.CloudWatchLogsClient
	if awsErr == nil {
		if c, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err != nil {
			log.Printf("CloudWatch logs unavailable: %v", err)
		} else if c.IsEnabled() {
			cwLogs = c
		}
	}

	var zl *zap.Logger
	var err error
	if cwLogs != nil {
		zl, err = logger.InitializeWithWriter(os.Getenv("ENV"), serviceName, cwLogs)
	} else {
		zl, err = logger.Initialize(os.Getenv("ENV"), serviceName)
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if awsErr != nil {
		zl.Warn("AWS config unavailable, SNS/SQS/CloudWatch disabled", zap.Error(awsErr))
	}

	var secrets secretMapGetter
	if os.Getenv("AWS_USE_SECRETS") == "true" && awsErr == nil {
		secrets = aws_pkg.NewSecretsClient(awsCfg)
	}
	cfg, err := LoadConfig(ctx, secrets)
	if err != nil {
		zl.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(context.Background(), mongoClient) //nolint:errcheck

	orderRepo := repository.NewMongoOrderRepository(db)
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		zl.Warn("Failed to ensure order indexes", zap.Error(err))
	}
	userRepo := repository.NewMongoUserRepository(db)

	var idemRepo repository.IdempotencyRepository
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zl.Warn("Redis unavailable, Idempotency-Key support disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			idemRepo = repository.NewRedisIdempotencyRepository(redisClient)
		}
	}

	var checkout services.CheckoutProvider
	if cfg.StripeSecretKey != "" {
		checkout = services.NewStripeCheckout(cfg.StripeSecretKey)
	} else {
		zl.Warn("STRIPE_SECRET_KEY not set, online payment disabled")
	}

	var snsClient aws_pkg.SNSPublisher
	var metricsClient *aws_pkg.MetricsClient
	if awsErr == nil {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
		metricsClient = aws_pkg.NewMetricsClient(awsCfg)
	}

	orderService := services.NewOrderService(services.OrderServiceDeps{
		Orders:         orderRepo,
		Users:          userRepo,
		Idempotency:    idemRepo,
		Checkout:       checkout,
		SNS:            snsClient,
		TopicArn:       cfg.OrderSNSTopicARN,
		Metrics:        metricsClient,
		Rules:          cfg.PricingRules(),
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         zl,
	})
	cartService := services.NewCartService(userRepo, zl)

	if cfg.PaymentEventsQueueURL != "" && awsErr == nil {
		sqsConsumer := aws_pkg.NewSQSConsumer(awsCfg, cfg.PaymentEventsQueueURL, zl)
		go services.NewSQSPaymentConsumer(sqsConsumer, orderService, metricsClient, zl).Start(ctx)
	}

	limiter := commonmw.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)
	go limiter.RunSweeper(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(commonmw.RequestID())
	r.Use(commonmw.RequestLogger(zl))
	r.Use(commonmw.MetricsMiddleware(metricsClient, serviceName))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.RateLimitMiddleware(limiter))
	r.Use(commonmw.Timeout(30 * time.Second))

	routes.RegisterRoutes(r,
		controllers.NewOrderController(orderService),
		controllers.NewCartController(cartService),
		[]byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Order service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down order service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server exited cleanly")
}
