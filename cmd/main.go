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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/events"
	"github.com/quickbites/order-service/internal/handler"
	"github.com/quickbites/order-service/internal/payment"
	"github.com/quickbites/order-service/internal/repository"
	"github.com/quickbites/order-service/internal/service"
	"github.com/quickbites/order-service/internal/store"
	"github.com/quickbites/order-service/internal/store/dynamo"
	"github.com/quickbites/order-service/internal/store/memory"
	"github.com/quickbites/order-service/pkg/config"
	"github.com/quickbites/order-service/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("currency", cfg.Currency))

	docStore, err := newStore(cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize store:", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic, logger)
	defer producer.Close()

	var gatewayOpts []payment.StripeOption
	if cfg.StripeAPIBase != "" {
		gatewayOpts = append(gatewayOpts, payment.WithBaseURL(cfg.StripeAPIBase))
	}
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, gatewayOpts...)

	orderRepo := repository.NewOrderRepository(docStore)
	menuRepo := repository.NewMenuRepository(docStore)
	loyaltyRepo := repository.NewLoyaltyRepository(docStore)

	orderService := service.NewOrderService(orderRepo, producer, logger)
	loyaltyService := service.NewLoyaltyService(loyaltyRepo, menuRepo, producer, logger)
	checkoutService := service.NewCheckoutService(orderService, loyaltyService, menuRepo, gateway, producer, cfg.Currency, logger)

	orderHandler := handler.NewOrderHandler(checkoutService, orderService, logger)
	rewardsHandler := handler.NewRewardsHandler(loyaltyService, logger)
	menuHandler := handler.NewMenuHandler(menuRepo, logger)
	webhookHandler := handler.NewWebhookHandler(checkoutService, cfg.StripeWebhookSecret, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "order-service",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The provider authenticates by signature, not bearer token.
	router.POST("/webhooks/stripe", webhookHandler.HandleEvent)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret))
	{
		v1.GET("/menu", menuHandler.List)
		v1.GET("/menu/featured", menuHandler.Featured)
		v1.GET("/menu/categories", menuHandler.Categories)
		v1.GET("/menu/:id", menuHandler.GetItem)
		v1.GET("/offers", menuHandler.Offers)

		v1.POST("/checkout", orderHandler.Checkout)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.POST("/orders/:id/confirm", orderHandler.ConfirmOrder)
		v1.POST("/orders/:id/reorder", orderHandler.Reorder)

		v1.GET("/rewards/balance", rewardsHandler.Balance)
		v1.GET("/rewards/transactions", rewardsHandler.Transactions)
		v1.GET("/rewards/items", rewardsHandler.RedeemableItems)
		v1.GET("/rewards/redemptions", rewardsHandler.Redemptions)
		v1.POST("/rewards/redemptions", rewardsHandler.Redeem)
		v1.DELETE("/rewards/redemptions/:id", rewardsHandler.CancelRedemption)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using in-memory store, data will not survive a restart")
		return memory.New(), nil
	default:
		client, err := dynamo.NewClient(context.Background(), cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		return dynamo.New(client, cfg.TableName), nil
	}
}
