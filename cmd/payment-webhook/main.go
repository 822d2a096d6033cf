package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tourbook/internal/config"
	"tourbook/internal/database"
	"tourbook/internal/kafka"
	"tourbook/internal/logger"
	"tourbook/internal/order/db"
	handlers "tourbook/internal/payment/handler"
	"tourbook/internal/payment/storage"
	"tourbook/internal/payment/webhook"
)

func main() {
	envErr := godotenv.Load()

	logger := logger.NewLogger("payment-webhook")
	defer logger.Close()

	if envErr != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// A missing database or secret still starts the process: the reconciler
	// answers 503 until configuration is fixed.
	var orders webhook.OrderStore
	var journal storage.Store
	if bunDB, err := database.Shared(ctx, cfg.Database, logger); err != nil {
		logger.Error("DATABASE", fmt.Sprintf("Order store unavailable: %v", err))
	} else {
		orders = &db.DB{Bun: bunDB}
		journal = storage.NewBunStore(bunDB, logger)
	}
	defer database.Close()

	var publisher kafka.Publisher = kafka.NopPublisher{Log: logger}
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics(), logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		publisher = kafka.NewProducer(cfg.Kafka.Brokers, logger)
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	}
	defer publisher.Close()

	reconciler := webhook.NewReconciler(cfg.Stripe.WebhookSecret, orders, journal, publisher, logger)
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("CONFIG", "STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be answered with 503")
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAPI(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})
	handlers.NewStripeHandler(reconciler, logger).Register(router)

	server := &http.Server{
		Addr:         cfg.Server.WebhookPort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Payment webhook running on %s", cfg.Server.WebhookPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Payment webhook shutdown complete")
	}
}
