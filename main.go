package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"tourbook/internal/auth"
	"tourbook/internal/calls"
	calls_db "tourbook/internal/calls/db"
	"tourbook/internal/calls/calls_api"
	"tourbook/internal/config"
	"tourbook/internal/database"
	"tourbook/internal/database/migrations"
	"tourbook/internal/kafka"
	"tourbook/internal/logger"
	"tourbook/internal/middleware"
	"tourbook/internal/order"
	"tourbook/internal/order/db"
	"tourbook/internal/order/order_api"
	rediswrap "tourbook/internal/order/redis"
	"tourbook/internal/payment/gateway"
	"tourbook/internal/pricing"
	"tourbook/internal/profile"
	profile_db "tourbook/internal/profile/db"
	"tourbook/internal/profile/profile_api"
	"tourbook/internal/sse"
	"tourbook/internal/support"
	support_db "tourbook/internal/support/db"
	"tourbook/internal/support/ticket_api"
	"tourbook/internal/tours"
	"tourbook/internal/utils"
	"tourbook/internal/voucher"
)

func main() {
	envErr := godotenv.Load()

	logger := logger.NewLogger("booking-api")
	defer logger.Close()

	if envErr != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// --- Storage ---
	// Without a database the API still serves tours; stores stay nil and
	// their routes answer 503.
	var (
		orderStore   order.DBLayer
		ticketStore  support.TicketDBLayer
		callStore    calls.CallDBLayer
		profileStore profile.ProfileDBLayer
	)
	if bunDB, err := database.Shared(ctx, cfg.Database, logger); err != nil {
		logger.Error("DATABASE", fmt.Sprintf("Database unavailable: %v", err))
	} else {
		if cfg.Database.AutoMigrate {
			runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir, logger)
			if err := runner.Up(); err != nil {
				logger.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
			}
			if err := runner.Close(); err != nil {
				logger.Warn("DATABASE", fmt.Sprintf("Closing migrator: %v", err))
			}
		}
		orderStore = &db.DB{Bun: bunDB}
		ticketStore = &support_db.DB{Bun: bunDB}
		callStore = &calls_db.DB{Bun: bunDB}
		profileStore = &profile_db.DB{Bun: bunDB}
	}
	defer database.Close()

	// --- Catalog and pricing ---
	catalog, err := tours.Default()
	if err != nil {
		logger.Fatal("CONFIG", fmt.Sprintf("Tour catalog invalid: %v", err))
	}
	if catalog.Currency != cfg.Stripe.Currency {
		logger.Warn("CONFIG", fmt.Sprintf("Catalog currency %s differs from STRIPE_CURRENCY %s; catalog wins", catalog.Currency, cfg.Stripe.Currency))
	}

	// --- Payments ---
	var gw gateway.Gateway
	if stripeGateway, err := gateway.NewStripeGateway(cfg.Stripe, logger); err != nil {
		logger.Warn("STRIPE", fmt.Sprintf("Checkout disabled: %v", err))
	} else {
		gw = stripeGateway
	}

	// --- Kafka ---
	var publisher kafka.Publisher = kafka.NopPublisher{Log: logger}
	emitter := sse.NewOrderEventEmitter()
	sseHandler := order_api.NewSSEHandler(logger, emitter)
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics(), logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		publisher = kafka.NewProducer(cfg.Kafka.Brokers, logger)

		// every replica needs its own group so each SSE client sees every event
		hostname, _ := os.Hostname()
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicOrderPaid, cfg.Kafka.GroupID+"-"+hostname, logger)
		go consumer.Start(ctx, sseHandler.Emit)
		defer consumer.Close()
		logger.Info("KAFKA", "Kafka producer and order.paid consumer initialized")
	}
	defer publisher.Close()

	// --- Auth ---
	verifiers := auth.Chain{}
	if cfg.Auth.JWTSecret != "" {
		verifiers = append(verifiers, auth.NewJWTVerifier(cfg.Auth.JWTSecret))
	}
	if cfg.Auth.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
		if err != nil {
			logger.Error("AUTH", fmt.Sprintf("OIDC discovery failed for %s: %v", cfg.Auth.OIDCIssuer, err))
		} else {
			verifiers = append(verifiers, oidcVerifier)
		}
	}
	if len(verifiers) == 0 {
		logger.Warn("AUTH", "No token verifier configured; only the development override can authenticate")
	}
	var refresher auth.Refresher
	if cfg.Auth.ProviderURL != "" {
		refresher = auth.NewProviderRefresher(cfg.Auth.ProviderURL, cfg.Auth.APIKey)
	}
	resolver := auth.NewResolver(cfg.Auth, cfg.App, verifiers, refresher, logger)

	// --- Services ---
	lock := rediswrap.New(ctx, cfg.Redis.Addr, cfg.Redis.CheckoutLockTTL, logger)
	orderService := order.NewOrderService(orderStore, lock, publisher, pricing.NewAuthority(catalog), gw, catalog, logger)
	ticketService := support.NewTicketService(ticketStore, logger)
	callService := calls.NewCallService(callStore, cfg.Calls.MeetingBaseURL, logger)
	profileService := profile.NewProfileService(profileStore, ticketService, logger)

	var vouchers order_api.VoucherRenderer
	if generator, err := voucher.NewGenerator(cfg.Voucher.Secret); err != nil {
		logger.Warn("CONFIG", fmt.Sprintf("Vouchers disabled, set VOUCHER_SECRET: %v", err))
	} else {
		vouchers = generator
	}

	orderHandler := order_api.NewHandler(orderService, vouchers, logger)
	toursHandler := &order_api.ToursHandler{Catalog: catalog}
	ticketHandler := ticket_api.NewHandler(ticketService, logger)
	callHandler := calls_api.NewHandler(callService, logger)
	profileHandler := profile_api.NewHandler(profileService, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, logger)

	// --- Router ---
	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)
			logger.LogAPI(req.Method, req.URL.Path, ww.Status(), time.Since(start))
		})
	})

	// --- Public Routes ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/tours", toursHandler.Routes)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(resolver))
		r.Use(limiter.Middleware)
		r.Use(auth.RequireUser)

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/events", sseHandler.HandleOrderEvents)
			orderHandler.Routes(r)
		})
		r.Route("/api/support/tickets", ticketHandler.Routes)
		r.Route("/api/calls", callHandler.Routes)
		r.Route("/api/profile", profileHandler.Routes)
	})

	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: SSE streams stay open
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Booking API running on %s", cfg.Server.Port))
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
		logger.Info("HTTP", "Booking API shutdown complete")
	}
}
