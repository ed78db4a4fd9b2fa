package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/auth"
	"github.com/markjakearzadon/eduplus-gobackend/internal/config"
	"github.com/markjakearzadon/eduplus-gobackend/internal/db"
	"github.com/markjakearzadon/eduplus-gobackend/internal/handlers"
	"github.com/markjakearzadon/eduplus-gobackend/internal/logger"
	"github.com/markjakearzadon/eduplus-gobackend/internal/middleware"
	"github.com/markjakearzadon/eduplus-gobackend/internal/services"
)

func main() {
	dotenv := config.LoadDotEnv()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if !dotenv {
		log.Info("no .env file found; relying on existing environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Warn("disconnect MongoDB", zap.Error(err))
		}
	}()
	log.Info("connected to MongoDB", zap.String("database", cfg.Database))

	database := client.Database(cfg.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatal("ensure indexes", zap.Error(err))
	}

	userService := services.NewUserService(database, log)
	tuitionService := services.NewTuitionService(database, log)
	applicationService := services.NewApplicationService(database, log)
	paymentService := services.NewPaymentService(database, log)
	stripeService := services.NewStripeService(cfg.StripeSecretKey, services.StripeAPIURL,
		config.NewCircuitBreaker("stripe", log), log)

	verifier := auth.NewFirebaseVerifier(cfg.FirebaseProjectID, auth.GoogleCertsURL, nil,
		config.NewCircuitBreaker("google-certs", log))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := handlers.NewRouter(handlers.Deps{
		Users:        userService,
		Tuitions:     tuitionService,
		Applications: applicationService,
		Payments:     paymentService,
		Checkout:     stripeService,
		Auth:         middleware.NewAuthenticator(verifier, userService, log),
		Metrics:      middleware.NewMetrics(reg),
		Gatherer:     reg,
		Ping:         func(ctx context.Context) error { return db.Ping(ctx, client) },
		ClientURL:    cfg.ClientURL(),
		MaxPageLimit: cfg.MaxPageLimit,
		Log:          log,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           middleware.CORS(cfg.ClientOrigins, router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("eduPlus server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
