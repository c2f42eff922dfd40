package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"shopapi/internal/auth"
	"shopapi/internal/cart"
	"shopapi/internal/catalog"
	"shopapi/internal/config"
	"shopapi/internal/database"
	"shopapi/internal/handlers"
	"shopapi/internal/logging"
	"shopapi/internal/mail"
	"shopapi/internal/middleware"
	"shopapi/internal/otp"
)

const sweepInterval = time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("mongodb connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", "error", err)
		}
	}()
	if err := database.EnsureIndexes(ctx, client, cfg.MongoDB); err != nil {
		logger.Error("index creation failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	var limiter *middleware.RateLimiter
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		limiter = middleware.NewRateLimiter(rdb, logger)
	}

	mailer, err := mail.New(cfg, logger)
	if err != nil {
		logger.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	codes := otp.NewService(otp.NewMongoStore(database.Codes(client, cfg.MongoDB)), mailer, logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL, logger)
	accounts := auth.NewService(auth.NewMongoUserStore(database.Users(client, cfg.MongoDB)), tokens, cfg.MailFromName, logger)
	products := catalog.NewMongoStore(database.Products(client, cfg.MongoDB))
	catalogSvc := catalog.NewService(products, logger)
	cartSvc := cart.NewService(cart.NewMongoStore(database.Carts(client, cfg.MongoDB)), products, logger)

	router := handlers.Router(
		handlers.NewAuthHandler(accounts, codes, logger),
		handlers.NewProductHandler(catalogSvc, logger),
		handlers.NewCartHandler(cartSvc, logger),
		middleware.NewAuth(accounts),
		limiter,
		logger,
	)

	cors := gorilla.CORS(
		gorilla.AllowedOrigins(cfg.AllowedOrigins),
		gorilla.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
	)
	handler := gorilla.LoggingHandler(os.Stdout, cors(router))

	srv := &http.Server{
		Handler:      handler,
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired codes are swept hourly; the Mongo TTL index is the backstop.
	sweepStop := make(chan struct{})
	go codes.RunSweeper(context.Background(), sweepInterval, sweepStop)

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	close(sweepStop)
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited gracefully")
}
