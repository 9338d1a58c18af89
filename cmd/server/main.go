package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for token TTLs

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/mkarpik/storefront-api/internal/config"
	"github.com/mkarpik/storefront-api/internal/database"
	"github.com/mkarpik/storefront-api/internal/handler"
	"github.com/mkarpik/storefront-api/internal/middleware"
	"github.com/mkarpik/storefront-api/internal/queue"
	"github.com/mkarpik/storefront-api/internal/repository"
	"github.com/mkarpik/storefront-api/internal/router"
	queue_publisher "github.com/mkarpik/storefront-api/internal/service"
	"github.com/mkarpik/storefront-api/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use env vars
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	tokens := utils.NewTokenService(cfg.JWTSecret,
		time.Duration(cfg.AccessTTLSec)*time.Second,
		time.Duration(cfg.RefreshTTLMin)*time.Minute)

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	reviews := repository.NewReviewRepo(db)
	shipping := repository.NewShippingRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	userHandler := handler.NewUserHandler(shipping)
	productHandler := handler.NewProductHandler(products, categories)
	reviewHandler := handler.NewReviewHandler(reviews)
	orderHandler := handler.NewOrderHandler(orders, queue_publisher.PublishOrderPlaced)

	guard := middleware.SessionGuard(tokens, users)

	// Redis is optional: a nil client turns the cache and the rate
	// limiter into pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, productHandler, reviewHandler,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterAuth(e, authHandler, guard)
	router.RegisterAccount(e, userHandler, orderHandler, reviewHandler, guard)
	router.RegisterAdmin(e, authHandler, productHandler, guard)

	// Background consumer writing the order log; reconnects on its own.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
