/**
 * @description
 * This is the main entry point for the onramp-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, external API clients, message brokers, repositories, the core
 * application service, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/reserveclient, pkg/priceapiclient, pkg/paymentclient: External collaborator clients.
 * - pkg/rabbitmq, pkg/webhookdispatcher: Event publishing and merchant webhooks.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/api"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/app"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/config"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/paymentclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/priceapiclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/rabbitmq"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/reserveclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/webhookdispatcher"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.LiquidityWebhookSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"liquidity webhook secret must be configured\" env=LIQUIDITY_WEBHOOK_SECRET")
	}
	if strings.TrimSpace(cfg.MerchantJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"merchant jwt secret must be configured\" env=MERCHANT_JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting onramp-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for high-traffic scenarios
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish lifecycle events. The broker
	// being down at boot degrades to a no-op publisher, never a crash.
	var eventPublisher rabbitmq.Publisher
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		eventPublisher = &rabbitmq.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		eventPublisher = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the on-chain reserve/DEX client for the base network.
	reserveClient, err := reserveclient.Dial(cfg.BaseRPCURL, reserveclient.Config{
		ReserveAddress:    cfg.ReserveContractAddress,
		AggregatorAddress: cfg.DEXAggregatorAddress,
		USDCAddress:       cfg.USDCContractAddress,
		WETHAddress:       cfg.WETHContractAddress,
	})
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"base rpc connection failed\" err=%v", err)
	}
	defer reserveClient.Close()
	log.Println("level=info component=bootstrap msg=\"base rpc connected\"")

	// Initialize the internal price API and payment provider clients.
	priceClient := priceapiclient.NewClient(cfg.PriceAPIBaseURL, cfg.PriceAPIKey)
	paymentClient := paymentclient.NewClient(cfg.PaymentAPIBaseURL, cfg.PaymentAPIKey)

	// Optional Redis for distributed order-creation rate limiting.
	var redisClient *redis.Client
	if cfg.OrderRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; order rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; order rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; order rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the application components.
	validator := app.NewTokenSupportValidator(reserveClient, decimal.NewFromFloat(cfg.MinLiquidityThresholdUSDC))
	oracle := app.NewPriceOracle(reserveClient, priceClient, decimal.NewFromFloat(cfg.FallbackUSDCNGNRate))
	fees := app.NewFeeCalculator(decimal.NewFromFloat(cfg.MaxFeePercentage))
	dispatcher := webhookdispatcher.New(time.Duration(cfg.WebhookTimeoutSeconds) * time.Second)
	notifier := app.NewMerchantNotifier(repository, dispatcher)

	var rateLimiter app.OrderRateLimiter
	if redisClient != nil {
		rateLimiter = app.NewRedisOrderRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	onrampService := app.NewOnrampService(
		repository,
		validator,
		oracle,
		fees,
		paymentClient,
		notifier,
		eventPublisher,
		rateLimiter,
		app.OnrampServiceConfig{
			MinOrderAmountNGN:  decimal.NewFromFloat(cfg.MinOrderAmountNGN),
			MaxOrderAmountNGN:  decimal.NewFromFloat(cfg.MaxOrderAmountNGN),
			OrderExpiry:        time.Duration(cfg.OrderExpiryMinutes) * time.Minute,
			RateLimitPerMinute: cfg.OrderRateLimitPerMinute,
		},
	)
	settlementProcessor := app.NewSettlementProcessor(repository, notifier, eventPublisher)

	// Initialize the API handlers and router.
	onrampHandlers := api.NewOnrampHandlers(onrampService)
	webhookHandlers := api.NewWebhookHandlers(settlementProcessor, cfg.LiquidityWebhookSecret)
	router := api.OnrampRoutes(onrampHandlers, webhookHandlers, repository, cfg.MerchantJWTSecret)

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
