/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the onramp-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`

	BaseRPCURL             string `mapstructure:"BASE_RPC_URL"`
	ReserveContractAddress string `mapstructure:"RESERVE_CONTRACT_ADDRESS"`
	DEXAggregatorAddress   string `mapstructure:"DEX_AGGREGATOR_ADDRESS"`
	USDCContractAddress    string `mapstructure:"USDC_CONTRACT_ADDRESS"`
	WETHContractAddress    string `mapstructure:"WETH_CONTRACT_ADDRESS"`

	PriceAPIBaseURL   string `mapstructure:"PRICE_API_BASE_URL"`
	PriceAPIKey       string `mapstructure:"PRICE_API_KEY"`
	PaymentAPIBaseURL string `mapstructure:"PAYMENT_API_BASE_URL"`
	PaymentAPIKey     string `mapstructure:"PAYMENT_API_KEY"`

	LiquidityWebhookSecret string `mapstructure:"LIQUIDITY_WEBHOOK_SECRET"`
	MerchantJWTSecret      string `mapstructure:"MERCHANT_JWT_SECRET"`

	MinOrderAmountNGN         float64 `mapstructure:"MIN_ORDER_AMOUNT_NGN"`
	MaxOrderAmountNGN         float64 `mapstructure:"MAX_ORDER_AMOUNT_NGN"`
	MaxFeePercentage          float64 `mapstructure:"MAX_FEE_PERCENTAGE"`
	MinLiquidityThresholdUSDC float64 `mapstructure:"MIN_LIQUIDITY_THRESHOLD_USDC"`
	FallbackUSDCNGNRate       float64 `mapstructure:"FALLBACK_USDC_NGN_RATE"`
	OrderExpiryMinutes        int     `mapstructure:"ORDER_EXPIRY_MINUTES"`
	OrderRateLimitPerMinute   int     `mapstructure:"ORDER_RATE_LIMIT_PER_MINUTE"`
	WebhookTimeoutSeconds     int     `mapstructure:"WEBHOOK_TIMEOUT_SECONDS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "aboki:rate_limit")
	viper.SetDefault("MIN_ORDER_AMOUNT_NGN", 1000.0)
	viper.SetDefault("MAX_ORDER_AMOUNT_NGN", 10000000.0)
	viper.SetDefault("MAX_FEE_PERCENTAGE", 10.0)
	viper.SetDefault("MIN_LIQUIDITY_THRESHOLD_USDC", 1.0)
	viper.SetDefault("FALLBACK_USDC_NGN_RATE", 1500.0)
	viper.SetDefault("ORDER_EXPIRY_MINUTES", 30)
	viper.SetDefault("ORDER_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("WEBHOOK_TIMEOUT_SECONDS", 10)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "ONRAMP_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("BASE_RPC_URL")
	_ = viper.BindEnv("RESERVE_CONTRACT_ADDRESS")
	_ = viper.BindEnv("DEX_AGGREGATOR_ADDRESS")
	_ = viper.BindEnv("USDC_CONTRACT_ADDRESS")
	_ = viper.BindEnv("WETH_CONTRACT_ADDRESS")
	_ = viper.BindEnv("PRICE_API_BASE_URL")
	_ = viper.BindEnv("PRICE_API_KEY")
	_ = viper.BindEnv("PAYMENT_API_BASE_URL")
	_ = viper.BindEnv("PAYMENT_API_KEY")
	_ = viper.BindEnv("LIQUIDITY_WEBHOOK_SECRET")
	_ = viper.BindEnv("MERCHANT_JWT_SECRET")
	_ = viper.BindEnv("MIN_ORDER_AMOUNT_NGN")
	_ = viper.BindEnv("MAX_ORDER_AMOUNT_NGN")
	_ = viper.BindEnv("MAX_FEE_PERCENTAGE")
	_ = viper.BindEnv("MIN_LIQUIDITY_THRESHOLD_USDC")
	_ = viper.BindEnv("FALLBACK_USDC_NGN_RATE")
	_ = viper.BindEnv("ORDER_EXPIRY_MINUTES")
	_ = viper.BindEnv("ORDER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("WEBHOOK_TIMEOUT_SECONDS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "aboki:rate_limit"
	}

	if config.MinOrderAmountNGN <= 0 {
		config.MinOrderAmountNGN = 1000
	}
	if config.MaxOrderAmountNGN <= config.MinOrderAmountNGN {
		log.Printf("level=warn component=config msg=\"max order amount not above min; using default\" max=%f min=%f", config.MaxOrderAmountNGN, config.MinOrderAmountNGN)
		config.MaxOrderAmountNGN = 10000000
	}

	if config.MaxFeePercentage < 0 {
		log.Printf("level=warn component=config msg=\"negative max fee percentage configured; coercing to zero\" fee_percent=%f", config.MaxFeePercentage)
		config.MaxFeePercentage = 0
	}
	if config.MaxFeePercentage > 10 {
		log.Printf("level=warn component=config msg=\"max fee percentage too high; capping at 10\" fee_percent=%f", config.MaxFeePercentage)
		config.MaxFeePercentage = 10
	}

	if config.MinLiquidityThresholdUSDC < 0 {
		config.MinLiquidityThresholdUSDC = 0
	}
	if config.FallbackUSDCNGNRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive fallback usdc rate configured; using default\" rate=%f", config.FallbackUSDCNGNRate)
		config.FallbackUSDCNGNRate = 1500
	}
	if config.OrderExpiryMinutes <= 0 {
		config.OrderExpiryMinutes = 30
	}
	if config.OrderRateLimitPerMinute < 0 {
		config.OrderRateLimitPerMinute = 0
	}
	if config.WebhookTimeoutSeconds <= 0 {
		config.WebhookTimeoutSeconds = 10
	}

	return
}
