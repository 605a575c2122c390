package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "MIN_ORDER_AMOUNT_NGN")
	unsetEnvWithCleanup(t, "MAX_ORDER_AMOUNT_NGN")
	unsetEnvWithCleanup(t, "MAX_FEE_PERCENTAGE")
	unsetEnvWithCleanup(t, "ORDER_EXPIRY_MINUTES")
	unsetEnvWithCleanup(t, "FALLBACK_USDC_NGN_RATE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MinOrderAmountNGN != 1000 {
		t.Fatalf("expected default MinOrderAmountNGN 1000, got %f", cfg.MinOrderAmountNGN)
	}
	if cfg.MaxOrderAmountNGN != 10000000 {
		t.Fatalf("expected default MaxOrderAmountNGN 10000000, got %f", cfg.MaxOrderAmountNGN)
	}
	if cfg.MaxFeePercentage != 10 {
		t.Fatalf("expected default MaxFeePercentage 10, got %f", cfg.MaxFeePercentage)
	}
	if cfg.OrderExpiryMinutes != 30 {
		t.Fatalf("expected default OrderExpiryMinutes 30, got %d", cfg.OrderExpiryMinutes)
	}
	if cfg.FallbackUSDCNGNRate != 1500 {
		t.Fatalf("expected default FallbackUSDCNGNRate 1500, got %f", cfg.FallbackUSDCNGNRate)
	}
}

func TestLoadConfig_CapsMaxFeePercentage(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "MAX_FEE_PERCENTAGE", "25")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxFeePercentage != 10 {
		t.Fatalf("expected MaxFeePercentage capped at 10, got %f", cfg.MaxFeePercentage)
	}
}

func TestLoadConfig_RejectsInvertedAmountBounds(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "MIN_ORDER_AMOUNT_NGN", "5000")
	setEnvWithCleanup(t, "MAX_ORDER_AMOUNT_NGN", "100")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxOrderAmountNGN != 10000000 {
		t.Fatalf("expected inverted max to fall back to default, got %f", cfg.MaxOrderAmountNGN)
	}
	if cfg.MinOrderAmountNGN != 5000 {
		t.Fatalf("expected MinOrderAmountNGN preserved, got %f", cfg.MinOrderAmountNGN)
	}
}

func TestLoadConfig_DefaultRateLimitPrefix(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "REDIS_RATE_LIMIT_PREFIX")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RedisRateLimitPrefix != "aboki:rate_limit" {
		t.Fatalf("expected default rate limit prefix, got %q", cfg.RedisRateLimitPrefix)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
