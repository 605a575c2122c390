package app

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
)

func feeTestBusiness(pct string) *domain.Business {
	return &domain.Business{
		Fees: map[domain.Network][]domain.FeeConfig{
			domain.NetworkBase: {
				{
					Network:         domain.NetworkBase,
					ContractAddress: "0xAbC0000000000000000000000000000000000001",
					FeePercentage:   decimal.RequireFromString(pct),
					IsActive:        true,
				},
			},
		},
	}
}

func feeTestToken() *domain.SupportedToken {
	return &domain.SupportedToken{
		Network:         domain.NetworkBase,
		Symbol:          "USDC",
		ContractAddress: "0xabc0000000000000000000000000000000000001",
		Decimals:        6,
	}
}

func TestCalculateAppliesConfiguredPercentage(t *testing.T) {
	calc := NewFeeCalculator(decimal.NewFromInt(10))

	// 1% of 50,000 NGN at a rate of 1 token per 1,650 NGN.
	rate := decimal.NewFromInt(1).Div(decimal.NewFromInt(1650))
	breakdown, err := calc.Calculate(feeTestBusiness("1"), feeTestToken(), decimal.NewFromInt(50000), rate)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	if !breakdown.FeeAmount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("expected fee 500, got %s", breakdown.FeeAmount)
	}
	if !breakdown.NetAmount.Equal(decimal.RequireFromString("49500")) {
		t.Fatalf("expected net 49500, got %s", breakdown.NetAmount)
	}
	if !breakdown.FeeAmount.Add(breakdown.NetAmount).Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("fee + net must equal the input amount, got %s", breakdown.FeeAmount.Add(breakdown.NetAmount))
	}
	if breakdown.TokenAmount.Exponent() < -6 {
		t.Fatalf("token amount must be rounded to token decimals, got %s", breakdown.TokenAmount)
	}
}

func TestCalculateDefaultsToZeroFee(t *testing.T) {
	calc := NewFeeCalculator(decimal.NewFromInt(10))
	business := &domain.Business{} // no fee configuration at all

	breakdown, err := calc.Calculate(business, feeTestToken(), decimal.NewFromInt(10000), decimal.NewFromFloat(0.001))
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if !breakdown.FeeAmount.IsZero() {
		t.Fatalf("expected zero fee without configuration, got %s", breakdown.FeeAmount)
	}
	if !breakdown.NetAmount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected full amount as net, got %s", breakdown.NetAmount)
	}
}

func TestCalculateClampsPercentageAtCap(t *testing.T) {
	calc := NewFeeCalculator(decimal.NewFromInt(10))

	breakdown, err := calc.Calculate(feeTestBusiness("45"), feeTestToken(), decimal.NewFromInt(1000), decimal.NewFromFloat(0.001))
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if !breakdown.FeePercentage.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected percentage clamped to 10, got %s", breakdown.FeePercentage)
	}
	if !breakdown.FeeAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected fee 100 after clamp, got %s", breakdown.FeeAmount)
	}
}

func TestCalculateMatchesFeeConfigCaseInsensitively(t *testing.T) {
	calc := NewFeeCalculator(decimal.NewFromInt(10))

	// Business config stores a checksummed address, token record a lowercase one.
	breakdown, err := calc.Calculate(feeTestBusiness("2.5"), feeTestToken(), decimal.NewFromInt(2000), decimal.NewFromFloat(0.001))
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if !breakdown.FeePercentage.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 2.5%% fee via case-insensitive match, got %s", breakdown.FeePercentage)
	}
	if !breakdown.FeeAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected fee 50, got %s", breakdown.FeeAmount)
	}
}

func TestCalculateRoundsFeeToTwoPlaces(t *testing.T) {
	calc := NewFeeCalculator(decimal.NewFromInt(10))

	breakdown, err := calc.Calculate(feeTestBusiness("1.5"), feeTestToken(), decimal.RequireFromString("3333.33"), decimal.NewFromFloat(0.001))
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	// 1.5% of 3333.33 = 49.99995, rounds to 50.00
	if !breakdown.FeeAmount.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected fee rounded to 50, got %s", breakdown.FeeAmount)
	}
	if !breakdown.FeeAmount.Add(breakdown.NetAmount).Equal(decimal.RequireFromString("3333.33")) {
		t.Fatalf("fee + net must equal the input amount")
	}
}
