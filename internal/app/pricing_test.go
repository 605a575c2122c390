package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/reserveclient"
)

func pricingBusiness() *domain.Business {
	return &domain.Business{
		Tokens: map[domain.Network][]domain.SupportedToken{
			domain.NetworkBase: {
				{
					Network:          domain.NetworkBase,
					Symbol:           "WETH",
					ContractAddress:  "0x4200000000000000000000000000000000000006",
					Decimals:         18,
					IsActive:         true,
					IsTradingEnabled: true,
				},
			},
			domain.NetworkSolana: {
				{
					Network:          domain.NetworkSolana,
					Symbol:           "SOL",
					ContractAddress:  "So11111111111111111111111111111111111111112",
					Decimals:         9,
					IsActive:         true,
					IsTradingEnabled: true,
				},
			},
		},
	}
}

func TestPriceUsesLiveUSDCRateOnBase(t *testing.T) {
	reserve := &stubReserve{
		quote: &reserveclient.Quote{
			USDCValue:         decimal.NewFromInt(2500),
			PricePerTokenUSDC: decimal.NewFromInt(2500),
			BestRoute:         "direct_usdc",
		},
	}
	priceAPI := &stubPriceAPI{rate: decimal.NewFromInt(1600)}
	oracle := NewPriceOracle(reserve, priceAPI, decimal.NewFromInt(1500))

	quote, err := oracle.Price(context.Background(), pricingBusiness(), "WETH", decimal.NewFromInt(1), nil)
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}

	if quote.Source != domain.PriceSourceDEX {
		t.Fatalf("expected smart_contract_dex source, got %s", quote.Source)
	}
	if quote.RateSource != domain.RateSourceInternalAPI {
		t.Fatalf("expected live rate source tag, got %s", quote.RateSource)
	}
	if !quote.UnitPriceNGN.Equal(decimal.NewFromInt(4000000)) {
		t.Fatalf("expected unit price 2500*1600=4000000, got %s", quote.UnitPriceNGN)
	}
	if !quote.FiatToTokenRate.Mul(quote.UnitPriceNGN).Round(10).Equal(decimal.NewFromInt(1)) {
		t.Fatalf("fiat-to-token rate must invert the unit price, got %s", quote.FiatToTokenRate)
	}
}

func TestPriceTagsFallbackRateDistinctly(t *testing.T) {
	reserve := &stubReserve{
		quote: &reserveclient.Quote{
			USDCValue:         decimal.NewFromInt(1),
			PricePerTokenUSDC: decimal.NewFromInt(1),
			BestRoute:         "direct_usdc",
		},
	}
	priceAPI := &stubPriceAPI{rateErr: errors.New("rate service down")}
	oracle := NewPriceOracle(reserve, priceAPI, decimal.NewFromInt(1500))

	quote, err := oracle.Price(context.Background(), pricingBusiness(), "WETH", decimal.NewFromInt(1), nil)
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if quote.RateSource != domain.RateSourceFallback {
		t.Fatalf("fallback rate must be tagged fallback_constant, got %s", quote.RateSource)
	}
	if !quote.UnitPriceNGN.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected fallback rate to be applied, got %s", quote.UnitPriceNGN)
	}
}

func TestPriceReusesSeedQuoteWithoutRequoting(t *testing.T) {
	reserve := &stubReserve{} // any quote call would return a nil quote and panic downstream
	priceAPI := &stubPriceAPI{rate: decimal.NewFromInt(1500)}
	oracle := NewPriceOracle(reserve, priceAPI, decimal.NewFromInt(1500))

	seed := &domain.ReserveQuote{
		USDCValue:         decimal.NewFromInt(2000),
		PricePerTokenUSDC: decimal.NewFromInt(2000),
		BestRoute:         "weth_hop",
	}
	quote, err := oracle.Price(context.Background(), pricingBusiness(), "WETH", decimal.NewFromInt(1), seed)
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if len(reserve.quoteCalls) != 0 {
		t.Fatal("seeded pricing must not re-quote the chain")
	}
	if quote.BestRoute != "weth_hop" {
		t.Fatalf("expected seed route carried through, got %s", quote.BestRoute)
	}
}

func TestPriceFailsHardOffBaseWithoutAPI(t *testing.T) {
	reserve := &stubReserve{}
	priceAPI := &stubPriceAPI{priceErr: errors.New("api down")}
	oracle := NewPriceOracle(reserve, priceAPI, decimal.NewFromInt(1500))

	_, err := oracle.Price(context.Background(), pricingBusiness(), "SOL", decimal.NewFromInt(1), nil)
	if err == nil {
		t.Fatal("expected non-base pricing to fail hard when the API is down")
	}
	if len(reserve.quoteCalls) != 0 {
		t.Fatal("non-base pricing must never query the reserve")
	}
}

func TestPriceRejectsUnknownSymbol(t *testing.T) {
	oracle := NewPriceOracle(&stubReserve{}, &stubPriceAPI{}, decimal.NewFromInt(1500))

	_, err := oracle.Price(context.Background(), pricingBusiness(), "DOGE", decimal.NewFromInt(1), nil)
	if !errors.Is(err, ErrTokenNotConfigured) {
		t.Fatalf("expected ErrTokenNotConfigured, got %v", err)
	}
}

func TestPriceRejectsNonPositiveUnitPrice(t *testing.T) {
	reserve := &stubReserve{}
	priceAPI := &stubPriceAPI{price: decimal.Zero}
	oracle := NewPriceOracle(reserve, priceAPI, decimal.NewFromInt(1500))

	_, err := oracle.Price(context.Background(), pricingBusiness(), "SOL", decimal.NewFromInt(1), nil)
	if err == nil {
		t.Fatal("expected zero unit price to be rejected")
	}
}
