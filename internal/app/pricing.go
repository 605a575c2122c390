/**
 * @description
 * This file implements the price oracle: resolving a token's NGN unit price
 * either through the on-chain DEX aggregator (base network) or the internal
 * reference-price API (every other network).
 *
 * @notes
 * - On the base path, the USDC quote is converted to NGN with a live rate from
 *   the internal rate service. When that service is unreachable the configured
 *   fallback constant is used and the quote's RateSource is tagged
 *   'fallback_constant' so a fallback is never indistinguishable from a live
 *   rate.
 * - Off base there is no fallback: if the reference-price API fails, pricing
 *   fails hard. This is a documented limitation, not a branch to extend.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
)

// ErrTokenNotConfigured is returned when no active, trading-enabled entry for
// the symbol exists in any of the business's supported-token lists.
var ErrTokenNotConfigured = errors.New("token not configured for business")

// PriceOracle resolves token prices in NGN.
type PriceOracle struct {
	reserve          ReserveClient
	priceAPI         PriceAPI
	fallbackUSDCRate decimal.Decimal
}

// NewPriceOracle creates an oracle with the configured fallback USDC→NGN rate.
func NewPriceOracle(reserve ReserveClient, priceAPI PriceAPI, fallbackUSDCRate decimal.Decimal) *PriceOracle {
	return &PriceOracle{
		reserve:          reserve,
		priceAPI:         priceAPI,
		fallbackUSDCRate: fallbackUSDCRate,
	}
}

// Price resolves the NGN price of `tokenAmount` units of a symbol the business
// sells. Resolution scans the business's token lists across networks, first
// active match wins. `seed` optionally carries an on-chain quote already
// produced during validation so the base path does not re-quote.
func (o *PriceOracle) Price(ctx context.Context, business *domain.Business, symbol string, tokenAmount decimal.Decimal, seed *domain.ReserveQuote) (*domain.PriceQuote, error) {
	if tokenAmount.Sign() <= 0 {
		tokenAmount = decimal.NewFromInt(1)
	}
	token := business.ResolveToken(symbol)
	if token == nil {
		return nil, ErrTokenNotConfigured
	}
	return o.PriceToken(ctx, token, tokenAmount, seed)
}

// PriceToken prices an already-resolved token descriptor. Order creation uses
// this directly so the quote is always for the exact network the caller asked
// for, not whichever network a symbol scan finds first.
func (o *PriceOracle) PriceToken(ctx context.Context, token *domain.SupportedToken, tokenAmount decimal.Decimal, seed *domain.ReserveQuote) (*domain.PriceQuote, error) {
	if tokenAmount.Sign() <= 0 {
		tokenAmount = decimal.NewFromInt(1)
	}

	var (
		quote *domain.PriceQuote
		err   error
	)
	if token.Network == domain.NetworkBase {
		quote, err = o.priceFromChain(ctx, token, tokenAmount, seed)
	} else {
		quote, err = o.priceFromAPI(ctx, token, tokenAmount)
	}
	if err != nil {
		return nil, err
	}

	// A zero or negative unit price would poison the fiat->token division
	// downstream; refuse it here.
	if quote.UnitPriceNGN.Sign() <= 0 {
		return nil, fmt.Errorf("resolved non-positive unit price for %s on %s", token.Symbol, token.Network)
	}
	quote.FiatToTokenRate = decimal.NewFromInt(1).Div(quote.UnitPriceNGN)
	return quote, nil
}

func (o *PriceOracle) priceFromChain(ctx context.Context, token *domain.SupportedToken, tokenAmount decimal.Decimal, seed *domain.ReserveQuote) (*domain.PriceQuote, error) {
	reserveQuote := seed
	if reserveQuote == nil {
		chainQuote, err := o.reserve.QuoteTokenValue(ctx, token.ContractAddress, token.Decimals, tokenAmount)
		if err != nil {
			return nil, fmt.Errorf("dex quote for %s: %w", token.Symbol, err)
		}
		reserveQuote = &domain.ReserveQuote{
			USDCValue:         chainQuote.USDCValue,
			PricePerTokenUSDC: chainQuote.PricePerTokenUSDC,
			BestRoute:         chainQuote.BestRoute,
		}
	}

	rate, rateSource := o.usdcRate(ctx)
	unitPrice := reserveQuote.PricePerTokenUSDC.Mul(rate)

	return &domain.PriceQuote{
		Symbol:            token.Symbol,
		Network:           token.Network,
		ContractAddress:   token.ContractAddress,
		TokenDecimals:     token.Decimals,
		UnitPriceNGN:      unitPrice,
		TotalNGN:          unitPrice.Mul(tokenAmount),
		Source:            domain.PriceSourceDEX,
		RateSource:        rateSource,
		USDCValue:         reserveQuote.USDCValue,
		PricePerTokenUSDC: reserveQuote.PricePerTokenUSDC,
		BestRoute:         reserveQuote.BestRoute,
	}, nil
}

func (o *PriceOracle) priceFromAPI(ctx context.Context, token *domain.SupportedToken, tokenAmount decimal.Decimal) (*domain.PriceQuote, error) {
	unitPrice, err := o.priceAPI.GetTokenPrice(ctx, token.Symbol, string(token.Network))
	if err != nil {
		// No secondary source exists for non-base networks.
		return nil, fmt.Errorf("reference price for %s on %s: %w", token.Symbol, token.Network, err)
	}
	return &domain.PriceQuote{
		Symbol:          token.Symbol,
		Network:         token.Network,
		ContractAddress: token.ContractAddress,
		TokenDecimals:   token.Decimals,
		UnitPriceNGN:    unitPrice,
		TotalNGN:        unitPrice.Mul(tokenAmount),
		Source:          domain.PriceSourceInternalAPI,
	}, nil
}

func (o *PriceOracle) usdcRate(ctx context.Context) (decimal.Decimal, string) {
	rate, err := o.priceAPI.GetUSDCExchangeRate(ctx)
	if err != nil {
		log.Printf("level=warn component=price_oracle msg=\"rate service unreachable; using fallback usdc rate\" fallback=%s err=%v", o.fallbackUSDCRate, err)
		return o.fallbackUSDCRate, domain.RateSourceFallback
	}
	return rate, domain.RateSourceInternalAPI
}
