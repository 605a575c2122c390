/**
 * @description
 * This file implements token support validation for order creation. Business
 * support is the caller's precondition (the caller resolves the business token
 * descriptor first); this component layers the on-chain checks on top: reserve
 * contract support, then liquidity adequacy via a one-unit USDC quote.
 *
 * @notes
 * - Only the `base` network has on-chain coverage. Every other network returns
 *   BUSINESS_SUPPORTED_ONLY with the contract/liquidity fields left nil: an
 *   explicit, documented degradation, not an assumed pass.
 * - Validate never returns an error. Failures of the on-chain or liquidity
 *   queries are folded into the verdict so a raw error can never escape this
 *   component to the API boundary.
 */

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
)

// TokenSupportValidator decides whether a business token is usable for an order.
type TokenSupportValidator struct {
	reserve          ReserveClient
	minLiquidityUSDC decimal.Decimal
}

// NewTokenSupportValidator creates a validator with the configured minimum
// liquidity threshold (USDC value of one token unit).
func NewTokenSupportValidator(reserve ReserveClient, minLiquidityUSDC decimal.Decimal) *TokenSupportValidator {
	return &TokenSupportValidator{
		reserve:          reserve,
		minLiquidityUSDC: minLiquidityUSDC,
	}
}

// Validate produces the support verdict for an already business-approved token
// descriptor. The descriptor must be active and trading-enabled.
func (v *TokenSupportValidator) Validate(ctx context.Context, token domain.SupportedToken) domain.TokenValidation {
	if token.Network != domain.NetworkBase {
		// No reserve or liquidity oracle exists off base yet; the verdict says
		// so explicitly instead of guessing.
		return domain.TokenValidation{
			Valid:             true,
			Code:              domain.ValidationBusinessSupportedOnly,
			Message:           fmt.Sprintf("on-chain checks unavailable on %s; token accepted on business configuration only", token.Network),
			BusinessSupported: true,
		}
	}

	supported, err := v.reserve.IsTokenSupported(ctx, token.ContractAddress)
	if err != nil {
		log.Printf("level=error component=token_validator msg=\"reserve support query failed\" token=%s network=%s err=%v", token.Symbol, token.Network, err)
		return domain.TokenValidation{
			Code:              domain.ValidationError,
			Message:           "unable to verify on-chain token support",
			BusinessSupported: true,
		}
	}
	if !supported {
		contractSupported := false
		return domain.TokenValidation{
			Code:              domain.ValidationNotSupportedByContract,
			Message:           fmt.Sprintf("reserve contract does not support %s (%s)", token.Symbol, token.ContractAddress),
			BusinessSupported: true,
			ContractSupported: &contractSupported,
		}
	}

	contractSupported := true
	quote, err := v.reserve.QuoteTokenValue(ctx, token.ContractAddress, token.Decimals, decimal.NewFromInt(1))
	if err != nil {
		log.Printf("level=warn component=token_validator msg=\"liquidity quote failed\" token=%s err=%v", token.Symbol, err)
		hasLiquidity := false
		return domain.TokenValidation{
			Code:              domain.ValidationNoLiquidity,
			Message:           fmt.Sprintf("no liquidity route available for %s", token.Symbol),
			BusinessSupported: true,
			ContractSupported: &contractSupported,
			HasLiquidity:      &hasLiquidity,
		}
	}

	priceData := &domain.ReserveQuote{
		USDCValue:         quote.USDCValue,
		PricePerTokenUSDC: quote.PricePerTokenUSDC,
		BestRoute:         quote.BestRoute,
	}
	if quote.USDCValue.LessThan(v.minLiquidityUSDC) {
		hasLiquidity := false
		return domain.TokenValidation{
			Code:              domain.ValidationInsufficientLiquidity,
			Message:           fmt.Sprintf("liquidity below minimum threshold: %s USDC < %s USDC", quote.USDCValue, v.minLiquidityUSDC),
			BusinessSupported: true,
			ContractSupported: &contractSupported,
			HasLiquidity:      &hasLiquidity,
			PriceData:         priceData,
		}
	}

	hasLiquidity := true
	return domain.TokenValidation{
		Valid:             true,
		Code:              domain.ValidationFullySupported,
		BusinessSupported: true,
		ContractSupported: &contractSupported,
		HasLiquidity:      &hasLiquidity,
		PriceData:         priceData,
	}
}
