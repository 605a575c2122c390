/**
 * @description
 * This file implements fee computation for order creation: the business's
 * configured fee percentage for the token contract is applied to the NGN
 * amount, and the net amount is converted into the final token quantity.
 */

package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// FeeBreakdown is the result of fee computation for one order.
// FeeAmount + NetAmount always equals the input amount exactly.
type FeeBreakdown struct {
	FeePercentage decimal.Decimal
	FeeAmount     decimal.Decimal
	NetAmount     decimal.Decimal
	TokenAmount   decimal.Decimal // net amount converted at the quoted rate
}

// FeeCalculator applies business fee configuration to order amounts.
type FeeCalculator struct {
	maxFeePercentage decimal.Decimal
}

// NewFeeCalculator creates a calculator with the platform-wide fee cap.
func NewFeeCalculator(maxFeePercentage decimal.Decimal) *FeeCalculator {
	return &FeeCalculator{maxFeePercentage: maxFeePercentage}
}

// Calculate computes the fee, net amount and final token amount for an order.
// A business with no active fee entry for the token pays 0%; percentages above
// the configured cap are clamped.
func (c *FeeCalculator) Calculate(business *domain.Business, token *domain.SupportedToken, amount, fiatToTokenRate decimal.Decimal) (*FeeBreakdown, error) {
	pct := decimal.Zero
	if fee := business.ActiveFee(token.Network, token.ContractAddress); fee != nil {
		pct = fee.FeePercentage
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(c.maxFeePercentage) {
		pct = c.maxFeePercentage
	}

	feeAmount := amount.Mul(pct).Div(oneHundred).Round(2)
	netAmount := amount.Sub(feeAmount)
	if netAmount.IsNegative() {
		// Structurally unreachable with the cap in place; rejected anyway.
		return nil, fmt.Errorf("fee %s exceeds order amount %s", feeAmount, amount)
	}

	// Rounding to the token's declared precision happens only here, at final
	// output.
	tokenAmount := netAmount.Mul(fiatToTokenRate).Round(token.Decimals)

	return &FeeBreakdown{
		FeePercentage: pct,
		FeeAmount:     feeAmount,
		NetAmount:     netAmount,
		TokenAmount:   tokenAmount,
	}, nil
}
