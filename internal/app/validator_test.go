package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/reserveclient"
)

func baseToken() domain.SupportedToken {
	return domain.SupportedToken{
		Network:          domain.NetworkBase,
		Symbol:           "WETH",
		ContractAddress:  "0x4200000000000000000000000000000000000006",
		Decimals:         18,
		IsActive:         true,
		IsTradingEnabled: true,
	}
}

func TestValidateSkipsOnChainChecksOffBase(t *testing.T) {
	reserve := &stubReserve{}
	validator := NewTokenSupportValidator(reserve, decimal.NewFromInt(1))

	token := baseToken()
	token.Network = domain.NetworkSolana

	verdict := validator.Validate(context.Background(), token)

	if !verdict.Valid {
		t.Fatalf("expected off-base token to be valid, got code %s", verdict.Code)
	}
	if verdict.Code != domain.ValidationBusinessSupportedOnly {
		t.Fatalf("expected BUSINESS_SUPPORTED_ONLY, got %s", verdict.Code)
	}
	if verdict.ContractSupported != nil || verdict.HasLiquidity != nil {
		t.Fatal("skipped checks must stay nil, not report a pass")
	}
	if len(reserve.supportCalls) != 0 || len(reserve.quoteCalls) != 0 {
		t.Fatal("off-base validation must not touch the reserve client")
	}
}

func TestValidateRejectsContractUnsupportedToken(t *testing.T) {
	reserve := &stubReserve{supported: false}
	validator := NewTokenSupportValidator(reserve, decimal.NewFromInt(1))

	verdict := validator.Validate(context.Background(), baseToken())

	if verdict.Valid {
		t.Fatal("expected contract-unsupported token to be invalid")
	}
	if verdict.Code != domain.ValidationNotSupportedByContract {
		t.Fatalf("expected TOKEN_NOT_SUPPORTED_BY_SMART_CONTRACT, got %s", verdict.Code)
	}
	if verdict.ContractSupported == nil || *verdict.ContractSupported {
		t.Fatal("expected contract_supported=false")
	}
	if len(reserve.quoteCalls) != 0 {
		t.Fatal("liquidity must not be quoted for a contract-unsupported token")
	}
}

func TestValidateFoldsReserveErrorIntoVerdict(t *testing.T) {
	reserve := &stubReserve{supportedErr: errors.New("rpc timeout")}
	validator := NewTokenSupportValidator(reserve, decimal.NewFromInt(1))

	verdict := validator.Validate(context.Background(), baseToken())

	if verdict.Valid {
		t.Fatal("expected verdict to be invalid on reserve error")
	}
	if verdict.Code != domain.ValidationError {
		t.Fatalf("expected VALIDATION_ERROR, got %s", verdict.Code)
	}
}

func TestValidateReportsNoLiquidityOnQuoteFailure(t *testing.T) {
	reserve := &stubReserve{supported: true, quoteErr: errors.New("no route")}
	validator := NewTokenSupportValidator(reserve, decimal.NewFromInt(1))

	verdict := validator.Validate(context.Background(), baseToken())

	if verdict.Valid {
		t.Fatal("expected verdict to be invalid without a liquidity route")
	}
	if verdict.Code != domain.ValidationNoLiquidity {
		t.Fatalf("expected NO_LIQUIDITY_AVAILABLE, got %s", verdict.Code)
	}
	if verdict.HasLiquidity == nil || *verdict.HasLiquidity {
		t.Fatal("expected has_liquidity=false")
	}
}

func TestValidateRejectsLiquidityBelowThreshold(t *testing.T) {
	reserve := &stubReserve{
		supported: true,
		quote: &reserveclient.Quote{
			USDCValue:         decimal.RequireFromString("0.4"),
			PricePerTokenUSDC: decimal.RequireFromString("0.4"),
			BestRoute:         "direct_usdc",
		},
	}
	validator := NewTokenSupportValidator(reserve, decimal.NewFromInt(1))

	verdict := validator.Validate(context.Background(), baseToken())

	if verdict.Valid {
		t.Fatal("expected verdict to be invalid below the liquidity threshold")
	}
	if verdict.Code != domain.ValidationInsufficientLiquidity {
		t.Fatalf("expected INSUFFICIENT_LIQUIDITY, got %s", verdict.Code)
	}
	if verdict.PriceData == nil {
		t.Fatal("expected the quote to be attached even when insufficient")
	}
}

func TestValidateAcceptsFullySupportedToken(t *testing.T) {
	reserve := &stubReserve{
		supported: true,
		quote: &reserveclient.Quote{
			USDCValue:         decimal.RequireFromString("2500"),
			PricePerTokenUSDC: decimal.RequireFromString("2500"),
			BestRoute:         "weth_hop",
		},
	}
	validator := NewTokenSupportValidator(reserve, decimal.NewFromInt(1))

	verdict := validator.Validate(context.Background(), baseToken())

	if !verdict.Valid {
		t.Fatalf("expected fully supported verdict, got code %s", verdict.Code)
	}
	if verdict.Code != domain.ValidationFullySupported {
		t.Fatalf("expected FULLY_SUPPORTED, got %s", verdict.Code)
	}
	if verdict.PriceData == nil || verdict.PriceData.BestRoute != "weth_hop" {
		t.Fatal("expected the winning route to be carried in the verdict")
	}
}
