/**
 * @description
 * This package provides a read-only client for the on-chain reserve and DEX
 * aggregator contracts on Base. It answers two questions: is a token enabled in
 * the reserve, and what is a token amount worth in USDC via the best available
 * swap route.
 *
 * @dependencies
 * - context, fmt, math/big, strings, time: Standard Go libraries.
 * - github.com/ethereum/go-ethereum: eth_call access via ethclient and ABI packing.
 * - github.com/shopspring/decimal: Decimal conversion of raw token integers.
 */
package reserveclient

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const (
	reserveABIJSON = `[
		{"name":"isTokenSupported","type":"function","stateMutability":"view",
		 "inputs":[{"name":"token","type":"address"}],
		 "outputs":[{"name":"","type":"bool"}]}
	]`
	aggregatorABIJSON = `[
		{"name":"getAmountsOut","type":"function","stateMutability":"view",
		 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],
		 "outputs":[{"name":"amounts","type":"uint256[]"}]}
	]`

	// USDC uses 6 decimals on Base.
	usdcDecimals = 6

	RouteDirect  = "direct_usdc"
	RouteWETHHop = "weth_hop"
)

// ContractCaller is the subset of the Ethereum RPC used by this client.
// ethclient.Client satisfies it; tests substitute a stub.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Quote is the USDC valuation of a token amount along the winning route.
type Quote struct {
	USDCValue         decimal.Decimal
	PricePerTokenUSDC decimal.Decimal
	BestRoute         string
}

// Config carries the contract addresses the client queries.
type Config struct {
	ReserveAddress    string
	AggregatorAddress string
	USDCAddress       string
	WETHAddress       string
	CallTimeout       time.Duration
}

// Client queries the reserve and aggregator contracts.
type Client struct {
	caller        ContractCaller
	reserveABI    abi.ABI
	aggregatorABI abi.ABI
	reserve       common.Address
	aggregator    common.Address
	usdc          common.Address
	weth          common.Address
	callTimeout   time.Duration
	closer        func()
}

// Close releases the underlying RPC connection when the client owns one.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Dial connects to a Base RPC endpoint and builds a client over it.
func Dial(rpcURL string, cfg Config) (*Client, error) {
	trimmed := strings.TrimSpace(rpcURL)
	if trimmed == "" {
		return nil, fmt.Errorf("base rpc url required")
	}
	eth, err := ethclient.Dial(trimmed)
	if err != nil {
		return nil, fmt.Errorf("dial base rpc: %w", err)
	}
	client, err := New(eth, cfg)
	if err != nil {
		eth.Close()
		return nil, err
	}
	client.closer = eth.Close
	return client, nil
}

// New builds a client over an existing caller.
func New(caller ContractCaller, cfg Config) (*Client, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller required")
	}
	reserveABI, err := abi.JSON(strings.NewReader(reserveABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse reserve abi: %w", err)
	}
	aggregatorABI, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse aggregator abi: %w", err)
	}
	for name, addr := range map[string]string{
		"reserve":    cfg.ReserveAddress,
		"aggregator": cfg.AggregatorAddress,
		"usdc":       cfg.USDCAddress,
		"weth":       cfg.WETHAddress,
	} {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid %s contract address %q", name, addr)
		}
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		caller:        caller,
		reserveABI:    reserveABI,
		aggregatorABI: aggregatorABI,
		reserve:       common.HexToAddress(cfg.ReserveAddress),
		aggregator:    common.HexToAddress(cfg.AggregatorAddress),
		usdc:          common.HexToAddress(cfg.USDCAddress),
		weth:          common.HexToAddress(cfg.WETHAddress),
		callTimeout:   timeout,
	}, nil
}

// IsTokenSupported asks the reserve contract whether a token is enabled.
func (c *Client) IsTokenSupported(ctx context.Context, tokenAddress string) (bool, error) {
	if !common.IsHexAddress(tokenAddress) {
		return false, fmt.Errorf("invalid token address %q", tokenAddress)
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	data, err := c.reserveABI.Pack("isTokenSupported", common.HexToAddress(tokenAddress))
	if err != nil {
		return false, fmt.Errorf("pack isTokenSupported: %w", err)
	}
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.reserve, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("call isTokenSupported: %w", err)
	}
	results, err := c.reserveABI.Unpack("isTokenSupported", out)
	if err != nil {
		return false, fmt.Errorf("unpack isTokenSupported: %w", err)
	}
	supported, ok := results[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isTokenSupported result type %T", results[0])
	}
	return supported, nil
}

// QuoteTokenValue values a token amount in USDC by quoting every configured
// route through the aggregator and keeping the best output. Higher output wins
// ties; the winning route's label is returned with the quote.
func (c *Client) QuoteTokenValue(ctx context.Context, tokenAddress string, tokenDecimals int32, amount decimal.Decimal) (*Quote, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", tokenAddress)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	token := common.HexToAddress(tokenAddress)
	amountIn := toTokenUnits(amount, tokenDecimals)
	if amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount %s is below one base unit at %d decimals", amount, tokenDecimals)
	}

	routes := []struct {
		label string
		path  []common.Address
	}{
		{RouteDirect, []common.Address{token, c.usdc}},
		{RouteWETHHop, []common.Address{token, c.weth, c.usdc}},
	}
	if token == c.usdc {
		// 1:1, nothing to quote.
		return &Quote{
			USDCValue:         amount,
			PricePerTokenUSDC: decimal.NewFromInt(1),
			BestRoute:         RouteDirect,
		}, nil
	}

	var (
		bestOut   *big.Int
		bestRoute string
		lastErr   error
	)
	for _, route := range routes {
		out, err := c.getAmountsOut(ctx, amountIn, route.path)
		if err != nil {
			lastErr = err
			continue
		}
		if bestOut == nil || out.Cmp(bestOut) > 0 {
			bestOut = out
			bestRoute = route.label
		}
	}
	if bestOut == nil {
		return nil, fmt.Errorf("no quotable route for token %s: %w", tokenAddress, lastErr)
	}

	usdcValue := fromTokenUnits(bestOut, usdcDecimals)
	return &Quote{
		USDCValue:         usdcValue,
		PricePerTokenUSDC: usdcValue.Div(amount),
		BestRoute:         bestRoute,
	}, nil
}

func (c *Client) getAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	data, err := c.aggregatorABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.aggregator, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call getAmountsOut: %w", err)
	}
	results, err := c.aggregatorABI.Unpack("getAmountsOut", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}
	amounts, ok := results[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getAmountsOut result type %T", results[0])
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("empty amounts from getAmountsOut")
	}
	final := amounts[len(amounts)-1]
	if final == nil || final.Sign() <= 0 {
		return nil, fmt.Errorf("zero output for path")
	}
	return final, nil
}

func toTokenUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}

func fromTokenUnits(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}
