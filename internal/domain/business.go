/**
 * @description
 * This file defines the read-only view of a Business (merchant) consumed by the
 * onramp-service: per-network supported token descriptors and per-network fee
 * configuration. Businesses are owned by the company/auth services; this service
 * only reads them to parameterize order creation.
 *
 * @notes
 * - Networks are an explicit enum rather than free-form strings. Token and fee
 *   records are validated into typed structs at the repository boundary instead
 *   of being duck-typed at use sites.
 */

package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Network identifies a settlement network a business can sell tokens on.
type Network string

const (
	NetworkBase     Network = "base"
	NetworkSolana   Network = "solana"
	NetworkEthereum Network = "ethereum"
)

// KnownNetwork reports whether the network is one this service recognises.
func KnownNetwork(n Network) bool {
	switch n {
	case NetworkBase, NetworkSolana, NetworkEthereum:
		return true
	}
	return false
}

// SupportedToken describes one token a business has enabled on a network.
type SupportedToken struct {
	Network          Network `json:"network"`
	Symbol           string  `json:"symbol"`
	ContractAddress  string  `json:"contract_address"`
	Decimals         int32   `json:"decimals"`
	IsActive         bool    `json:"is_active"`
	IsTradingEnabled bool    `json:"is_trading_enabled"`
}

// FeeConfig is a per-network, per-contract fee percentage a business charges.
type FeeConfig struct {
	Network         Network         `json:"network"`
	ContractAddress string          `json:"contract_address"`
	FeePercentage   decimal.Decimal `json:"fee_percentage"`
	IsActive        bool            `json:"is_active"`
}

// Business is the merchant whose configuration parameterizes every order.
type Business struct {
	ID            uuid.UUID                    `json:"id"`
	Name          string                       `json:"name"`
	WebhookURL    string                       `json:"webhook_url,omitempty"`
	WebhookSecret string                       `json:"-"` // merchant-specific outbound signing key
	Tokens        map[Network][]SupportedToken `json:"tokens"`
	Fees          map[Network][]FeeConfig      `json:"fees"`
}

// ActiveToken returns the business's tradeable descriptor for a symbol on a
// network, or nil when the business has no active, trading-enabled entry.
func (b *Business) ActiveToken(network Network, symbol string) *SupportedToken {
	for i := range b.Tokens[network] {
		t := &b.Tokens[network][i]
		if t.IsActive && t.IsTradingEnabled && strings.EqualFold(t.Symbol, symbol) {
			return t
		}
	}
	return nil
}

// HasActiveTokens reports whether the business has at least one active,
// trading-enabled token on the network. Disabled entries do not count: a
// network whose tokens are all switched off is treated as unconfigured.
func (b *Business) HasActiveTokens(network Network) bool {
	for i := range b.Tokens[network] {
		t := &b.Tokens[network][i]
		if t.IsActive && t.IsTradingEnabled {
			return true
		}
	}
	return false
}

// ResolveToken scans the business's supported token lists across all networks
// and returns the first active, trading-enabled entry matching the symbol.
// Base is scanned first so on-chain pricing wins when a symbol exists on
// multiple networks.
func (b *Business) ResolveToken(symbol string) *SupportedToken {
	for _, network := range []Network{NetworkBase, NetworkSolana, NetworkEthereum} {
		if t := b.ActiveToken(network, symbol); t != nil {
			return t
		}
	}
	return nil
}

// ActiveFee returns the active fee configuration matching a token contract on a
// network. Address comparison is case-insensitive; a nil result means the
// business charges no fee for the token.
func (b *Business) ActiveFee(network Network, contractAddress string) *FeeConfig {
	for i := range b.Fees[network] {
		f := &b.Fees[network][i]
		if f.IsActive && strings.EqualFold(f.ContractAddress, contractAddress) {
			return f
		}
	}
	return nil
}
