package domain

import (
	"strings"

	"github.com/mr-tron/base58"
)

// Chain identifies which blockchain an address belongs to.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
	ChainUnknown  Chain = "unknown"
)

func (c Chain) String() string { return string(c) }

// ClassifyAddress maps an address string to a chain by syntactic shape.
// Pure and deterministic: no network call and no checksum validation, so a
// well-shaped but nonexistent address still classifies and fails downstream.
//
// Ethereum: exactly 42 characters with a 0x prefix. Solana: 32-44 characters
// of the base58 alphabet with no 0x prefix. Everything else is ChainUnknown,
// which callers treat as terminal for that address.
func ClassifyAddress(address string) Chain {
	if len(address) == 42 && strings.HasPrefix(address, "0x") {
		return ChainEthereum
	}
	if len(address) >= 32 && len(address) <= 44 && !strings.HasPrefix(address, "0x") {
		if _, err := base58.Decode(address); err == nil {
			return ChainSolana
		}
	}
	return ChainUnknown
}
