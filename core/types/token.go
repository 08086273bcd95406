package types

import "strings"

// TokenMetadata describes a token kind the custody ledger can hold. Mints are
// addressed by a 20-byte identifier; the symbol is display-only.
type TokenMetadata struct {
	Mint     [20]byte
	Symbol   string
	Name     string
	Decimals uint8
}

// NormalizeSymbol returns the canonical uppercase form of a token symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
