package escrow

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// addressPrefix namespaces order address derivation so no other key scheme
// can collide with it.
const addressPrefix = "escrow-order"

// DeriveAddress deterministically computes the custody address and bump for
// an order keyed by (maker, seed) under the given program identity. Distinct
// (maker, seed) pairs map to distinct addresses; the bump is folded into the
// final digest so verifiers can check both values from the same inputs.
func DeriveAddress(programID, maker [20]byte, seed [2]byte) ([20]byte, uint8) {
	pre := ethcrypto.Keccak256([]byte(addressPrefix), programID[:], maker[:], seed[:])
	bump := pre[0]
	full := ethcrypto.Keccak256([]byte(addressPrefix), programID[:], maker[:], seed[:], []byte{bump})
	var addr [20]byte
	copy(addr[:], full[12:])
	return addr, bump
}

// VerifyOrderAddress recomputes the derivation and confirms the supplied
// address and bump both match. The engine never trusts a caller-supplied
// address without this check.
func VerifyOrderAddress(programID, addr, maker [20]byte, seed [2]byte, bump uint8) error {
	derived, derivedBump := DeriveAddress(programID, maker, seed)
	if derivedBump != bump || derived != addr {
		return ErrPdaMismatch
	}
	return nil
}
