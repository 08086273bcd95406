package escrow

import "errors"

// Error taxonomy surfaced by the escrow engine. Every validation failure
// aborts the whole request; the engine never recovers locally or applies a
// partial fill.
var (
	// ErrInvalidMaker indicates the transaction signer does not match the
	// claimed maker identity.
	ErrInvalidMaker = errors.New("escrow: signer does not match maker")
	// ErrEscrowAlreadyExists indicates a live order already occupies the
	// derived address.
	ErrEscrowAlreadyExists = errors.New("escrow: order already exists at derived address")
	// ErrOrderNotFound indicates no live order exists at the target address.
	// Closed orders are reclaimed, so takes against them report the same
	// condition.
	ErrOrderNotFound = errors.New("escrow: order not found")
	// ErrInvalidTokenOwner indicates a supplied funding account is not owned
	// by the expected party.
	ErrInvalidTokenOwner = errors.New("escrow: token account owner mismatch")
	// ErrInvalidTokenMint indicates an unregistered or mismatched token mint.
	ErrInvalidTokenMint = errors.New("escrow: invalid token mint")
	// ErrInsufficientFunds indicates the payer cannot cover the computed
	// consideration or deposit.
	ErrInsufficientFunds = errors.New("escrow: insufficient funds")
	// ErrInsufficientRemainingAmount indicates a fill larger than the
	// order's remaining offered balance.
	ErrInsufficientRemainingAmount = errors.New("escrow: fill exceeds remaining amount")
	// ErrPdaMismatch indicates the supplied order address or bump does not
	// match the deterministic derivation.
	ErrPdaMismatch = errors.New("escrow: derived address mismatch")
	// ErrInvalidEscrowType indicates an unknown or mismatched escrow type,
	// or pricing parameters malformed for the declared type.
	ErrInvalidEscrowType = errors.New("escrow: invalid escrow type")
	// ErrTimeBoundsInvalid indicates a malformed auction time window.
	ErrTimeBoundsInvalid = errors.New("escrow: auction time bounds invalid")
	// ErrAmountMismatch indicates a Simple take whose amounts differ from
	// the order's fixed terms.
	ErrAmountMismatch = errors.New("escrow: amounts do not match order terms")
	// ErrInvalidAmount indicates a zero, negative or oversized amount.
	ErrInvalidAmount = errors.New("escrow: invalid amount")
	// ErrInvalidInstruction indicates an unknown opcode or a payload that
	// does not match the fixed instruction layout.
	ErrInvalidInstruction = errors.New("escrow: invalid instruction data")
)
