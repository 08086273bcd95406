package escrow

import (
	"math/big"
)

// EscrowType is the closed set of trade shapes an order can take. Take logic
// dispatches on this tag with an exhaustive switch.
type EscrowType uint8

const (
	// TypeSimple is a fixed-rate, all-or-nothing exchange.
	TypeSimple EscrowType = 0
	// TypePartial allows multiple counterparties to consume one order
	// incrementally at the order's fixed rate.
	TypePartial EscrowType = 1
	// TypeDutchAuction prices the offered token with a linearly decaying
	// per-unit schedule between StartTime and EndTime.
	TypeDutchAuction EscrowType = 2
	// TypeOracle is reserved; orders of this type are rejected.
	TypeOracle EscrowType = 3
)

// Valid reports whether the type is one the engine will admit.
func (t EscrowType) Valid() bool {
	switch t {
	case TypeSimple, TypePartial, TypeDutchAuction:
		return true
	default:
		return false
	}
}

func (t EscrowType) String() string {
	switch t {
	case TypeSimple:
		return "simple"
	case TypePartial:
		return "partial"
	case TypeDutchAuction:
		return "dutch_auction"
	case TypeOracle:
		return "oracle"
	default:
		return "unknown"
	}
}

// OrderStatus is the order lifecycle tag. The only transition is
// Active -> Closed, exactly once.
type OrderStatus uint8

const (
	StatusActive OrderStatus = 0
	StatusClosed OrderStatus = 1
)

// Valid reports whether the status value is within the supported range.
func (s OrderStatus) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

// maxAmount bounds every amount and price at 256 bits so the fixed binary
// order layout stays stable.
var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Order is the persisted record of one escrow trade. All fields except
// AmountOfferedRemaining and Status are immutable after creation. The
// record and its custody balance are owned exclusively by Address, the
// deterministic derivation over (Maker, Seed).
type Order struct {
	Address       [20]byte
	Maker         [20]byte
	OfferedMint   [20]byte
	RequestedMint [20]byte

	AmountOfferedTotal   *big.Int
	AmountRequestedTotal *big.Int

	// Dutch auction schedule. StartPrice doubles as the requested amount
	// field on the wire; the remaining fields are zero for fixed-rate
	// orders.
	StartPrice *big.Int
	EndPrice   *big.Int
	StartTime  int64
	EndTime    int64

	AmountOfferedRemaining *big.Int

	EscrowType EscrowType
	Status     OrderStatus
	Seed       [2]byte
	Bump       uint8
}

// Clone returns a deep copy so callers can mutate the result without
// affecting the stored instance.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.AmountOfferedTotal = cloneBigInt(o.AmountOfferedTotal)
	clone.AmountRequestedTotal = cloneBigInt(o.AmountRequestedTotal)
	clone.StartPrice = cloneBigInt(o.StartPrice)
	clone.EndPrice = cloneBigInt(o.EndPrice)
	clone.AmountOfferedRemaining = cloneBigInt(o.AmountOfferedRemaining)
	return &clone
}

// ApplyFill decrements the remaining offered balance by delta and closes the
// order when it reaches zero. The caller must have validated delta against
// a freshly read record.
func (o *Order) ApplyFill(delta *big.Int) error {
	if o == nil {
		return ErrOrderNotFound
	}
	if o.Status != StatusActive {
		return ErrOrderNotFound
	}
	if delta == nil || delta.Sign() <= 0 {
		return ErrInvalidAmount
	}
	remaining := cloneBigInt(o.AmountOfferedRemaining)
	if remaining.Cmp(delta) < 0 {
		return ErrInsufficientRemainingAmount
	}
	remaining.Sub(remaining, delta)
	o.AmountOfferedRemaining = remaining
	if remaining.Sign() == 0 {
		o.Status = StatusClosed
	}
	return nil
}

// SanitizeOrder validates the order invariants and returns a cloned instance
// with non-nil amount fields. The original value is not mutated.
func SanitizeOrder(o *Order) (*Order, error) {
	if o == nil {
		return nil, ErrOrderNotFound
	}
	clone := o.Clone()
	if !clone.Status.Valid() {
		return nil, ErrInvalidEscrowType
	}
	if clone.EscrowType == TypeOracle || !clone.EscrowType.Valid() {
		return nil, ErrInvalidEscrowType
	}
	if err := requireAmount(clone.AmountOfferedTotal); err != nil {
		return nil, err
	}
	switch clone.EscrowType {
	case TypeSimple, TypePartial:
		if err := requireAmount(clone.AmountRequestedTotal); err != nil {
			return nil, err
		}
	case TypeDutchAuction:
		if clone.StartPrice.Sign() <= 0 || clone.EndPrice.Sign() < 0 {
			return nil, ErrInvalidEscrowType
		}
		if clone.StartPrice.Cmp(clone.EndPrice) <= 0 {
			return nil, ErrInvalidEscrowType
		}
		if clone.StartTime >= clone.EndTime {
			return nil, ErrTimeBoundsInvalid
		}
	}
	remaining := clone.AmountOfferedRemaining
	if remaining.Sign() < 0 || remaining.Cmp(clone.AmountOfferedTotal) > 0 {
		return nil, ErrInvalidAmount
	}
	if clone.Status == StatusActive && remaining.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	return clone, nil
}

func requireAmount(v *big.Int) error {
	if v == nil || v.Sign() <= 0 || v.Cmp(maxAmount) > 0 {
		return ErrInvalidAmount
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
