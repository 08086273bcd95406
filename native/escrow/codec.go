package escrow

import (
	"encoding/binary"
	"math/big"
)

// Fixed binary layouts. Byte order and field widths are stable across
// versions so records written by one build remain readable by the next:
// amounts are 32-byte big-endian words, timestamps 8-byte big-endian, and
// every field sits at a fixed offset.

// OrderLen is the serialized size of an Order record.
const OrderLen = 241

const (
	orderOffMaker         = 0
	orderOffOfferedMint   = 20
	orderOffRequestedMint = 40
	orderOffTotal         = 60
	orderOffRequested     = 92
	orderOffStartPrice    = 124
	orderOffEndPrice      = 156
	orderOffStartTime     = 188
	orderOffEndTime       = 196
	orderOffRemaining     = 204
	orderOffType          = 236
	orderOffStatus        = 237
	orderOffSeed          = 238
	orderOffBump          = 240
)

// MarshalBinary encodes the order into the fixed layout. The derived address
// is the storage key and is not repeated in the record.
func (o *Order) MarshalBinary() ([]byte, error) {
	buf := make([]byte, OrderLen)
	copy(buf[orderOffMaker:], o.Maker[:])
	copy(buf[orderOffOfferedMint:], o.OfferedMint[:])
	copy(buf[orderOffRequestedMint:], o.RequestedMint[:])
	if err := putAmount(buf[orderOffTotal:orderOffTotal+32], o.AmountOfferedTotal); err != nil {
		return nil, err
	}
	if err := putAmount(buf[orderOffRequested:orderOffRequested+32], o.AmountRequestedTotal); err != nil {
		return nil, err
	}
	if err := putAmount(buf[orderOffStartPrice:orderOffStartPrice+32], o.StartPrice); err != nil {
		return nil, err
	}
	if err := putAmount(buf[orderOffEndPrice:orderOffEndPrice+32], o.EndPrice); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(buf[orderOffStartTime:], uint64(o.StartTime))
	binary.BigEndian.PutUint64(buf[orderOffEndTime:], uint64(o.EndTime))
	if err := putAmount(buf[orderOffRemaining:orderOffRemaining+32], o.AmountOfferedRemaining); err != nil {
		return nil, err
	}
	buf[orderOffType] = byte(o.EscrowType)
	buf[orderOffStatus] = byte(o.Status)
	copy(buf[orderOffSeed:], o.Seed[:])
	buf[orderOffBump] = o.Bump
	return buf, nil
}

// UnmarshalBinary decodes an order record written by MarshalBinary. The
// caller supplies the address the record was keyed under.
func (o *Order) UnmarshalBinary(addr [20]byte, data []byte) error {
	if len(data) != OrderLen {
		return ErrInvalidInstruction
	}
	o.Address = addr
	copy(o.Maker[:], data[orderOffMaker:])
	copy(o.OfferedMint[:], data[orderOffOfferedMint:])
	copy(o.RequestedMint[:], data[orderOffRequestedMint:])
	o.AmountOfferedTotal = getAmount(data[orderOffTotal : orderOffTotal+32])
	o.AmountRequestedTotal = getAmount(data[orderOffRequested : orderOffRequested+32])
	o.StartPrice = getAmount(data[orderOffStartPrice : orderOffStartPrice+32])
	o.EndPrice = getAmount(data[orderOffEndPrice : orderOffEndPrice+32])
	o.StartTime = int64(binary.BigEndian.Uint64(data[orderOffStartTime:]))
	o.EndTime = int64(binary.BigEndian.Uint64(data[orderOffEndTime:]))
	o.AmountOfferedRemaining = getAmount(data[orderOffRemaining : orderOffRemaining+32])
	o.EscrowType = EscrowType(data[orderOffType])
	o.Status = OrderStatus(data[orderOffStatus])
	copy(o.Seed[:], data[orderOffSeed:])
	o.Bump = data[orderOffBump]
	return nil
}

// MakeInstructionLen is the serialized size of a Make payload.
const MakeInstructionLen = 216

// MakeInstruction is the decoded payload of a Make request. For Dutch
// auction orders AmountRequested carries the start price.
type MakeInstruction struct {
	EscrowType      EscrowType
	Maker           [20]byte
	FundingAccount  [20]byte
	OfferedMint     [20]byte
	RequestedMint   [20]byte
	AmountOffered   *big.Int
	AmountRequested *big.Int
	EndPrice        *big.Int
	StartTime       int64
	EndTime         int64
	Seed            [2]byte
	Bump            uint8
	OrderAddress    [20]byte
}

// Encode serializes the instruction into the fixed Make layout.
func (ix *MakeInstruction) Encode() ([]byte, error) {
	buf := make([]byte, MakeInstructionLen)
	buf[0] = byte(ix.EscrowType)
	copy(buf[1:], ix.Maker[:])
	copy(buf[21:], ix.FundingAccount[:])
	copy(buf[41:], ix.OfferedMint[:])
	copy(buf[61:], ix.RequestedMint[:])
	if err := putAmount(buf[81:113], ix.AmountOffered); err != nil {
		return nil, err
	}
	if err := putAmount(buf[113:145], ix.AmountRequested); err != nil {
		return nil, err
	}
	if err := putAmount(buf[145:177], ix.EndPrice); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(buf[177:], uint64(ix.StartTime))
	binary.BigEndian.PutUint64(buf[185:], uint64(ix.EndTime))
	copy(buf[193:], ix.Seed[:])
	buf[195] = ix.Bump
	copy(buf[196:], ix.OrderAddress[:])
	return buf, nil
}

// DecodeMakeInstruction parses a Make payload.
func DecodeMakeInstruction(data []byte) (*MakeInstruction, error) {
	if len(data) != MakeInstructionLen {
		return nil, ErrInvalidInstruction
	}
	ix := &MakeInstruction{EscrowType: EscrowType(data[0])}
	copy(ix.Maker[:], data[1:])
	copy(ix.FundingAccount[:], data[21:])
	copy(ix.OfferedMint[:], data[41:])
	copy(ix.RequestedMint[:], data[61:])
	ix.AmountOffered = getAmount(data[81:113])
	ix.AmountRequested = getAmount(data[113:145])
	ix.EndPrice = getAmount(data[145:177])
	ix.StartTime = int64(binary.BigEndian.Uint64(data[177:]))
	ix.EndTime = int64(binary.BigEndian.Uint64(data[185:]))
	copy(ix.Seed[:], data[193:])
	ix.Bump = data[195]
	copy(ix.OrderAddress[:], data[196:])
	return ix, nil
}

// TakeInstructionLen is the serialized size of a Take payload.
const TakeInstructionLen = 105

// TakeInstruction is the decoded payload of a Take request. RequestedAmount
// is the taker's payment for fixed-rate orders and the maximum bid for
// auctions.
type TakeInstruction struct {
	EscrowType      EscrowType
	OrderAddress    [20]byte
	FundingAccount  [20]byte
	OfferedAmount   *big.Int
	RequestedAmount *big.Int
}

// Encode serializes the instruction into the fixed Take layout.
func (ix *TakeInstruction) Encode() ([]byte, error) {
	buf := make([]byte, TakeInstructionLen)
	buf[0] = byte(ix.EscrowType)
	copy(buf[1:], ix.OrderAddress[:])
	copy(buf[21:], ix.FundingAccount[:])
	if err := putAmount(buf[41:73], ix.OfferedAmount); err != nil {
		return nil, err
	}
	if err := putAmount(buf[73:105], ix.RequestedAmount); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeTakeInstruction parses a Take payload.
func DecodeTakeInstruction(data []byte) (*TakeInstruction, error) {
	if len(data) != TakeInstructionLen {
		return nil, ErrInvalidInstruction
	}
	ix := &TakeInstruction{EscrowType: EscrowType(data[0])}
	copy(ix.OrderAddress[:], data[1:])
	copy(ix.FundingAccount[:], data[21:])
	ix.OfferedAmount = getAmount(data[41:73])
	ix.RequestedAmount = getAmount(data[73:105])
	return ix, nil
}

func putAmount(dst []byte, v *big.Int) error {
	if v == nil {
		v = big.NewInt(0)
	}
	if v.Sign() < 0 || v.Cmp(maxAmount) > 0 {
		return ErrInvalidAmount
	}
	v.FillBytes(dst)
	return nil
}

func getAmount(src []byte) *big.Int {
	return new(big.Int).SetBytes(src)
}
