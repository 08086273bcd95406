package escrow

import (
	"errors"
	"math/big"
	"testing"
)

func activePartialOrder() *Order {
	return &Order{
		Address:                newTestAddress(0x0A),
		Maker:                  newTestAddress(0x0B),
		OfferedMint:            newTestAddress(0x0C),
		RequestedMint:          newTestAddress(0x0D),
		AmountOfferedTotal:     big.NewInt(1000),
		AmountRequestedTotal:   big.NewInt(500),
		StartPrice:             big.NewInt(0),
		EndPrice:               big.NewInt(0),
		AmountOfferedRemaining: big.NewInt(1000),
		EscrowType:             TypePartial,
		Status:                 StatusActive,
		Seed:                   [2]byte{0x01, 0x02},
		Bump:                   7,
	}
}

func TestApplyFillBookkeeping(t *testing.T) {
	order := activePartialOrder()

	if err := order.ApplyFill(big.NewInt(300)); err != nil {
		t.Fatalf("ApplyFill: %v", err)
	}
	if order.AmountOfferedRemaining.Int64() != 700 {
		t.Fatalf("expected remaining 700, got %s", order.AmountOfferedRemaining)
	}
	if order.Status != StatusActive {
		t.Fatalf("order should remain active with balance left")
	}

	if err := order.ApplyFill(big.NewInt(701)); !errors.Is(err, ErrInsufficientRemainingAmount) {
		t.Fatalf("expected ErrInsufficientRemainingAmount, got %v", err)
	}
	if order.AmountOfferedRemaining.Int64() != 700 {
		t.Fatalf("failed fill must not change remaining, got %s", order.AmountOfferedRemaining)
	}

	if err := order.ApplyFill(big.NewInt(700)); err != nil {
		t.Fatalf("closing fill: %v", err)
	}
	if order.Status != StatusClosed {
		t.Fatalf("order should close at zero remaining")
	}
	if err := order.ApplyFill(big.NewInt(1)); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("closed order must reject fills, got %v", err)
	}
}

func TestSanitizeOrderRejectsBrokenInvariants(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Order)
		want   error
	}{
		{"oracle type", func(o *Order) { o.EscrowType = TypeOracle }, ErrInvalidEscrowType},
		{"unknown type", func(o *Order) { o.EscrowType = EscrowType(9) }, ErrInvalidEscrowType},
		{"zero total", func(o *Order) { o.AmountOfferedTotal = big.NewInt(0) }, ErrInvalidAmount},
		{"nil requested", func(o *Order) { o.AmountRequestedTotal = nil }, ErrInvalidAmount},
		{"remaining above total", func(o *Order) { o.AmountOfferedRemaining = big.NewInt(1001) }, ErrInvalidAmount},
		{"active with zero remaining", func(o *Order) { o.AmountOfferedRemaining = big.NewInt(0) }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := activePartialOrder()
			tc.mutate(order)
			if _, err := SanitizeOrder(order); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSanitizeOrderAuctionSchedule(t *testing.T) {
	order := activePartialOrder()
	order.EscrowType = TypeDutchAuction
	order.AmountRequestedTotal = big.NewInt(0)
	order.StartPrice = big.NewInt(100)
	order.EndPrice = big.NewInt(10)
	order.StartTime = 0
	order.EndTime = 100

	if _, err := SanitizeOrder(order); err != nil {
		t.Fatalf("valid auction rejected: %v", err)
	}

	inverted := order.Clone()
	inverted.StartPrice = big.NewInt(5)
	if _, err := SanitizeOrder(inverted); !errors.Is(err, ErrInvalidEscrowType) {
		t.Fatalf("expected ErrInvalidEscrowType for inverted prices, got %v", err)
	}

	emptyWindow := order.Clone()
	emptyWindow.EndTime = 0
	if _, err := SanitizeOrder(emptyWindow); !errors.Is(err, ErrTimeBoundsInvalid) {
		t.Fatalf("expected ErrTimeBoundsInvalid, got %v", err)
	}
}

func TestSanitizeOrderDoesNotMutateInput(t *testing.T) {
	order := activePartialOrder()
	sanitized, err := SanitizeOrder(order)
	if err != nil {
		t.Fatalf("SanitizeOrder: %v", err)
	}
	if sanitized == order {
		t.Fatalf("sanitize must clone")
	}
	sanitized.AmountOfferedRemaining.SetInt64(1)
	if order.AmountOfferedRemaining.Int64() != 1000 {
		t.Fatalf("sanitize leaked a shared big.Int")
	}
}

func TestOrderCodecRoundTrip(t *testing.T) {
	fixed := activePartialOrder()
	fixed.AmountOfferedRemaining = big.NewInt(700)

	auction := activePartialOrder()
	auction.EscrowType = TypeDutchAuction
	auction.AmountRequestedTotal = big.NewInt(0)
	auction.StartPrice, _ = new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	auction.EndPrice = big.NewInt(10)
	auction.StartTime = 1_700_000_000
	auction.EndTime = 1_700_086_400

	for _, order := range []*Order{fixed, auction} {
		encoded, err := order.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		if len(encoded) != OrderLen {
			t.Fatalf("expected %d bytes, got %d", OrderLen, len(encoded))
		}
		decoded := new(Order)
		if err := decoded.UnmarshalBinary(order.Address, encoded); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		if decoded.Maker != order.Maker || decoded.Seed != order.Seed || decoded.Bump != order.Bump {
			t.Fatalf("identity fields mutated in round trip")
		}
		if decoded.EscrowType != order.EscrowType || decoded.Status != order.Status {
			t.Fatalf("tags mutated in round trip")
		}
		if decoded.AmountOfferedRemaining.Cmp(order.AmountOfferedRemaining) != 0 {
			t.Fatalf("remaining mutated: %s vs %s", decoded.AmountOfferedRemaining, order.AmountOfferedRemaining)
		}
		if decoded.StartPrice.Cmp(order.StartPrice) != 0 || decoded.StartTime != order.StartTime || decoded.EndTime != order.EndTime {
			t.Fatalf("schedule mutated in round trip")
		}
	}
}

func TestOrderCodecRejectsBadLength(t *testing.T) {
	decoded := new(Order)
	if err := decoded.UnmarshalBinary(newTestAddress(0x01), make([]byte, OrderLen-1)); !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestInstructionCodecRoundTrip(t *testing.T) {
	makeIx := &MakeInstruction{
		EscrowType:      TypeDutchAuction,
		Maker:           newTestAddress(0x01),
		FundingAccount:  newTestAddress(0x01),
		OfferedMint:     newTestAddress(0x02),
		RequestedMint:   newTestAddress(0x03),
		AmountOffered:   big.NewInt(10),
		AmountRequested: big.NewInt(100),
		EndPrice:        big.NewInt(10),
		StartTime:       0,
		EndTime:         100,
		Seed:            [2]byte{0x00, 0x07},
		Bump:            42,
		OrderAddress:    newTestAddress(0x04),
	}
	encoded, err := makeIx.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeMakeInstruction(encoded)
	if err != nil {
		t.Fatalf("DecodeMakeInstruction: %v", err)
	}
	if decoded.Maker != makeIx.Maker || decoded.Seed != makeIx.Seed || decoded.Bump != makeIx.Bump {
		t.Fatalf("make instruction identity fields mutated")
	}
	if decoded.AmountRequested.Cmp(makeIx.AmountRequested) != 0 || decoded.EndTime != makeIx.EndTime {
		t.Fatalf("make instruction terms mutated")
	}

	takeIx := &TakeInstruction{
		EscrowType:      TypePartial,
		OrderAddress:    newTestAddress(0x04),
		FundingAccount:  newTestAddress(0x05),
		OfferedAmount:   big.NewInt(300),
		RequestedAmount: big.NewInt(150),
	}
	encoded, err = takeIx.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decodedTake, err := DecodeTakeInstruction(encoded)
	if err != nil {
		t.Fatalf("DecodeTakeInstruction: %v", err)
	}
	if decodedTake.OrderAddress != takeIx.OrderAddress || decodedTake.OfferedAmount.Cmp(takeIx.OfferedAmount) != 0 {
		t.Fatalf("take instruction mutated in round trip")
	}

	if _, err := DecodeMakeInstruction(encoded); !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("expected ErrInvalidInstruction for wrong layout, got %v", err)
	}
	if _, err := DecodeTakeInstruction(nil); !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("expected ErrInvalidInstruction for empty payload, got %v", err)
	}
}
