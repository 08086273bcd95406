package state_test

import (
	"errors"
	"math/big"
	"testing"

	"swapescrow/core/state"
	"swapescrow/core/types"
	"swapescrow/native/escrow"
	"swapescrow/storage"
)

func addr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	return state.NewManager(storage.NewMemDB())
}

func sampleOrder() *escrow.Order {
	return &escrow.Order{
		Address:                addr(0x01),
		Maker:                  addr(0x02),
		OfferedMint:            addr(0x03),
		RequestedMint:          addr(0x04),
		AmountOfferedTotal:     big.NewInt(1000),
		AmountRequestedTotal:   big.NewInt(500),
		StartPrice:             big.NewInt(0),
		EndPrice:               big.NewInt(0),
		AmountOfferedRemaining: big.NewInt(700),
		EscrowType:             escrow.TypePartial,
		Status:                 escrow.StatusActive,
		Seed:                   [2]byte{0xAA, 0xBB},
		Bump:                   3,
	}
}

func TestOrderLifecycle(t *testing.T) {
	manager := newManager(t)

	if _, ok := manager.OrderGet(addr(0x01)); ok {
		t.Fatalf("empty store must not return an order")
	}

	order := sampleOrder()
	if err := manager.OrderPut(order); err != nil {
		t.Fatalf("OrderPut: %v", err)
	}
	loaded, ok := manager.OrderGet(order.Address)
	if !ok {
		t.Fatalf("stored order not found")
	}
	if loaded.Maker != order.Maker || loaded.Seed != order.Seed || loaded.Bump != order.Bump {
		t.Fatalf("identity fields lost in storage round trip")
	}
	if loaded.AmountOfferedRemaining.Cmp(order.AmountOfferedRemaining) != 0 {
		t.Fatalf("remaining %s != %s", loaded.AmountOfferedRemaining, order.AmountOfferedRemaining)
	}
	if loaded.EscrowType != escrow.TypePartial || loaded.Status != escrow.StatusActive {
		t.Fatalf("tags lost in storage round trip")
	}

	if err := manager.OrderDelete(order.Address); err != nil {
		t.Fatalf("OrderDelete: %v", err)
	}
	if _, ok := manager.OrderGet(order.Address); ok {
		t.Fatalf("deleted order still readable")
	}
}

func TestOrderPutRejectsInvalidRecords(t *testing.T) {
	manager := newManager(t)

	broken := sampleOrder()
	broken.AmountOfferedRemaining = big.NewInt(1001)
	if err := manager.OrderPut(broken); !errors.Is(err, escrow.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, ok := manager.OrderGet(broken.Address); ok {
		t.Fatalf("rejected record must not be stored")
	}

	oracle := sampleOrder()
	oracle.EscrowType = escrow.TypeOracle
	if err := manager.OrderPut(oracle); !errors.Is(err, escrow.ErrInvalidEscrowType) {
		t.Fatalf("expected ErrInvalidEscrowType, got %v", err)
	}
}

func TestTokenRegistry(t *testing.T) {
	manager := newManager(t)
	mint := addr(0x10)

	if manager.TokenExists(mint) {
		t.Fatalf("unregistered mint must not exist")
	}
	meta := &types.TokenMetadata{Mint: mint, Symbol: "tka", Name: "Token A", Decimals: 6}
	if err := manager.RegisterToken(meta); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	if !manager.TokenExists(mint) {
		t.Fatalf("registered mint not found")
	}
	loaded, ok := manager.Token(mint)
	if !ok {
		t.Fatalf("token metadata not found")
	}
	if loaded.Symbol != "TKA" {
		t.Fatalf("symbol not normalized, got %q", loaded.Symbol)
	}
	if loaded.Decimals != 6 || loaded.Name != "Token A" {
		t.Fatalf("metadata lost in round trip: %+v", loaded)
	}

	// Re-registration is idempotent.
	if err := manager.RegisterToken(meta); err != nil {
		t.Fatalf("repeat RegisterToken: %v", err)
	}

	if err := manager.RegisterToken(&types.TokenMetadata{Mint: addr(0x11)}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
	if err := manager.RegisterToken(nil); err == nil {
		t.Fatalf("expected error for nil metadata")
	}
}

func TestBalanceLedger(t *testing.T) {
	manager := newManager(t)
	mint := addr(0x10)
	alice := addr(0x20)
	bob := addr(0x21)

	balance, err := manager.Balance(alice, mint)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("absent balance must read zero, got %s", balance)
	}

	if err := manager.Credit(alice, mint, big.NewInt(100)); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := manager.Debit(alice, mint, big.NewInt(101)); !errors.Is(err, state.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := manager.Transfer(alice, bob, mint, big.NewInt(30)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	aliceBal, _ := manager.Balance(alice, mint)
	bobBal, _ := manager.Balance(bob, mint)
	if aliceBal.Int64() != 70 || bobBal.Int64() != 30 {
		t.Fatalf("expected 70/30 split, got %s/%s", aliceBal, bobBal)
	}

	if err := manager.Transfer(alice, bob, mint, big.NewInt(71)); !errors.Is(err, state.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance on short transfer, got %v", err)
	}
	aliceBal, _ = manager.Balance(alice, mint)
	bobBal, _ = manager.Balance(bob, mint)
	if aliceBal.Int64() != 70 || bobBal.Int64() != 30 {
		t.Fatalf("failed transfer must not move funds, got %s/%s", aliceBal, bobBal)
	}

	if err := manager.Credit(alice, mint, big.NewInt(-1)); err == nil {
		t.Fatalf("expected error for negative credit")
	}
	if err := manager.Transfer(alice, bob, mint, nil); err != nil {
		t.Fatalf("nil transfer amount must be a no-op, got %v", err)
	}
}

func TestGenesisMarker(t *testing.T) {
	manager := newManager(t)

	initialized, err := manager.Initialized()
	if err != nil {
		t.Fatalf("Initialized: %v", err)
	}
	if initialized {
		t.Fatalf("fresh store must not be initialized")
	}
	if err := manager.SetInitialized(); err != nil {
		t.Fatalf("SetInitialized: %v", err)
	}
	initialized, err = manager.Initialized()
	if err != nil {
		t.Fatalf("Initialized: %v", err)
	}
	if !initialized {
		t.Fatalf("marker not persisted")
	}
}

func TestManagerBacksEscrowEngine(t *testing.T) {
	manager := newManager(t)
	program := addr(0xEE)
	mintA := addr(0x30)
	mintB := addr(0x31)
	makerAddr := addr(0x40)
	takerAddr := addr(0x41)

	for i, mint := range [][20]byte{mintA, mintB} {
		meta := &types.TokenMetadata{Mint: mint, Symbol: string(rune('A' + i)), Decimals: 6}
		if err := manager.RegisterToken(meta); err != nil {
			t.Fatalf("RegisterToken: %v", err)
		}
	}
	if err := manager.Credit(makerAddr, mintA, big.NewInt(100)); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := manager.Credit(takerAddr, mintB, big.NewInt(50)); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	engine := escrow.NewEngine(program)
	engine.SetState(manager)

	seed := [2]byte{0x00, 0x01}
	orderAddr, bump := escrow.DeriveAddress(program, makerAddr, seed)
	makeIx := &escrow.MakeInstruction{
		EscrowType:      escrow.TypeSimple,
		Maker:           makerAddr,
		FundingAccount:  makerAddr,
		OfferedMint:     mintA,
		RequestedMint:   mintB,
		AmountOffered:   big.NewInt(100),
		AmountRequested: big.NewInt(50),
		Seed:            seed,
		Bump:            bump,
		OrderAddress:    orderAddr,
	}
	if _, err := engine.HandleMake(makeIx, makerAddr); err != nil {
		t.Fatalf("HandleMake over manager: %v", err)
	}
	takeIx := &escrow.TakeInstruction{
		EscrowType:      escrow.TypeSimple,
		OrderAddress:    orderAddr,
		FundingAccount:  takerAddr,
		OfferedAmount:   big.NewInt(100),
		RequestedAmount: big.NewInt(50),
	}
	if err := engine.HandleTake(takeIx, takerAddr); err != nil {
		t.Fatalf("HandleTake over manager: %v", err)
	}

	makerBal, _ := manager.Balance(makerAddr, mintB)
	takerBal, _ := manager.Balance(takerAddr, mintA)
	if makerBal.Int64() != 50 || takerBal.Int64() != 100 {
		t.Fatalf("settlement mismatch: maker %s, taker %s", makerBal, takerBal)
	}
	if _, ok := manager.OrderGet(orderAddr); ok {
		t.Fatalf("closed order must be deleted from state")
	}
}
