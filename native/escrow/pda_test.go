package escrow

import (
	"errors"
	"testing"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	program := newTestAddress(0x01)
	maker := newTestAddress(0x02)
	seed := [2]byte{0xAB, 0xCD}

	addr1, bump1 := DeriveAddress(program, maker, seed)
	addr2, bump2 := DeriveAddress(program, maker, seed)
	if addr1 != addr2 || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: (%x,%d) vs (%x,%d)", addr1, bump1, addr2, bump2)
	}
}

func TestDeriveAddressDistinctInputs(t *testing.T) {
	program := newTestAddress(0x01)
	maker := newTestAddress(0x02)

	base, _ := DeriveAddress(program, maker, [2]byte{0x00, 0x01})
	seen := map[[20]byte]bool{base: true}
	for i := 2; i < 64; i++ {
		addr, _ := DeriveAddress(program, maker, [2]byte{0x00, byte(i)})
		if seen[addr] {
			t.Fatalf("seed %d collided", i)
		}
		seen[addr] = true
	}

	otherMaker, _ := DeriveAddress(program, newTestAddress(0x03), [2]byte{0x00, 0x01})
	if otherMaker == base {
		t.Fatalf("distinct makers must derive distinct addresses")
	}
	otherProgram, _ := DeriveAddress(newTestAddress(0x04), maker, [2]byte{0x00, 0x01})
	if otherProgram == base {
		t.Fatalf("distinct program identities must derive distinct addresses")
	}
}

func TestVerifyOrderAddress(t *testing.T) {
	program := newTestAddress(0x01)
	maker := newTestAddress(0x02)
	seed := [2]byte{0x10, 0x20}
	addr, bump := DeriveAddress(program, maker, seed)

	if err := VerifyOrderAddress(program, addr, maker, seed, bump); err != nil {
		t.Fatalf("expected valid derivation, got %v", err)
	}
	if err := VerifyOrderAddress(program, addr, maker, seed, bump+1); !errors.Is(err, ErrPdaMismatch) {
		t.Fatalf("expected ErrPdaMismatch for wrong bump, got %v", err)
	}
	tampered := addr
	tampered[0] ^= 0xFF
	if err := VerifyOrderAddress(program, tampered, maker, seed, bump); !errors.Is(err, ErrPdaMismatch) {
		t.Fatalf("expected ErrPdaMismatch for wrong address, got %v", err)
	}
	if err := VerifyOrderAddress(program, addr, newTestAddress(0x05), seed, bump); !errors.Is(err, ErrPdaMismatch) {
		t.Fatalf("expected ErrPdaMismatch for wrong maker, got %v", err)
	}
}
