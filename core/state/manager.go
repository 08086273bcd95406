package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"swapescrow/core/types"
	"swapescrow/native/escrow"
	"swapescrow/storage"
)

// ErrInsufficientBalance is returned by Debit and Transfer when the source
// account cannot cover the amount.
var ErrInsufficientBalance = errors.New("state: insufficient balance")

// Manager reads and writes escrow state through a keyed KV store. Order
// records use the engine's fixed binary layout; registry and balance entries
// are RLP encoded. Keys are keccak256 over a typed prefix so namespaces
// cannot collide.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	orderPrefix   = []byte("escrow-order:")
	tokenPrefix   = []byte("token:")
	balancePrefix = []byte("balance:")
	tokenListKey  = ethcrypto.Keccak256([]byte("token-list"))
	genesisKey    = ethcrypto.Keccak256([]byte("genesis-applied"))
)

func orderKey(addr [20]byte) []byte {
	buf := make([]byte, len(orderPrefix)+len(addr))
	copy(buf, orderPrefix)
	copy(buf[len(orderPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

func tokenKey(mint [20]byte) []byte {
	buf := make([]byte, len(tokenPrefix)+len(mint))
	copy(buf, tokenPrefix)
	copy(buf[len(tokenPrefix):], mint[:])
	return ethcrypto.Keccak256(buf)
}

func balanceKey(addr [20]byte, mint [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(mint)+1+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], mint[:])
	buf[len(balancePrefix)+len(mint)] = ':'
	copy(buf[len(balancePrefix)+len(mint)+1:], addr[:])
	return ethcrypto.Keccak256(buf)
}

// OrderPut sanitizes and persists an order record under its derived address.
func (m *Manager) OrderPut(o *escrow.Order) error {
	sanitized, err := escrow.SanitizeOrder(o)
	if err != nil {
		return err
	}
	encoded, err := sanitized.MarshalBinary()
	if err != nil {
		return err
	}
	return m.db.Put(orderKey(sanitized.Address), encoded)
}

// OrderGet returns the live order at the given address, or false when none
// exists.
func (m *Manager) OrderGet(addr [20]byte) (*escrow.Order, bool) {
	data, err := m.db.Get(orderKey(addr))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	order := new(escrow.Order)
	if err := order.UnmarshalBinary(addr, data); err != nil {
		return nil, false
	}
	return order, true
}

// OrderDelete reclaims the storage of a closed order.
func (m *Manager) OrderDelete(addr [20]byte) error {
	return m.db.Delete(orderKey(addr))
}

// RegisterToken stores token metadata and records the mint in the registry
// index. Registration is idempotent for identical metadata.
func (m *Manager) RegisterToken(meta *types.TokenMetadata) error {
	if meta == nil {
		return fmt.Errorf("state: nil token metadata")
	}
	stored := *meta
	stored.Symbol = types.NormalizeSymbol(meta.Symbol)
	if stored.Symbol == "" {
		return fmt.Errorf("state: token symbol required")
	}
	encoded, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return err
	}
	if err := m.db.Put(tokenKey(stored.Mint), encoded); err != nil {
		return err
	}
	list, err := m.loadTokenList()
	if err != nil {
		return err
	}
	for _, existing := range list {
		if existing == stored.Mint {
			return nil
		}
	}
	list = append(list, stored.Mint)
	sort.Slice(list, func(i, j int) bool {
		return string(list[i][:]) < string(list[j][:])
	})
	return m.writeTokenList(list)
}

// Token returns the metadata for a registered mint.
func (m *Manager) Token(mint [20]byte) (*types.TokenMetadata, bool) {
	data, err := m.db.Get(tokenKey(mint))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	meta := new(types.TokenMetadata)
	if err := rlp.DecodeBytes(data, meta); err != nil {
		return nil, false
	}
	return meta, true
}

// TokenExists reports whether a mint is registered.
func (m *Manager) TokenExists(mint [20]byte) bool {
	_, ok := m.Token(mint)
	return ok
}

func (m *Manager) loadTokenList() ([][20]byte, error) {
	data, err := m.db.Get(tokenListKey)
	if err != nil || len(data) == 0 {
		return nil, nil
	}
	var list [][20]byte
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Manager) writeTokenList(list [][20]byte) error {
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(tokenListKey, encoded)
}

// Balance returns the ledger balance of addr in the given mint. Absent
// entries read as zero.
func (m *Manager) Balance(addr [20]byte, mint [20]byte) (*big.Int, error) {
	data, err := m.db.Get(balanceKey(addr, mint))
	if errors.Is(err, storage.ErrKeyNotFound) || len(data) == 0 {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(data, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (m *Manager) writeBalance(addr [20]byte, mint [20]byte, balance *big.Int) error {
	encoded, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return err
	}
	return m.db.Put(balanceKey(addr, mint), encoded)
}

// Credit adds amount to addr's balance in the given mint.
func (m *Manager) Credit(addr [20]byte, mint [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative credit amount")
	}
	balance, err := m.Balance(addr, mint)
	if err != nil {
		return err
	}
	return m.writeBalance(addr, mint, balance.Add(balance, amount))
}

// Debit subtracts amount from addr's balance in the given mint.
func (m *Manager) Debit(addr [20]byte, mint [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative debit amount")
	}
	balance, err := m.Balance(addr, mint)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return m.writeBalance(addr, mint, balance.Sub(balance, amount))
}

// Transfer is the custody primitive: it debits from and credits to in one
// call, failing without effect when the source balance is short.
func (m *Manager) Transfer(from, to [20]byte, mint [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative transfer amount")
	}
	if err := m.Debit(from, mint, amount); err != nil {
		return err
	}
	return m.Credit(to, mint, amount)
}

// Initialized reports whether genesis seeding has been applied.
func (m *Manager) Initialized() (bool, error) {
	return m.db.Has(genesisKey)
}

// SetInitialized marks genesis seeding as applied.
func (m *Manager) SetInitialized() error {
	return m.db.Put(genesisKey, []byte{1})
}
