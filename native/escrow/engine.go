package escrow

import (
	"errors"
	"math/big"
	"time"

	"swapescrow/core/events"
	"swapescrow/core/types"
	nativecommon "swapescrow/native/common"
)

var errNilState = errors.New("escrow engine: state not configured")

const moduleName = "escrow"

// engineState is the ledger and custody contract the engine operates
// against. Orders are read fresh on every request; Transfer is the custody
// primitive and must be atomic or failing.
type engineState interface {
	OrderPut(*Order) error
	OrderGet(addr [20]byte) (*Order, bool)
	OrderDelete(addr [20]byte) error
	TokenExists(mint [20]byte) bool
	Balance(addr [20]byte, mint [20]byte) (*big.Int, error)
	Transfer(from, to [20]byte, mint [20]byte, amount *big.Int) error
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine implements the escrow state machine: order admission, per-type fill
// computation and closure. Each handler validates everything first and only
// then mutates state, so a failed request leaves no residue; the embedding
// host serializes requests touching the same order, and the engine always
// recomputes eligibility against a freshly read record.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	pauses    nativecommon.PauseView
	programID [20]byte
	nowFn     func() int64
}

// NewEngine creates an escrow engine bound to the given program identity.
// The identity participates in address derivation and is immutable for the
// lifetime of the engine.
func NewEngine(programID [20]byte) *Engine {
	return &Engine{
		programID: programID,
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses configures the administrative pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// ProgramID returns the immutable program identity.
func (e *Engine) ProgramID() [20]byte { return e.programID }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Order returns the live order at the given address.
func (e *Engine) Order(addr [20]byte) (*Order, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	order, ok := e.state.OrderGet(addr)
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// HandleMake admits a new order: it validates the maker's identity, the
// type-specific pricing terms and the derived address, then persists the
// record and escrows the offered deposit under the order address. Returns
// the order address on success.
func (e *Engine) HandleMake(ix *MakeInstruction, signer [20]byte) ([20]byte, error) {
	var zero [20]byte
	if e == nil || e.state == nil {
		return zero, errNilState
	}
	if ix == nil {
		return zero, ErrInvalidInstruction
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return zero, err
	}
	if err := RequireSigner(signer, ix.Maker); err != nil {
		return zero, err
	}
	if err := RequireAccountOwner(ix.FundingAccount, signer); err != nil {
		return zero, err
	}
	if err := validateMakeTerms(ix); err != nil {
		return zero, err
	}
	if err := e.requireMints(ix.OfferedMint, ix.RequestedMint); err != nil {
		return zero, err
	}
	if err := VerifyOrderAddress(e.programID, ix.OrderAddress, ix.Maker, ix.Seed, ix.Bump); err != nil {
		return zero, err
	}
	if _, exists := e.state.OrderGet(ix.OrderAddress); exists {
		return zero, ErrEscrowAlreadyExists
	}
	balance, err := e.state.Balance(ix.FundingAccount, ix.OfferedMint)
	if err != nil {
		return zero, err
	}
	if balance.Cmp(ix.AmountOffered) < 0 {
		return zero, ErrInsufficientFunds
	}

	order := &Order{
		Address:                ix.OrderAddress,
		Maker:                  ix.Maker,
		OfferedMint:            ix.OfferedMint,
		RequestedMint:          ix.RequestedMint,
		AmountOfferedTotal:     cloneBigInt(ix.AmountOffered),
		AmountOfferedRemaining: cloneBigInt(ix.AmountOffered),
		EscrowType:             ix.EscrowType,
		Status:                 StatusActive,
		Seed:                   ix.Seed,
		Bump:                   ix.Bump,
	}
	switch ix.EscrowType {
	case TypeDutchAuction:
		order.StartPrice = cloneBigInt(ix.AmountRequested)
		order.EndPrice = cloneBigInt(ix.EndPrice)
		order.StartTime = ix.StartTime
		order.EndTime = ix.EndTime
		order.AmountRequestedTotal = big.NewInt(0)
	default:
		order.AmountRequestedTotal = cloneBigInt(ix.AmountRequested)
		order.StartPrice = big.NewInt(0)
		order.EndPrice = big.NewInt(0)
	}
	if err := e.state.OrderPut(order); err != nil {
		return zero, err
	}
	if err := e.state.Transfer(ix.FundingAccount, order.Address, ix.OfferedMint, order.AmountOfferedTotal); err != nil {
		return zero, err
	}
	e.emit(NewOrderCreatedEvent(order))
	return order.Address, nil
}

// fillTerms is the fully computed effect of a Take, staged before any state
// is touched.
type fillTerms struct {
	offeredDelta *big.Int
	payment      *big.Int
}

// HandleTake executes a fill against a live order. It re-reads the record,
// dispatches on the stored escrow type, computes the two transfer legs, and
// applies the ledger decrement and both token movements only after every
// check has passed.
func (e *Engine) HandleTake(ix *TakeInstruction, signer [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if ix == nil {
		return ErrInvalidInstruction
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := RequireAccountOwner(ix.FundingAccount, signer); err != nil {
		return err
	}
	order, ok := e.state.OrderGet(ix.OrderAddress)
	if !ok {
		return ErrOrderNotFound
	}
	if order.Status != StatusActive {
		return ErrOrderNotFound
	}
	if err := VerifyOrderAddress(e.programID, order.Address, order.Maker, order.Seed, order.Bump); err != nil {
		return err
	}
	if ix.EscrowType != order.EscrowType {
		return ErrInvalidEscrowType
	}

	terms, err := e.computeFill(order, ix)
	if err != nil {
		return err
	}
	balance, err := e.state.Balance(ix.FundingAccount, order.RequestedMint)
	if err != nil {
		return err
	}
	if balance.Cmp(terms.payment) < 0 {
		return ErrInsufficientFunds
	}
	escrowed, err := e.state.Balance(order.Address, order.OfferedMint)
	if err != nil {
		return err
	}
	if escrowed.Cmp(terms.offeredDelta) < 0 {
		return ErrInsufficientRemainingAmount
	}
	if err := order.ApplyFill(terms.offeredDelta); err != nil {
		return err
	}

	// Commit: both legs plus the ledger update. Balances were checked
	// above, so a failure past this point is systemic and surfaces to the
	// host's unit-of-work boundary.
	if err := e.state.Transfer(order.Address, signer, order.OfferedMint, terms.offeredDelta); err != nil {
		return err
	}
	if err := e.state.Transfer(ix.FundingAccount, order.Maker, order.RequestedMint, terms.payment); err != nil {
		return err
	}
	if order.Status == StatusClosed {
		if err := e.state.OrderDelete(order.Address); err != nil {
			return err
		}
		e.emit(NewOrderFilledEvent(order, signer, terms.offeredDelta, terms.payment))
		e.emit(NewOrderClosedEvent(order))
		return nil
	}
	if err := e.state.OrderPut(order); err != nil {
		return err
	}
	e.emit(NewOrderFilledEvent(order, signer, terms.offeredDelta, terms.payment))
	return nil
}

func (e *Engine) computeFill(order *Order, ix *TakeInstruction) (fillTerms, error) {
	switch order.EscrowType {
	case TypeSimple:
		if ix.OfferedAmount == nil || ix.OfferedAmount.Cmp(order.AmountOfferedTotal) != 0 {
			return fillTerms{}, ErrAmountMismatch
		}
		if ix.RequestedAmount == nil || ix.RequestedAmount.Cmp(order.AmountRequestedTotal) != 0 {
			return fillTerms{}, ErrAmountMismatch
		}
		return fillTerms{
			offeredDelta: cloneBigInt(order.AmountOfferedTotal),
			payment:      cloneBigInt(order.AmountRequestedTotal),
		}, nil
	case TypePartial:
		delta := ix.OfferedAmount
		if delta == nil || delta.Sign() <= 0 {
			return fillTerms{}, ErrInvalidAmount
		}
		if delta.Cmp(order.AmountOfferedRemaining) > 0 {
			return fillTerms{}, ErrInsufficientRemainingAmount
		}
		payment, err := PartialConsideration(delta, order.AmountOfferedTotal, order.AmountRequestedTotal)
		if err != nil {
			return fillTerms{}, err
		}
		return fillTerms{offeredDelta: cloneBigInt(delta), payment: payment}, nil
	case TypeDutchAuction:
		delta := ix.OfferedAmount
		if delta == nil || delta.Sign() <= 0 {
			return fillTerms{}, ErrInvalidAmount
		}
		if delta.Cmp(order.AmountOfferedRemaining) > 0 {
			return fillTerms{}, ErrInsufficientRemainingAmount
		}
		price, err := AuctionPrice(e.now(), order.StartTime, order.EndTime, order.StartPrice, order.EndPrice)
		if err != nil {
			return fillTerms{}, err
		}
		payment := new(big.Int).Mul(delta, price)
		// RequestedAmount is the taker's maximum bid; the computed
		// consideration must not exceed it.
		if ix.RequestedAmount == nil || ix.RequestedAmount.Cmp(payment) < 0 {
			return fillTerms{}, ErrInsufficientFunds
		}
		return fillTerms{offeredDelta: cloneBigInt(delta), payment: payment}, nil
	default:
		return fillTerms{}, ErrInvalidEscrowType
	}
}
