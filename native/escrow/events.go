package escrow

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"swapescrow/core/types"
)

const (
	EventTypeOrderCreated = "escrow.order.created"
	EventTypeOrderFilled  = "escrow.order.filled"
	EventTypeOrderClosed  = "escrow.order.closed"
)

// NewOrderCreatedEvent returns the canonical payload for a newly admitted
// order.
func NewOrderCreatedEvent(o *Order) *types.Event {
	return newOrderEvent(EventTypeOrderCreated, o, nil)
}

// NewOrderFilledEvent returns the payload emitted for every successful fill,
// including the closing one.
func NewOrderFilledEvent(o *Order, taker [20]byte, offeredDelta, payment *big.Int) *types.Event {
	extra := map[string]string{
		"taker": hex.EncodeToString(taker[:]),
	}
	if offeredDelta != nil {
		extra["offeredDelta"] = offeredDelta.String()
	}
	if payment != nil {
		extra["payment"] = payment.String()
	}
	return newOrderEvent(EventTypeOrderFilled, o, extra)
}

// NewOrderClosedEvent returns the payload emitted when an order's remaining
// balance reaches zero and its storage is reclaimed.
func NewOrderClosedEvent(o *Order) *types.Event {
	return newOrderEvent(EventTypeOrderClosed, o, nil)
}

func newOrderEvent(eventType string, o *Order, extra map[string]string) *types.Event {
	attrs := make(map[string]string)
	if o == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["address"] = hex.EncodeToString(o.Address[:])
	attrs["maker"] = hex.EncodeToString(o.Maker[:])
	attrs["offeredMint"] = hex.EncodeToString(o.OfferedMint[:])
	attrs["requestedMint"] = hex.EncodeToString(o.RequestedMint[:])
	attrs["escrowType"] = o.EscrowType.String()
	attrs["status"] = strconv.FormatUint(uint64(o.Status), 10)
	if o.AmountOfferedTotal != nil {
		attrs["amountOfferedTotal"] = o.AmountOfferedTotal.String()
	}
	if o.AmountOfferedRemaining != nil {
		attrs["amountOfferedRemaining"] = o.AmountOfferedRemaining.String()
	}
	switch o.EscrowType {
	case TypeDutchAuction:
		if o.StartPrice != nil {
			attrs["startPrice"] = o.StartPrice.String()
		}
		if o.EndPrice != nil {
			attrs["endPrice"] = o.EndPrice.String()
		}
		attrs["startTime"] = strconv.FormatInt(o.StartTime, 10)
		attrs["endTime"] = strconv.FormatInt(o.EndTime, 10)
	default:
		if o.AmountRequestedTotal != nil {
			attrs["amountRequestedTotal"] = o.AmountRequestedTotal.String()
		}
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
