package escrow

import "math/big"

// Pure pricing arithmetic. Nothing here touches engine state; the functions
// reject degenerate inputs instead of saturating so callers cannot mask a
// malformed order.

// PartialConsideration computes the payment a taker owes for consuming delta
// of an order offering totalOffered against totalRequested, using ceiling
// division: ceil(delta * totalRequested / totalOffered). Rounding up protects
// the maker from value leakage through integer truncation, so the result is
// never zero for a positive delta when totalRequested is positive.
func PartialConsideration(delta, totalOffered, totalRequested *big.Int) (*big.Int, error) {
	if delta == nil || delta.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if totalOffered == nil || totalOffered.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if totalRequested == nil || totalRequested.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if delta.Cmp(totalOffered) > 0 {
		return nil, ErrInsufficientRemainingAmount
	}
	num := new(big.Int).Mul(delta, totalRequested)
	num.Add(num, new(big.Int).Sub(totalOffered, big.NewInt(1)))
	return num.Div(num, totalOffered), nil
}

// AuctionPrice evaluates the linear decay schedule at now, clamped to
// [endPrice, startPrice]: before startTime the price is startPrice, at or
// after endTime it is endPrice, and in between it interpolates with integer
// division truncating toward zero. Clamping (rather than rejecting times
// outside the window) keeps the auction takeable once started and caps it at
// the floor price thereafter.
func AuctionPrice(now, startTime, endTime int64, startPrice, endPrice *big.Int) (*big.Int, error) {
	if endTime <= startTime {
		return nil, ErrTimeBoundsInvalid
	}
	if startPrice == nil || endPrice == nil {
		return nil, ErrInvalidAmount
	}
	if endPrice.Sign() < 0 || startPrice.Cmp(endPrice) < 0 {
		return nil, ErrInvalidAmount
	}
	if now <= startTime {
		return new(big.Int).Set(startPrice), nil
	}
	if now >= endTime {
		return new(big.Int).Set(endPrice), nil
	}
	elapsed := big.NewInt(now - startTime)
	duration := big.NewInt(endTime - startTime)
	drop := new(big.Int).Sub(startPrice, endPrice)
	reduction := new(big.Int).Mul(drop, elapsed)
	reduction.Div(reduction, duration)
	return new(big.Int).Sub(startPrice, reduction), nil
}
