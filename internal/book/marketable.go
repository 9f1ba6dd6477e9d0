package book

import (
	"venue/internal/domain"
	"venue/internal/money"
)

// Marketable implements the marketability predicate from the matching
// state machine design: given the taker's side and (optional) limit price,
// is a resting level at levelPrice eligible to trade against it?
//
// A nil limitPrice means "marketable at any price" — this is exactly the
// case for MARKET orders (which never carry a limit price by construction)
// and for IOC/FOK orders submitted without one. Expressed as a plain
// predicate function rather than a closure captured over the incoming
// order, per the design notes: no closure capture is required.
func Marketable(side domain.Side, limitPrice *money.Price, levelPrice money.Price) bool {
	if limitPrice == nil {
		return true
	}
	if side == domain.Buy {
		return !levelPrice.GreaterThan(*limitPrice) // levelPrice <= limitPrice
	}
	return !levelPrice.LessThan(*limitPrice) // levelPrice >= limitPrice
}
