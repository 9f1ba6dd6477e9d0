// Package book implements the per-symbol two-sided order book: sorted
// price levels, FIFO queues within a level, and the pending trigger table
// for STOP/STOP_LIMIT/TAKE_PROFIT orders. It holds no matching logic of its
// own — see package matching for the state machine that mutates a Book.
package book

import (
	"errors"
	"fmt"

	"venue/internal/domain"
	"venue/internal/money"
)

var (
	ErrCrossingInsert = errors.New("book: resting order would cross the opposite side's best")
	ErrNotLimitOrder  = errors.New("book: only limit orders may rest")
)

// Book is the two-sided order book for a single symbol.
type Book struct {
	Symbol         domain.Symbol
	Bids           *BookSide
	Asks           *BookSide
	LastTradePrice *money.Price
	Triggers       *TriggerTable
}

func New(symbol domain.Symbol) *Book {
	return &Book{
		Symbol:   symbol,
		Bids:     newBidSide(),
		Asks:     newAskSide(),
		Triggers: NewTriggerTable(),
	}
}

func (b *Book) sideFor(s domain.Side) *BookSide {
	if s == domain.Buy {
		return b.Bids
	}
	return b.Asks
}

// AddResting inserts order into the book on its own side. Preconditions:
// order is a LIMIT (or an IOC/FOK never reaches here — only residual LIMIT
// quantity rests) with a defined limit price and positive remaining
// quantity, and the insertion does not cross the opposite side's best.
func (b *Book) AddResting(order *domain.Order) error {
	if order.LimitPrice == nil {
		return ErrNotLimitOrder
	}
	if !order.Remaining().IsPositive() {
		return fmt.Errorf("book: cannot rest order with non-positive remaining quantity")
	}
	opposite := b.sideFor(order.Side.Opposite())
	if best, ok := opposite.Best(); ok {
		if Marketable(order.Side, order.LimitPrice, best.Price) {
			return ErrCrossingInsert
		}
	}
	b.sideFor(order.Side).AddResting(order)
	return nil
}

// Cancel removes a resting order by ID from whichever side it rests on.
func (b *Book) Cancel(id domain.OrderID) (*domain.Order, bool) {
	if o, ok := b.Bids.Cancel(id); ok {
		return o, true
	}
	return b.Asks.Cancel(id)
}

func (b *Book) BestBid() (money.Price, bool) {
	lvl, ok := b.Bids.Best()
	if !ok {
		return money.Price{}, false
	}
	return lvl.Price, true
}

func (b *Book) BestAsk() (money.Price, bool) {
	lvl, ok := b.Asks.Best()
	if !ok {
		return money.Price{}, false
	}
	return lvl.Price, true
}

// TopN returns, for each side, up to n (price, aggregate remaining) pairs
// in best-first order.
func (b *Book) TopN(n int) (bids, asks []LevelView) {
	return b.Bids.TopN(n), b.Asks.TopN(n)
}

// DepthMarketable sums remaining quantity on the side opposite takerSide
// that is marketable against limitPrice (or the whole opposite side if
// limitPrice is nil). Used by the FOK precheck: a BUY queries asks, a SELL
// queries bids.
func (b *Book) DepthMarketable(takerSide domain.Side, limitPrice *money.Price) money.Quantity {
	return b.sideFor(takerSide.Opposite()).DepthMarketable(takerSide, limitPrice)
}

// CheckInvariants verifies the invariants visible in the book's current
// state: the book is not crossed, no price level is empty, and every resting
// order has positive remaining quantity. Arrival order within a level and
// conservation of filled quantity against trades are not checked here. It is
// exercised by the book tests and called by the engine facade after every
// submission, which quarantines a symbol if this ever fails — a result that
// indicates a bug, never expected input.
func (b *Book) CheckInvariants() error {
	if bestBid, ok := b.BestBid(); ok {
		if bestAsk, ok := b.BestAsk(); ok {
			if !bestBid.LessThan(bestAsk) {
				return fmt.Errorf("book: crossed book: best_bid=%s best_ask=%s", bestBid, bestAsk)
			}
		}
	}
	for _, side := range []*BookSide{b.Bids, b.Asks} {
		for _, lvl := range side.Items() {
			if lvl.Empty() {
				return fmt.Errorf("book: empty price level present at %s", lvl.Price)
			}
			for _, o := range lvl.Orders {
				if !o.Remaining().IsPositive() {
					return fmt.Errorf("book: resting order %s has non-positive remaining", o.ID)
				}
			}
		}
	}
	return nil
}
