// Package matching implements the core state machine: given an accepted
// order and a reference to its symbol's book, it mutates the book and
// produces the ordered trade list and post-match BBO the engine facade
// publishes. It holds no concurrency of its own — the engine facade
// guarantees at most one ProcessOrder executes against a given book at a
// time.
package matching

import (
	"time"

	"github.com/shopspring/decimal"

	"venue/internal/book"
	"venue/internal/domain"
	"venue/internal/money"
)

// DefaultMaxTriggerCascade bounds how many STOP/STOP_LIMIT/TAKE_PROFIT
// activations a single submission may cascade through before the engine
// gives up and preserves the rest for a future trade.
const DefaultMaxTriggerCascade = 64

// Config carries the parameters the matcher needs beyond the book and the
// incoming order: fee rates (configuration, never trade state — see
// domain.Trade) and the trigger cascade bound.
type Config struct {
	MakerFeeRate      decimal.Decimal
	TakerFeeRate      decimal.Decimal
	MaxTriggerCascade int
}

func (c Config) cascadeBound() int {
	if c.MaxTriggerCascade <= 0 {
		return DefaultMaxTriggerCascade
	}
	return c.MaxTriggerCascade
}

// BBO is the post-match best bid/offer snapshot.
type BBO struct {
	Bid *money.Price
	Ask *money.Price
}

// Result is everything a call to ProcessOrder produces.
type Result struct {
	Trades   []domain.Trade
	BBO      BBO
	Warnings []string
}

// ProcessOrder runs the full state machine for order against b: the FOK
// precheck, the main price-time-priority matching loop, post-match
// disposition by order type, and — if any trade occurred — the
// STOP/STOP_LIMIT/TAKE_PROFIT trigger cascade. now is the timestamp stamped
// on every trade this call (and any cascade it causes) produces.
func ProcessOrder(b *book.Book, order *domain.Order, cfg Config, now time.Time) Result {
	used := 0
	return processWithBudget(b, order, cfg, now, &used)
}

func processWithBudget(b *book.Book, order *domain.Order, cfg Config, now time.Time, used *int) Result {
	trades := match(b, order, cfg, now)

	var warnings []string
	if len(trades) > 0 {
		last := trades[len(trades)-1].Price
		b.LastTradePrice = &last

		cascadeTrades, cascadeWarnings := activateCascade(b, cfg, now, used)
		trades = append(trades, cascadeTrades...)
		warnings = append(warnings, cascadeWarnings...)
	}

	return Result{Trades: trades, BBO: computeBBO(b), Warnings: warnings}
}

// match runs the FOK precheck, the main matching loop, and post-match
// disposition for a single order. It never touches the trigger table; that
// is the caller's (processWithBudget's) job once a last-trade price exists.
func match(b *book.Book, order *domain.Order, cfg Config, now time.Time) []domain.Trade {
	if order.Type == domain.FOK {
		depth := b.DepthMarketable(order.Side, order.LimitPrice)
		if depth.LessThan(order.Remaining()) {
			return nil
		}
	}

	trades := mainLoop(b, order, cfg, now)

	switch order.Type {
	case domain.Limit:
		if order.Remaining().IsPositive() {
			// AddResting's crossing precondition cannot fail here: the
			// main loop only stops when the opposite side is no longer
			// marketable against this order, which is exactly
			// non-crossing.
			_ = b.AddResting(order)
		}
	case domain.Market, domain.IOC, domain.FOK:
		// Any residual quantity is simply dropped (cancel the remainder).
	}

	return trades
}

// mainLoop implements §4.2.3: repeatedly take the best opposite-side level
// while it is marketable against order, execute against its FIFO head,
// and stop on the first non-marketable level, an empty opposite side, or
// order being fully filled.
func mainLoop(b *book.Book, order *domain.Order, cfg Config, now time.Time) []domain.Trade {
	var trades []domain.Trade
	opp := oppositeSide(b, order.Side)

	for order.Remaining().IsPositive() {
		lvl, ok := opp.Best()
		if !ok {
			break
		}
		if !book.Marketable(order.Side, order.LimitPrice, lvl.Price) {
			break
		}

		for order.Remaining().IsPositive() && !lvl.Empty() {
			maker := lvl.Front()
			execQty := order.Remaining().Min(maker.Remaining())
			execPrice := lvl.Price

			trade := domain.Trade{
				ID:            domain.NewTradeID(),
				Symbol:        order.Symbol,
				Price:         execPrice,
				Quantity:      execQty,
				MakerOrderID:  maker.ID,
				TakerOrderID:  order.ID,
				AggressorSide: order.Side,
				Timestamp:     now,
			}
			if !cfg.MakerFeeRate.IsZero() {
				fee := money.FeeAmount(cfg.MakerFeeRate, execPrice, execQty)
				trade.MakerFee = &fee
			}
			if !cfg.TakerFeeRate.IsZero() {
				fee := money.FeeAmount(cfg.TakerFeeRate, execPrice, execQty)
				trade.TakerFee = &fee
			}
			trades = append(trades, trade)

			maker.Fill(execQty)
			order.Fill(execQty)

			if maker.IsFullyFilled() {
				opp.PopFront(lvl)
			}
		}

		if lvl.Empty() {
			opp.DropIfEmpty(lvl)
		}
	}

	return trades
}

func oppositeSide(b *book.Book, s domain.Side) *book.BookSide {
	if s == domain.Buy {
		return b.Asks
	}
	return b.Bids
}

// CurrentBBO computes the BBO snapshot for b without performing any match.
// Used by the engine facade both after a live submission and when a
// STOP/STOP_LIMIT/TAKE_PROFIT order is merely registered in the trigger
// table (no matching occurs for those until they activate).
func CurrentBBO(b *book.Book) BBO {
	return computeBBO(b)
}

func computeBBO(b *book.Book) BBO {
	var bbo BBO
	if p, ok := b.BestBid(); ok {
		bbo.Bid = &p
	}
	if p, ok := b.BestAsk(); ok {
		bbo.Ask = &p
	}
	return bbo
}
