package domain

import (
	"time"

	"github.com/google/uuid"

	"venue/internal/money"
)

type TradeID uuid.UUID

func NewTradeID() TradeID { return TradeID(uuid.New()) }

func (id TradeID) String() string { return uuid.UUID(id).String() }

// Trade is an immutable record of a single execution. Price always equals
// the maker's (resting) price, never the taker's; this is what preserves
// price-improvement for the aggressor. Fee fields, when present, are
// absolute currency amounts already computed from a configured rate — they
// are never raw rates, which is the behavior the teacher lineage's earlier
// revision confused by overwriting one representation with the other.
type Trade struct {
	ID            TradeID
	Symbol        Symbol
	Price         money.Price
	Quantity      money.Quantity
	MakerOrderID  OrderID
	TakerOrderID  OrderID
	AggressorSide Side
	Timestamp     time.Time
	Sequence      uint64

	MakerFee *money.Amount
	TakerFee *money.Amount
}
