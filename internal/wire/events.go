// Package wire defines the self-describing, language-neutral publishable
// event envelopes the engine facade emits to subscribers. The TCP
// transport's request/response envelopes live in transport/tcp. Every
// numeric value that could lose
// precision as a float crosses the wire as a decimal string, per the core
// spec's wire-format requirements.
package wire

import (
	"time"

	"venue/internal/domain"
	"venue/internal/money"
)

type EventType string

const (
	EventTrade  EventType = "trade"
	EventBBO    EventType = "bbo"
	EventDepth  EventType = "l2_update"
)

// TradeEvent reports a single execution.
type TradeEvent struct {
	Type          EventType `json:"type"`
	Sequence      uint64    `json:"seq"`
	TradeID       string    `json:"trade_id"`
	Timestamp     time.Time `json:"timestamp"`
	Symbol        string    `json:"symbol"`
	Price         string    `json:"price"`
	Quantity      string    `json:"quantity"`
	AggressorSide string    `json:"aggressor_side"`
	MakerOrderID  string    `json:"maker_order_id"`
	TakerOrderID  string    `json:"taker_order_id"`
	MakerFee      *string   `json:"maker_fee,omitempty"`
	TakerFee      *string   `json:"taker_fee,omitempty"`
}

// NewTradeEvent builds the wire envelope for trade, stamping it with seq.
func NewTradeEvent(trade domain.Trade, seq uint64) TradeEvent {
	ev := TradeEvent{
		Type:          EventTrade,
		Sequence:      seq,
		TradeID:       trade.ID.String(),
		Timestamp:     trade.Timestamp,
		Symbol:        string(trade.Symbol),
		Price:         trade.Price.String(),
		Quantity:      trade.Quantity.String(),
		AggressorSide: trade.AggressorSide.String(),
		MakerOrderID:  trade.MakerOrderID.String(),
		TakerOrderID:  trade.TakerOrderID.String(),
	}
	if trade.MakerFee != nil {
		s := trade.MakerFee.String()
		ev.MakerFee = &s
	}
	if trade.TakerFee != nil {
		s := trade.TakerFee.String()
		ev.TakerFee = &s
	}
	return ev
}

// BBOEvent reports a change in the best bid/offer.
type BBOEvent struct {
	Type      EventType `json:"type"`
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Bid       *string   `json:"bid"`
	Ask       *string   `json:"ask"`
}

func NewBBOEvent(symbol domain.Symbol, bid, ask *money.Price, seq uint64, now time.Time) BBOEvent {
	ev := BBOEvent{Type: EventBBO, Sequence: seq, Timestamp: now, Symbol: string(symbol)}
	if bid != nil {
		s := bid.String()
		ev.Bid = &s
	}
	if ask != nil {
		s := ask.String()
		ev.Ask = &s
	}
	return ev
}

// DepthLevel is a single (price, aggregate quantity) pair in a depth update.
type DepthLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// DepthEvent reports the top-of-book levels on each side.
type DepthEvent struct {
	Type      EventType    `json:"type"`
	Sequence  uint64       `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	Symbol    string       `json:"symbol"`
	Bids      []DepthLevel `json:"bids"`
	Asks      []DepthLevel `json:"asks"`
}
