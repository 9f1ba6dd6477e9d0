package domain

import (
	"time"

	"github.com/google/uuid"

	"venue/internal/money"
)

// OrderID is a globally unique, opaque order identifier.
type OrderID uuid.UUID

func NewOrderID() OrderID { return OrderID(uuid.New()) }

func (id OrderID) String() string { return uuid.UUID(id).String() }

// ParseOrderID parses the canonical string form of an OrderID, as produced
// by String and as persisted by the snapshot format.
func ParseOrderID(s string) (OrderID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, err
	}
	return OrderID(id), nil
}

// Order carries immutable identity alongside the one field the matcher is
// allowed to mutate: Filled. A resting order is owned exclusively by the
// book side holding it; the matching loop may peek and mutate the head of a
// level's queue but never aliases it across a structural mutation of that
// queue (push/pop), per the ownership rule in the design notes.
type Order struct {
	ID         OrderID
	Symbol     Symbol
	Side       Side
	Type       OrderType
	Quantity   money.Quantity  // immutable, requested size
	LimitPrice *money.Price    // required for Limit/StopLimit, nil otherwise
	StopPrice  *money.Price    // required for Stop/StopLimit/TakeProfit, nil otherwise
	Sequence   uint64          // monotonic acceptance sequence, used for FIFO tie-break
	AcceptedAt time.Time
	Owner      string

	Filled money.Quantity
}

// Remaining returns quantity minus filled, clamped at zero. Fill is the only
// mutator of Filled after construction; it does not itself enforce
// filled <= quantity, which rests on its caller (see Fill).
func (o *Order) Remaining() money.Quantity {
	return o.Quantity.Sub(o.Filled)
}

// Fill records an execution against this order. quantity must never exceed
// Remaining(); the matcher guarantees this via exec_qty = min(...).
func (o *Order) Fill(quantity money.Quantity) {
	o.Filled = o.Filled.Add(quantity)
}

func (o *Order) IsFullyFilled() bool {
	return !o.Remaining().IsPositive()
}

// Clone returns a deep-enough copy for snapshotting: resting orders must
// never be aliased once a book-side mutation (push/pop) has occurred, so
// any code that needs to retain a reference across such a mutation copies
// first.
func (o *Order) Clone() *Order {
	cp := *o
	if o.LimitPrice != nil {
		lp := *o.LimitPrice
		cp.LimitPrice = &lp
	}
	if o.StopPrice != nil {
		sp := *o.StopPrice
		cp.StopPrice = &sp
	}
	return &cp
}
