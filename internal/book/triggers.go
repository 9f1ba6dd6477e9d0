package book

import (
	"venue/internal/domain"
	"venue/internal/money"
)

// TriggerTable holds STOP/STOP_LIMIT/TAKE_PROFIT orders that are inert
// until the last trade price crosses their stop price, grounded on the
// original source's check_and_activate_triggers: an unordered scan over
// pending orders, each evaluated independently against the latest trade
// price, removed from the table the instant it activates.
type TriggerTable struct {
	pending []*domain.Order
}

func NewTriggerTable() *TriggerTable {
	return &TriggerTable{}
}

// Add registers an order as pending activation. Precondition: order.Type is
// one of Stop/StopLimit/TakeProfit and order.StopPrice is non-nil.
func (t *TriggerTable) Add(order *domain.Order) {
	t.pending = append(t.pending, order)
}

// Len reports how many orders are currently awaiting activation.
func (t *TriggerTable) Len() int { return len(t.pending) }

// Activate scans the pending set against last and returns, in encounter
// order, every order whose trigger condition now holds. Activated orders
// are removed from the table.
func (t *TriggerTable) Activate(last money.Price) []*domain.Order {
	var activated []*domain.Order
	remaining := t.pending[:0:0]
	for _, o := range t.pending {
		if triggers(o, last) {
			activated = append(activated, o)
		} else {
			remaining = append(remaining, o)
		}
	}
	t.pending = remaining
	return activated
}

// triggers evaluates the activation table from the spec:
//
//	STOP          SELL  last <= stop
//	STOP          BUY   last >= stop
//	STOP_LIMIT    SELL  last <= stop
//	STOP_LIMIT    BUY   last >= stop
//	TAKE_PROFIT   SELL  last >= stop
//	TAKE_PROFIT   BUY   last <= stop
func triggers(o *domain.Order, last money.Price) bool {
	if o.StopPrice == nil {
		return false
	}
	stop := *o.StopPrice
	switch o.Type {
	case domain.Stop, domain.StopLimit:
		if o.Side == domain.Sell {
			return !last.GreaterThan(stop)
		}
		return !last.LessThan(stop)
	case domain.TakeProfit:
		if o.Side == domain.Sell {
			return !last.LessThan(stop)
		}
		return !last.GreaterThan(stop)
	default:
		return false
	}
}

// RemoveByID cancels a pending trigger order, supplementing the core spec's
// resting-order cancel with the natural equivalent for orders that have not
// yet activated.
func (t *TriggerTable) RemoveByID(id domain.OrderID) (*domain.Order, bool) {
	for i, o := range t.pending {
		if o.ID == id {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return o, true
		}
	}
	return nil, false
}

// Items returns the pending trigger orders, for snapshotting.
func (t *TriggerTable) Items() []*domain.Order {
	return t.pending
}
