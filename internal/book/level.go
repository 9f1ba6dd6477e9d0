package book

import (
	"venue/internal/domain"
	"venue/internal/money"
)

// PriceLevel is the FIFO queue of resting orders at a single price. Orders
// are appended on insert and popped from the front on a full fill; a cancel
// may remove from the middle, which is rare and O(k) in the level's depth.
type PriceLevel struct {
	Price  money.Price
	Orders []*domain.Order
}

// PushBack appends a newly-resting order to the end of the queue.
func (l *PriceLevel) PushBack(o *domain.Order) {
	l.Orders = append(l.Orders, o)
}

// Front returns the head of the queue without removing it, so the matching
// loop can mutate Filled in place before deciding whether to pop.
func (l *PriceLevel) Front() *domain.Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// PopFront removes the head of the queue, called only once it is fully filled.
func (l *PriceLevel) PopFront() {
	if len(l.Orders) == 0 {
		return
	}
	l.Orders = l.Orders[1:]
}

// RemoveID removes an order by ID from anywhere in the queue (explicit
// cancel). Reports whether an order was found and removed.
func (l *PriceLevel) RemoveID(id domain.OrderID) bool {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return true
		}
	}
	return false
}

func (l *PriceLevel) Empty() bool { return len(l.Orders) == 0 }

// TotalRemaining sums Remaining() across every order resting at this level.
func (l *PriceLevel) TotalRemaining() money.Quantity {
	total := money.ZeroQuantity()
	for _, o := range l.Orders {
		total = total.Add(o.Remaining())
	}
	return total
}
