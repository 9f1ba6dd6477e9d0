package book

import (
	"github.com/tidwall/btree"

	"venue/internal/domain"
	"venue/internal/money"
)

// BookSide is one side (bids or asks) of a symbol's book: a price-sorted
// tree of levels, grounded on the same tidwall/btree.BTreeG[*PriceLevel]
// the teacher lineage uses, generalized from a single hard-coded float64
// comparator to an exact-decimal one supplied at construction. The tree
// doubles as both the sorted price index and the price->level mapping the
// core spec describes separately: a dummy *PriceLevel{Price: p} is used as
// the search key for Get/Set/Delete, exactly as the teacher's handleLimit
// does.
type BookSide struct {
	levels *btree.BTreeG[*PriceLevel]
	// index gives O(1) cancel: order ID -> the price it rests at.
	index map[domain.OrderID]money.Price
}

// newBookSide builds a side ordered by less(a, b): for bids this should
// report a.Price > b.Price (best = highest); for asks, a.Price < b.Price
// (best = lowest).
func newBookSide(less func(a, b *PriceLevel) bool) *BookSide {
	return &BookSide{
		levels: btree.NewBTreeG(less),
		index:  make(map[domain.OrderID]money.Price),
	}
}

func newBidSide() *BookSide {
	return newBookSide(func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) })
}

func newAskSide() *BookSide {
	return newBookSide(func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) })
}

// Best returns the best (first, per the side's ordering) level, if any.
func (s *BookSide) Best() (*PriceLevel, bool) {
	return s.levels.Min()
}

// getOrCreate returns the level at price, creating and inserting an empty
// one into the tree if it doesn't yet exist.
func (s *BookSide) getOrCreate(price money.Price) *PriceLevel {
	key := &PriceLevel{Price: price}
	if lvl, ok := s.levels.Get(key); ok {
		return lvl
	}
	s.levels.Set(key)
	return key
}

// AddResting appends order to the queue at its limit price, creating the
// level if necessary, and registers it in the cancel index. Precondition
// (enforced by the caller, the matching state machine): order is a resting
// LIMIT with positive remaining quantity that does not cross the opposite
// side's best.
func (s *BookSide) AddResting(order *domain.Order) {
	lvl := s.getOrCreate(*order.LimitPrice)
	lvl.PushBack(order)
	s.index[order.ID] = *order.LimitPrice
}

// RemoveEmptyLevel deletes price from the tree if its level has no orders
// left. Called by Cancel; the matching loop uses DropIfEmpty instead.
func (s *BookSide) RemoveEmptyLevel(price money.Price) {
	key := &PriceLevel{Price: price}
	if lvl, ok := s.levels.Get(key); ok && lvl.Empty() {
		s.levels.Delete(key)
	}
}

// PopFront removes and returns the order resting at the front of lvl,
// keeping the O(1) cancel index consistent. Used by the matching loop when
// a resting order is fully filled (step 5/6 of the main matching loop).
func (s *BookSide) PopFront(lvl *PriceLevel) *domain.Order {
	o := lvl.Front()
	if o == nil {
		return nil
	}
	lvl.PopFront()
	delete(s.index, o.ID)
	return o
}

// DropIfEmpty removes lvl from the tree if its queue has been fully drained.
func (s *BookSide) DropIfEmpty(lvl *PriceLevel) {
	if lvl.Empty() {
		s.levels.Delete(&PriceLevel{Price: lvl.Price})
	}
}

// Cancel removes a resting order by ID. O(1) to find its price level via
// the index, O(k) to splice it out of that level's queue.
func (s *BookSide) Cancel(id domain.OrderID) (*domain.Order, bool) {
	price, ok := s.index[id]
	if !ok {
		return nil, false
	}
	key := &PriceLevel{Price: price}
	lvl, ok := s.levels.Get(key)
	if !ok {
		delete(s.index, id)
		return nil, false
	}
	var removed *domain.Order
	for _, o := range lvl.Orders {
		if o.ID == id {
			removed = o
			break
		}
	}
	lvl.RemoveID(id)
	delete(s.index, id)
	s.RemoveEmptyLevel(price)
	return removed, removed != nil
}

// TopN returns the first n price levels in best-first order, each paired
// with its aggregate remaining quantity.
func (s *BookSide) TopN(n int) []LevelView {
	views := make([]LevelView, 0, n)
	s.levels.Scan(func(lvl *PriceLevel) bool {
		if len(views) >= n {
			return false
		}
		views = append(views, LevelView{Price: lvl.Price, Quantity: lvl.TotalRemaining()})
		return true
	})
	return views
}

// DepthMarketable sums remaining quantity over levels that are marketable
// against limitPrice (all levels if limitPrice is nil), short-circuiting on
// the first non-marketable level since the tree is scanned best-first. This
// is the stricter, correct short-circuiting contract the distilled spec
// mandates over the source lineage's non-short-circuiting FOK precheck.
func (s *BookSide) DepthMarketable(taker domain.Side, limitPrice *money.Price) money.Quantity {
	total := money.ZeroQuantity()
	s.levels.Scan(func(lvl *PriceLevel) bool {
		if !Marketable(taker, limitPrice, lvl.Price) {
			return false
		}
		total = total.Add(lvl.TotalRemaining())
		return true
	})
	return total
}

// Items returns every level in best-first order, for snapshotting and tests.
func (s *BookSide) Items() []*PriceLevel {
	var out []*PriceLevel
	s.levels.Scan(func(lvl *PriceLevel) bool {
		out = append(out, lvl)
		return true
	})
	return out
}

func (s *BookSide) Len() int { return s.levels.Len() }

// LevelView is the read-only (price, aggregate quantity) pair returned by
// TopN and used to build snapshots.
type LevelView struct {
	Price    money.Price
	Quantity money.Quantity
}
