package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue/internal/domain"
	"venue/internal/money"
)

func price(v string) money.Price {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	p, err := money.NewPrice(d)
	if err != nil {
		panic(err)
	}
	return p
}

func qty(v string) money.Quantity {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	q, err := money.NewQuantity(d)
	if err != nil {
		panic(err)
	}
	return q
}

func restingOrder(side domain.Side, limitPrice money.Price, quantity money.Quantity) *domain.Order {
	return &domain.Order{
		ID:         domain.NewOrderID(),
		Side:       side,
		Type:       domain.Limit,
		Quantity:   quantity,
		LimitPrice: &limitPrice,
		Filled:     money.ZeroQuantity(),
	}
}

func TestBook_AddRestingSortsLevelsBestFirst(t *testing.T) {
	b := New("AAPL")

	require.NoError(t, b.AddResting(restingOrder(domain.Buy, price("99"), qty("10"))))
	require.NoError(t, b.AddResting(restingOrder(domain.Buy, price("100"), qty("10"))))
	require.NoError(t, b.AddResting(restingOrder(domain.Buy, price("98"), qty("10"))))

	bids, _ := b.TopN(3)
	require.Len(t, bids, 3)
	assert.Equal(t, "100", bids[0].Price.String())
	assert.Equal(t, "99", bids[1].Price.String())
	assert.Equal(t, "98", bids[2].Price.String())
}

func TestBook_AddRestingRejectsCrossingInsert(t *testing.T) {
	b := New("AAPL")
	require.NoError(t, b.AddResting(restingOrder(domain.Sell, price("100"), qty("10"))))

	err := b.AddResting(restingOrder(domain.Buy, price("101"), qty("5")))
	assert.ErrorIs(t, err, ErrCrossingInsert)
}

func TestBook_CancelRemovesOrderAndEmptyLevel(t *testing.T) {
	b := New("AAPL")
	o := restingOrder(domain.Buy, price("99"), qty("10"))
	require.NoError(t, b.AddResting(o))

	removed, ok := b.Cancel(o.ID)
	require.True(t, ok)
	assert.Equal(t, o.ID, removed.ID)

	_, ok = b.BestBid()
	assert.False(t, ok)
}

func TestBook_CheckInvariants_DetectsCrossedBook(t *testing.T) {
	b := New("AAPL")
	require.NoError(t, b.AddResting(restingOrder(domain.Buy, price("100"), qty("10"))))
	require.NoError(t, b.AddResting(restingOrder(domain.Sell, price("101"), qty("10"))))
	assert.NoError(t, b.CheckInvariants())

	// Book.AddResting refuses a crossing insert, so go through the side
	// directly to put an ask below the best bid.
	b.Asks.AddResting(restingOrder(domain.Sell, price("99"), qty("10")))
	assert.Error(t, b.CheckInvariants())
}

func TestBookSide_DepthMarketable_ShortCircuits(t *testing.T) {
	s := newAskSide()
	s.AddResting(restingOrder(domain.Sell, price("100"), qty("10")))
	s.AddResting(restingOrder(domain.Sell, price("102"), qty("10")))

	limit := price("101")
	total := s.DepthMarketable(domain.Buy, &limit)
	assert.True(t, total.Equal(qty("10")))
}

func TestMarketable_NilLimitPriceAlwaysMarketable(t *testing.T) {
	assert.True(t, Marketable(domain.Buy, nil, price("1000000")))
	assert.True(t, Marketable(domain.Sell, nil, price("0.01")))
}

func TestTriggerTable_ActivateRemovesTriggeredOrders(t *testing.T) {
	tbl := NewTriggerTable()
	stop := price("95")
	o := &domain.Order{ID: domain.NewOrderID(), Side: domain.Sell, Type: domain.Stop, StopPrice: &stop}
	tbl.Add(o)

	activated := tbl.Activate(price("94"))
	require.Len(t, activated, 1)
	assert.Equal(t, o.ID, activated[0].ID)
	assert.Equal(t, 0, tbl.Len())
}

func TestTriggerTable_DoesNotActivateBeforeCondition(t *testing.T) {
	tbl := NewTriggerTable()
	stop := price("95")
	o := &domain.Order{ID: domain.NewOrderID(), Side: domain.Sell, Type: domain.Stop, StopPrice: &stop}
	tbl.Add(o)

	activated := tbl.Activate(price("96"))
	assert.Len(t, activated, 0)
	assert.Equal(t, 1, tbl.Len())
}
