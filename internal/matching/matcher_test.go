package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue/internal/book"
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

func TestProcessOrder_LimitRestsWhenNonCrossing(t *testing.T) {
	b := book.New("AAPL")
	order := restingOrder(domain.Buy, price("99"), qty("10"))

	result := ProcessOrder(b, order, Config{}, time.Now())
	assert.Empty(t, result.Trades)
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, "99", bid.String())
}

func TestProcessOrder_LimitMatchesRestingAtMakerPrice(t *testing.T) {
	b := book.New("AAPL")
	maker := restingOrder(domain.Sell, price("100"), qty("10"))
	require.NoError(t, b.AddResting(maker))

	taker := &domain.Order{
		ID:         domain.NewOrderID(),
		Side:       domain.Buy,
		Type:       domain.Limit,
		Quantity:   qty("5"),
		LimitPrice: ptr(price("101")),
		Filled:     money.ZeroQuantity(),
	}

	result := ProcessOrder(b, taker, Config{}, time.Now())
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "100", result.Trades[0].Price.String())
	assert.Equal(t, "5", result.Trades[0].Quantity.String())
	assert.Equal(t, domain.Buy, result.Trades[0].AggressorSide)
}

func TestProcessOrder_FOKCancelsWholeOrderWhenDepthInsufficient(t *testing.T) {
	b := book.New("AAPL")
	require.NoError(t, b.AddResting(restingOrder(domain.Sell, price("100"), qty("5"))))

	taker := &domain.Order{
		ID:         domain.NewOrderID(),
		Side:       domain.Buy,
		Type:       domain.FOK,
		Quantity:   qty("10"),
		LimitPrice: ptr(price("100")),
		Filled:     money.ZeroQuantity(),
	}

	result := ProcessOrder(b, taker, Config{}, time.Now())
	assert.Empty(t, result.Trades)
	assert.True(t, taker.Remaining().Equal(qty("10")))
}

func TestProcessOrder_IOCDropsResidual(t *testing.T) {
	b := book.New("AAPL")
	require.NoError(t, b.AddResting(restingOrder(domain.Sell, price("100"), qty("5"))))

	taker := &domain.Order{
		ID:         domain.NewOrderID(),
		Side:       domain.Buy,
		Type:       domain.IOC,
		Quantity:   qty("10"),
		LimitPrice: ptr(price("100")),
		Filled:     money.ZeroQuantity(),
	}

	result := ProcessOrder(b, taker, Config{}, time.Now())
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "5", result.Trades[0].Quantity.String())
	_, ok := b.BestAsk()
	assert.False(t, ok)
}

func TestProcessOrder_FeesAreAbsoluteAmounts(t *testing.T) {
	b := book.New("AAPL")
	require.NoError(t, b.AddResting(restingOrder(domain.Sell, price("100"), qty("10"))))

	taker := &domain.Order{
		ID:         domain.NewOrderID(),
		Side:       domain.Buy,
		Type:       domain.Market,
		Quantity:   qty("10"),
		Filled:     money.ZeroQuantity(),
	}

	cfg := Config{MakerFeeRate: decimal.NewFromFloat(0.001), TakerFeeRate: decimal.NewFromFloat(0.002)}
	result := ProcessOrder(b, taker, cfg, time.Now())
	require.Len(t, result.Trades, 1)
	require.NotNil(t, result.Trades[0].MakerFee)
	require.NotNil(t, result.Trades[0].TakerFee)
	assert.Equal(t, "1", result.Trades[0].MakerFee.String())
	assert.Equal(t, "2", result.Trades[0].TakerFee.String())
}

func TestProcessOrder_TriggerCascadeActivatesStopOrder(t *testing.T) {
	b := book.New("AAPL")
	// Consumed entirely by the main taker, driving the last trade price
	// down to the stop's trigger level.
	require.NoError(t, b.AddResting(restingOrder(domain.Buy, price("99"), qty("20"))))
	// Left resting for the cascaded stop-sell to match against once it
	// activates.
	require.NoError(t, b.AddResting(restingOrder(domain.Buy, price("97"), qty("10"))))

	stopPrice := price("99")
	stopOrder := &domain.Order{
		ID:        domain.NewOrderID(),
		Side:      domain.Sell,
		Type:      domain.Stop,
		Quantity:  qty("5"),
		StopPrice: &stopPrice,
		Filled:    money.ZeroQuantity(),
	}
	b.Triggers.Add(stopOrder)

	taker := &domain.Order{
		ID:       domain.NewOrderID(),
		Side:     domain.Sell,
		Type:     domain.Market,
		Quantity: qty("20"),
		Filled:   money.ZeroQuantity(),
	}

	result := ProcessOrder(b, taker, Config{}, time.Now())
	require.Len(t, result.Trades, 2)
	assert.Equal(t, "99", result.Trades[0].Price.String())
	assert.Equal(t, "97", result.Trades[1].Price.String())
	assert.Equal(t, 0, b.Triggers.Len())
}

func ptr(p money.Price) *money.Price { return &p }
