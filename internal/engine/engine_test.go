package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue/internal/config"
	"venue/internal/domain"
	"venue/internal/money"
)

func newTestEngine() *Engine {
	cfg := config.Default()
	return New(cfg, WithRegisterer(prometheus.NewRegistry()))
}

func submitLimit(t *testing.T, e *Engine, symbol domain.Symbol, side domain.Side, p, q string) SubmitResult {
	t.Helper()
	price, err := money.ParsePrice(p)
	require.NoError(t, err)
	quantity, err := money.ParseQuantity(q)
	require.NoError(t, err)

	res, err := e.Submit(SubmitRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     domain.Limit,
		Quantity: quantity,
		Price:    &price,
		Owner:    "tester",
	})
	require.NoError(t, err)
	return res
}

func TestEngine_SubmitRestsNonCrossingLimit(t *testing.T) {
	e := newTestEngine()
	submitLimit(t, e, "AAPL", domain.Buy, "99", "10")

	bbo, err := e.BBO("AAPL")
	require.NoError(t, err)
	require.NotNil(t, bbo.Bid)
	assert.Equal(t, "99", bbo.Bid.String())
}

func TestEngine_SubmitMatchesCrossingLimit(t *testing.T) {
	e := newTestEngine()
	submitLimit(t, e, "AAPL", domain.Sell, "100", "10")
	res := submitLimit(t, e, "AAPL", domain.Buy, "100", "5")

	require.Len(t, res.Trades, 1)
	assert.Equal(t, "100", res.Trades[0].Price.String())
	assert.NotZero(t, res.Trades[0].Sequence)
}

func TestEngine_SequenceNumbersAreMonotonicPerSymbol(t *testing.T) {
	e := newTestEngine()
	submitLimit(t, e, "AAPL", domain.Sell, "100", "10")
	res1 := submitLimit(t, e, "AAPL", domain.Buy, "100", "5")
	res2 := submitLimit(t, e, "AAPL", domain.Buy, "100", "5")

	require.Len(t, res1.Trades, 1)
	require.Len(t, res2.Trades, 1)
	assert.Less(t, res1.Trades[0].Sequence, res2.Trades[0].Sequence)
}

func TestEngine_CancelRemovesRestingOrder(t *testing.T) {
	e := newTestEngine()
	res := submitLimit(t, e, "AAPL", domain.Buy, "99", "10")

	canceled, err := e.Cancel("AAPL", res.OrderID)
	require.NoError(t, err)
	assert.True(t, canceled)

	bbo, err := e.BBO("AAPL")
	require.NoError(t, err)
	assert.Nil(t, bbo.Bid)
}

func TestEngine_CancelUnknownOrderReportsFalseNotError(t *testing.T) {
	e := newTestEngine()
	canceled, err := e.Cancel("AAPL", domain.NewOrderID())
	require.NoError(t, err)
	assert.False(t, canceled)
}

func TestEngine_SubmitRejectsNonPositiveQuantity(t *testing.T) {
	e := newTestEngine()
	zero := money.ZeroQuantity()
	price, _ := money.ParsePrice("100")

	_, err := e.Submit(SubmitRequest{Symbol: "AAPL", Side: domain.Buy, Type: domain.Limit, Quantity: zero, Price: &price})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestEngine_SubmitRejectsMissingLimitPrice(t *testing.T) {
	e := newTestEngine()
	qty, _ := money.ParseQuantity("1")

	_, err := e.Submit(SubmitRequest{Symbol: "AAPL", Side: domain.Buy, Type: domain.Limit, Quantity: qty})
	assert.ErrorIs(t, err, ErrMissingLimitPrice)
}

func TestEngine_SubmitRejectsWrongTickSize(t *testing.T) {
	cfg := config.Default()
	tick, err := money.ParsePrice("0.05")
	require.NoError(t, err)
	cfg.TickSizes = map[domain.Symbol]money.Price{"AAPL": tick}
	e := New(cfg, WithRegisterer(prometheus.NewRegistry()))

	price, _ := money.ParsePrice("100.01")
	qty, _ := money.ParseQuantity("1")
	_, err = e.Submit(SubmitRequest{Symbol: "AAPL", Side: domain.Buy, Type: domain.Limit, Quantity: qty, Price: &price})
	assert.ErrorIs(t, err, ErrTickSize)
}

func TestEngine_TriggerOrderRegistersInertlyThenActivates(t *testing.T) {
	e := newTestEngine()
	submitLimit(t, e, "AAPL", domain.Buy, "99", "20")
	submitLimit(t, e, "AAPL", domain.Buy, "97", "10")

	stopPrice, err := money.ParsePrice("99")
	require.NoError(t, err)
	qty, err := money.ParseQuantity("5")
	require.NoError(t, err)

	stopRes, err := e.Submit(SubmitRequest{
		Symbol:    "AAPL",
		Side:      domain.Sell,
		Type:      domain.Stop,
		Quantity:  qty,
		StopPrice: &stopPrice,
	})
	require.NoError(t, err)
	assert.Empty(t, stopRes.Trades)

	res := submitLimit(t, e, "AAPL", domain.Sell, "99", "20")
	// One trade at 99 from the limit itself, one at 97 from the activated stop.
	require.Len(t, res.Trades, 2)
}

func TestEngine_DumpAndRestoreRoundTrip(t *testing.T) {
	e := newTestEngine()
	submitLimit(t, e, "AAPL", domain.Buy, "99", "10")

	dump, ok := e.Dump("AAPL")
	require.True(t, ok)
	require.Len(t, dump.RestingOrders, 1)

	e2 := newTestEngine()
	e2.Restore("AAPL", dump)

	bbo, err := e2.BBO("AAPL")
	require.NoError(t, err)
	require.NotNil(t, bbo.Bid)
	assert.Equal(t, "99", bbo.Bid.String())
}
