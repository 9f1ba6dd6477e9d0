package tcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue/internal/book"
	"venue/internal/domain"
	"venue/internal/money"
)

func TestParseSubmitRequest_BuildsEngineRequest(t *testing.T) {
	price := "100.50"
	req := Request{
		Type:      RequestSubmit,
		Symbol:    "AAPL",
		Side:      "buy",
		OrderType: "limit",
		Quantity:  "10",
		Price:     &price,
		Owner:     "alice",
	}

	out, err := parseSubmitRequest(req)
	require.NoError(t, err)
	assert.Equal(t, domain.Symbol("AAPL"), out.Symbol)
	assert.Equal(t, domain.Buy, out.Side)
	assert.Equal(t, domain.Limit, out.Type)
	assert.Equal(t, "10", out.Quantity.String())
	require.NotNil(t, out.Price)
	assert.Equal(t, "100.5", out.Price.String())
}

func TestParseSubmitRequest_RejectsUnknownSide(t *testing.T) {
	req := Request{Side: "sideways", OrderType: "market", Quantity: "1"}
	_, err := parseSubmitRequest(req)
	assert.Error(t, err)
}

func TestParseOrderID_RejectsMalformedID(t *testing.T) {
	_, err := parseOrderID("not-a-uuid")
	assert.Error(t, err)
}

func TestToDepthLevels_ConvertsPriceAndQuantity(t *testing.T) {
	p, err := money.ParsePrice("100")
	require.NoError(t, err)
	q, err := money.ParseQuantity("5")
	require.NoError(t, err)

	out := toDepthLevels([]book.LevelView{{Price: p, Quantity: q}})
	require.Len(t, out, 1)
	assert.Equal(t, "100", out[0].Price)
	assert.Equal(t, "5", out[0].Quantity)
}
