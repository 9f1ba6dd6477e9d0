package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue/internal/wire"
)

func newTestClient() *client {
	return &client{send: make(chan []byte, 4)}
}

func TestHub_BroadcastDeliversOnlyToSubscribedChannel(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.addSubscription(subscription{client: c, channel: "trades:AAPL"})

	h.broadcast("trades:AAPL", wire.TradeEvent{Symbol: "AAPL"})

	select {
	case msg := <-c.send:
		assert.Contains(t, string(msg), "AAPL")
	default:
		t.Fatal("expected a message on the subscribed channel")
	}
}

func TestHub_BroadcastSkipsUnsubscribedChannel(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.addSubscription(subscription{client: c, channel: "trades:AAPL"})

	h.broadcast("bbo:AAPL", wire.BBOEvent{Symbol: "AAPL"})

	select {
	case <-c.send:
		t.Fatal("did not expect a message on a channel the client never subscribed to")
	default:
	}
}

func TestHub_RemoveClientClosesSendChannelAndDropsSubscriptions(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.addSubscription(subscription{client: c, channel: "trades:AAPL"})

	h.removeClient(c)

	_, open := <-c.send
	assert.False(t, open)
	assert.Empty(t, h.channels["trades:AAPL"])
}

func TestHub_PublishTradeAndBBOUseExpectedChannelNames(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.addSubscription(subscription{client: c, channel: "trades:AAPL"})

	h.PublishTrade(wire.TradeEvent{Symbol: "AAPL", Timestamp: time.Now()})

	require.Len(t, c.send, 1)

	h.addSubscription(subscription{client: c, channel: "bbo:AAPL"})
	h.PublishBBO(wire.BBOEvent{Symbol: "AAPL", Timestamp: time.Now()})

	require.Len(t, c.send, 2)
}
