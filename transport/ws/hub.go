// Package ws implements the market-data fan-out transport: a
// gorilla/websocket hub broadcasting trade and BBO events per symbol
// channel, grounded on the corpus's websocket hub/client pair.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"venue/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans out trade and BBO events to every client subscribed to a
// symbol's channel. It implements engine.Publisher.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*client]bool

	register   chan *client
	unregister chan *client
	subscribe  chan subscription
}

type subscription struct {
	client  *client
	channel string
}

func NewHub() *Hub {
	return &Hub{
		channels:   make(map[string]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		subscribe:  make(chan subscription, 256),
	}
}

// Run drives the hub's registration/subscription bookkeeping. It blocks
// until ctx-equivalent shutdown; callers run it in its own goroutine.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-h.register:
			// Registration itself requires no bookkeeping until the client
			// subscribes to a channel; see addSubscription.
		case c := <-h.unregister:
			h.removeClient(c)
		case sub := <-h.subscribe:
			h.addSubscription(sub)
		}
	}
}

func (h *Hub) addSubscription(sub subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[sub.channel] == nil {
		h.channels[sub.channel] = make(map[*client]bool)
	}
	h.channels[sub.channel][sub.client] = true
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel, clients := range h.channels {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	close(c.send)
}

func (h *Hub) broadcast(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("ws: marshal broadcast")
		return
	}

	h.mu.RLock()
	clients := h.channels[channel]
	recipients := make([]*client, 0, len(clients))
	for c := range clients {
		recipients = append(recipients, c)
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		select {
		case c.send <- data:
		default:
			// Client buffer is full; the update is dropped rather than
			// blocking the publisher. Clients resync via a fresh snapshot
			// request over the TCP transport.
		}
	}
}

// PublishTrade implements engine.Publisher, broadcasting on "trades:<symbol>".
func (h *Hub) PublishTrade(ev wire.TradeEvent) {
	h.broadcast("trades:"+ev.Symbol, ev)
}

// PublishBBO implements engine.Publisher, broadcasting on "bbo:<symbol>".
func (h *Hub) PublishBBO(ev wire.BBOEvent) {
	h.broadcast("bbo:"+ev.Symbol, ev)
}

// ServeWS upgrades an HTTP request to a WebSocket connection and starts the
// client's read/write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}
