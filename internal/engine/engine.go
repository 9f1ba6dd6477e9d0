// Package engine implements the Engine Facade: it owns a book per symbol
// (created lazily on first use), serializes all processing for a given
// symbol behind that symbol's own mutex, stamps every emitted event with a
// monotonic per-symbol sequence number, and quarantines a symbol's book if
// an invariant violation is ever observed. Of the core packages it is the
// only one that touches concurrency; package matching's state machine is a
// pure, synchronous computation.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"venue/internal/book"
	"venue/internal/config"
	"venue/internal/domain"
	"venue/internal/matching"
	"venue/internal/money"
	"venue/internal/wire"
)

var (
	ErrInvalidQuantity     = errors.New("engine: quantity must be strictly positive")
	ErrMissingLimitPrice   = errors.New("engine: order type requires a limit price")
	ErrMissingStopPrice    = errors.New("engine: order type requires a stop price")
	ErrUnknownSymbolFormat = errors.New("engine: empty or malformed symbol")
	ErrTickSize            = errors.New("engine: price violates the configured tick size")
	ErrSymbolQuarantined   = errors.New("engine: symbol is quarantined pending operator intervention")
	ErrInvariantViolation  = errors.New("engine: invariant violation")
)

// Publisher receives the events a submission produces, after the symbol's
// guard has been released. Implemented by the WebSocket hub (transport/ws).
type Publisher interface {
	PublishTrade(wire.TradeEvent)
	PublishBBO(wire.BBOEvent)
}

// noopPublisher discards every event; used when the engine is constructed
// without a transport attached, e.g. in tests.
type noopPublisher struct{}

func (noopPublisher) PublishTrade(wire.TradeEvent) {}
func (noopPublisher) PublishBBO(wire.BBOEvent)     {}

// symbolState bundles a symbol's book with the mutex serializing all access
// to it and its own monotonic sequence counter.
type symbolState struct {
	mu          sync.Mutex
	book        *book.Book
	seq         uint64
	quarantined bool
}

func (st *symbolState) nextSeq() uint64 {
	st.seq++
	return st.seq
}

// Engine is the facade: one book per symbol, created lazily, guarded by one
// mutex per symbol, exposing the transport-facing Submit/Cancel/Snapshot/BBO
// operations.
type Engine struct {
	cfg       config.Config
	metrics   *Metrics
	publisher Publisher
	clock     func() time.Time

	mu      sync.Mutex
	symbols map[domain.Symbol]*symbolState
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = NewMetrics(reg) }
}

func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		publisher: noopPublisher{},
		clock:     time.Now,
		symbols:   make(map[domain.Symbol]*symbolState),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return e
}

// SubmitRequest is the abstract Submit operation's input.
type SubmitRequest struct {
	Symbol    domain.Symbol
	Side      domain.Side
	Type      domain.OrderType
	Quantity  money.Quantity
	Price     *money.Price
	StopPrice *money.Price
	Owner     string
}

// SubmitResult is the abstract Submit operation's output.
type SubmitResult struct {
	OrderID  domain.OrderID
	Trades   []domain.Trade
	BBO      matching.BBO
	Warnings []string
}

func (e *Engine) stateFor(symbol domain.Symbol) *symbolState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.symbols[symbol]
	if !ok {
		st = &symbolState{book: book.New(symbol)}
		e.symbols[symbol] = st
	}
	return st
}

func (e *Engine) existingStateFor(symbol domain.Symbol) (*symbolState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.symbols[symbol]
	return st, ok
}

// Submit validates and processes one order. Validation happens before any
// symbol guard is acquired; once admitted, the order runs the full state
// machine (including any trigger cascade) to completion under that guard,
// and events are published only after the guard is released.
func (e *Engine) Submit(req SubmitRequest) (SubmitResult, error) {
	if err := validate(req, e.cfg.TickSizes[req.Symbol]); err != nil {
		return SubmitResult{}, err
	}

	st := e.stateFor(req.Symbol)

	st.mu.Lock()
	if st.quarantined {
		st.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrSymbolQuarantined, req.Symbol)
	}

	order := newOrder(req, st.nextSeq(), e.clock())

	var result matching.Result
	started := e.clock()
	if order.Type.IsTriggerType() {
		st.book.Triggers.Add(order)
		result = matching.Result{BBO: matching.CurrentBBO(st.book)}
	} else {
		result = matching.ProcessOrder(st.book, order, e.matchingConfig(), started)
	}
	elapsed := e.clock().Sub(started)

	if err := st.book.CheckInvariants(); err != nil {
		st.quarantined = true
		st.mu.Unlock()
		e.metrics.observeInvariantViolation(req.Symbol)
		log.Error().Err(err).Str("symbol", string(req.Symbol)).Msg("invariant violation, symbol quarantined")
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrInvariantViolation, err)
	}

	events, bboEvent := e.buildEvents(st, req.Symbol, result)
	bidLevels, askLevels := st.book.Bids.Len(), st.book.Asks.Len()
	st.mu.Unlock()

	e.metrics.observeSubmit(req.Symbol, req.Type, len(result.Trades), elapsed, len(result.Warnings) > 0)
	e.metrics.observeDepth(req.Symbol, bidLevels, askLevels)

	for _, w := range result.Warnings {
		log.Warn().Str("symbol", string(req.Symbol)).Str("order_id", order.ID.String()).Msg(w)
	}
	for _, ev := range events {
		e.publisher.PublishTrade(ev)
	}
	e.publisher.PublishBBO(bboEvent)

	return SubmitResult{OrderID: order.ID, Trades: result.Trades, BBO: result.BBO, Warnings: result.Warnings}, nil
}

func (e *Engine) buildEvents(st *symbolState, symbol domain.Symbol, result matching.Result) ([]wire.TradeEvent, wire.BBOEvent) {
	events := make([]wire.TradeEvent, 0, len(result.Trades))
	for i := range result.Trades {
		result.Trades[i].Sequence = st.nextSeq()
		events = append(events, wire.NewTradeEvent(result.Trades[i], result.Trades[i].Sequence))
	}
	bboSeq := st.nextSeq()
	bboEvent := wire.NewBBOEvent(symbol, result.BBO.Bid, result.BBO.Ask, bboSeq, e.clock())
	return events, bboEvent
}

func (e *Engine) matchingConfig() matching.Config {
	return matching.Config{
		MakerFeeRate:      e.cfg.MakerFeeRate,
		TakerFeeRate:      e.cfg.TakerFeeRate,
		MaxTriggerCascade: e.cfg.MaxTriggerCascade,
	}
}

// Cancel removes a resting or pending-trigger order. A cancel of an order
// that is not present is not itself an error: it simply reports canceled
// as false.
func (e *Engine) Cancel(symbol domain.Symbol, id domain.OrderID) (bool, error) {
	st, ok := e.existingStateFor(symbol)
	if !ok {
		return false, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.quarantined {
		return false, fmt.Errorf("%w: %s", ErrSymbolQuarantined, symbol)
	}

	if _, ok := st.book.Cancel(id); ok {
		return true, nil
	}
	_, ok = st.book.Triggers.RemoveByID(id)
	return ok, nil
}

// BookView is the abstract Snapshot operation's output.
type BookView struct {
	Symbol domain.Symbol
	Bids   []book.LevelView
	Asks   []book.LevelView
	BBO    matching.BBO
}

// Snapshot returns up to depth levels on each side, plus the current BBO.
// A symbol with no book yet (nothing ever submitted for it) reports an
// empty view rather than an error.
func (e *Engine) Snapshot(symbol domain.Symbol, depth int) (BookView, error) {
	st, ok := e.existingStateFor(symbol)
	if !ok {
		return BookView{Symbol: symbol}, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	bids, asks := st.book.TopN(depth)
	return BookView{
		Symbol: symbol,
		Bids:   bids,
		Asks:   asks,
		BBO:    matching.CurrentBBO(st.book),
	}, nil
}

// BBO returns the current best bid/offer for symbol.
func (e *Engine) BBO(symbol domain.Symbol) (matching.BBO, error) {
	st, ok := e.existingStateFor(symbol)
	if !ok {
		return matching.BBO{}, nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return matching.CurrentBBO(st.book), nil
}

// Symbols returns every symbol the engine has ever lazily created a book
// for, in no particular order. Used by the persistence layer to enumerate
// what to snapshot.
func (e *Engine) Symbols() []domain.Symbol {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Symbol, 0, len(e.symbols))
	for s := range e.symbols {
		out = append(out, s)
	}
	return out
}

// SymbolDump is a point-in-time copy of one symbol's book, deep enough to
// rebuild it exactly: every resting order (both sides), every pending
// trigger order, the last trade price, and the sequence counter so
// sequence numbers never repeat across a restart.
type SymbolDump struct {
	RestingOrders []*domain.Order
	TriggerOrders []*domain.Order
	LastTradePrice *money.Price
	Seq            uint64
}

// Dump copies out a symbol's full state for persistence. The returned
// orders are clones: the caller may retain them indefinitely without
// aliasing anything the live book later mutates.
func (e *Engine) Dump(symbol domain.Symbol) (SymbolDump, bool) {
	st, ok := e.existingStateFor(symbol)
	if !ok {
		return SymbolDump{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	var resting []*domain.Order
	for _, side := range []*book.BookSide{st.book.Bids, st.book.Asks} {
		for _, lvl := range side.Items() {
			for _, o := range lvl.Orders {
				resting = append(resting, o.Clone())
			}
		}
	}

	var triggers []*domain.Order
	for _, o := range st.book.Triggers.Items() {
		triggers = append(triggers, o.Clone())
	}

	var last *money.Price
	if st.book.LastTradePrice != nil {
		p := *st.book.LastTradePrice
		last = &p
	}

	return SymbolDump{
		RestingOrders:  resting,
		TriggerOrders:  triggers,
		LastTradePrice: last,
		Seq:            st.seq,
	}, true
}

// Restore replaces symbol's book with one rebuilt from dump. It is meant to
// run once at startup, before any transport accepts connections: it does
// not hold the engine-level lock for longer than the get-or-create, and it
// does not re-validate resting orders against tick size or run them through
// the matching state machine (they were already admitted once).
func (e *Engine) Restore(symbol domain.Symbol, dump SymbolDump) {
	st := e.stateFor(symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, o := range dump.RestingOrders {
		_ = st.book.AddResting(o)
	}
	for _, o := range dump.TriggerOrders {
		st.book.Triggers.Add(o)
	}
	if dump.LastTradePrice != nil {
		p := *dump.LastTradePrice
		st.book.LastTradePrice = &p
	}
	st.seq = dump.Seq
}

// Unquarantine clears a symbol's quarantine flag after operator
// intervention. It does not attempt to repair the book.
func (e *Engine) Unquarantine(symbol domain.Symbol) {
	st, ok := e.existingStateFor(symbol)
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.quarantined = false
}

func newOrder(req SubmitRequest, seq uint64, now time.Time) *domain.Order {
	return &domain.Order{
		ID:         domain.NewOrderID(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Type:       req.Type,
		Quantity:   req.Quantity,
		LimitPrice: req.Price,
		StopPrice:  req.StopPrice,
		Sequence:   seq,
		AcceptedAt: now,
		Owner:      req.Owner,
		Filled:     money.ZeroQuantity(),
	}
}

func validate(req SubmitRequest, tick money.Price) error {
	if req.Symbol == "" {
		return ErrUnknownSymbolFormat
	}
	if !req.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if req.Type.RequiresLimitPrice() && req.Price == nil {
		return ErrMissingLimitPrice
	}
	if req.Type.RequiresStopPrice() && req.StopPrice == nil {
		return ErrMissingStopPrice
	}
	if tick.IsZero() {
		return nil
	}
	if req.Price != nil && !isTickMultiple(*req.Price, tick) {
		return ErrTickSize
	}
	if req.StopPrice != nil && !isTickMultiple(*req.StopPrice, tick) {
		return ErrTickSize
	}
	return nil
}

func isTickMultiple(price, tick money.Price) bool {
	_, rem := price.Decimal().QuoRem(tick.Decimal(), 0)
	return rem.IsZero()
}
