// Package persistence saves and restores engine state across restarts. It
// replaces the original Python implementation's pickle-based snapshot
// (opaque, interpreter-version-coupled, unsafe to load from an untrusted
// source) with a self-describing versioned JSON document: every price,
// quantity, and identifier crosses as a decimal or UUID string, the same
// representation the wire package uses for live events.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"venue/internal/domain"
	"venue/internal/engine"
	"venue/internal/money"
)

// CurrentVersion is the snapshot format version this package writes. Bumped
// whenever a field is added or reinterpreted; Load rejects a document whose
// Version it does not recognize rather than guessing at its shape.
const CurrentVersion = 1

// Snapshot is the top-level persisted document.
type Snapshot struct {
	Version   int                       `json:"version"`
	SavedAt   time.Time                 `json:"saved_at"`
	Symbols   map[string]SymbolSnapshot `json:"symbols"`
}

// SymbolSnapshot is one symbol's persisted book state.
type SymbolSnapshot struct {
	RestingOrders  []OrderRecord `json:"resting_orders"`
	TriggerOrders  []OrderRecord `json:"trigger_orders"`
	LastTradePrice *string       `json:"last_trade_price,omitempty"`
	Sequence       uint64        `json:"sequence"`
}

// OrderRecord is the wire-safe representation of a resting or pending
// order: every numeric field is a decimal string, matching the convention
// the wire package uses for published events.
type OrderRecord struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Quantity   string  `json:"quantity"`
	Filled     string  `json:"filled"`
	LimitPrice *string `json:"limit_price,omitempty"`
	StopPrice  *string `json:"stop_price,omitempty"`
	Sequence   uint64  `json:"sequence"`
	AcceptedAt time.Time `json:"accepted_at"`
	Owner      string  `json:"owner"`
}

// Build assembles a Snapshot from the live engine's current state for
// every symbol it has ever touched.
func Build(eng *engine.Engine) Snapshot {
	snap := Snapshot{
		Version: CurrentVersion,
		SavedAt: time.Now(),
		Symbols: make(map[string]SymbolSnapshot),
	}

	for _, symbol := range eng.Symbols() {
		dump, ok := eng.Dump(symbol)
		if !ok {
			continue
		}
		snap.Symbols[string(symbol)] = toSymbolSnapshot(dump)
	}
	return snap
}

func toSymbolSnapshot(dump engine.SymbolDump) SymbolSnapshot {
	s := SymbolSnapshot{
		RestingOrders: make([]OrderRecord, 0, len(dump.RestingOrders)),
		TriggerOrders: make([]OrderRecord, 0, len(dump.TriggerOrders)),
		Sequence:      dump.Seq,
	}
	for _, o := range dump.RestingOrders {
		s.RestingOrders = append(s.RestingOrders, toOrderRecord(o))
	}
	for _, o := range dump.TriggerOrders {
		s.TriggerOrders = append(s.TriggerOrders, toOrderRecord(o))
	}
	if dump.LastTradePrice != nil {
		p := dump.LastTradePrice.String()
		s.LastTradePrice = &p
	}
	return s
}

func toOrderRecord(o *domain.Order) OrderRecord {
	rec := OrderRecord{
		ID:         o.ID.String(),
		Symbol:     string(o.Symbol),
		Side:       o.Side.String(),
		Type:       o.Type.String(),
		Quantity:   o.Quantity.String(),
		Filled:     o.Filled.String(),
		Sequence:   o.Sequence,
		AcceptedAt: o.AcceptedAt,
		Owner:      o.Owner,
	}
	if o.LimitPrice != nil {
		p := o.LimitPrice.String()
		rec.LimitPrice = &p
	}
	if o.StopPrice != nil {
		p := o.StopPrice.String()
		rec.StopPrice = &p
	}
	return rec
}

// Save writes snap to path as indented JSON, creating parent directories as
// needed. It writes to a temporary file and renames into place so a crash
// mid-write never leaves a truncated snapshot at path.
func Save(snap Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("persistence: mkdir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persistence: rename: %w", err)
	}
	return nil
}

// Load reads a Snapshot from path. A missing file is not an error: it
// returns the zero Snapshot and ok=false, the natural "nothing to restore"
// case on a fresh deployment.
func Load(path string) (Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("persistence: read: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("persistence: unmarshal: %w", err)
	}
	if snap.Version != CurrentVersion {
		return Snapshot{}, false, fmt.Errorf("persistence: unsupported snapshot version %d", snap.Version)
	}
	return snap, true, nil
}

// Restore rebuilds every symbol in snap into eng. Intended to run once at
// startup before any transport is accepting connections.
func Restore(eng *engine.Engine, snap Snapshot) error {
	for symbol, symSnap := range snap.Symbols {
		dump, err := fromSymbolSnapshot(domain.Symbol(symbol), symSnap)
		if err != nil {
			return fmt.Errorf("persistence: restore %s: %w", symbol, err)
		}
		eng.Restore(domain.Symbol(symbol), dump)
	}
	return nil
}

func fromSymbolSnapshot(symbol domain.Symbol, s SymbolSnapshot) (engine.SymbolDump, error) {
	dump := engine.SymbolDump{Seq: s.Sequence}

	for _, rec := range s.RestingOrders {
		o, err := fromOrderRecord(symbol, rec)
		if err != nil {
			return engine.SymbolDump{}, err
		}
		dump.RestingOrders = append(dump.RestingOrders, o)
	}
	for _, rec := range s.TriggerOrders {
		o, err := fromOrderRecord(symbol, rec)
		if err != nil {
			return engine.SymbolDump{}, err
		}
		dump.TriggerOrders = append(dump.TriggerOrders, o)
	}
	if s.LastTradePrice != nil {
		p, err := money.ParsePrice(*s.LastTradePrice)
		if err != nil {
			return engine.SymbolDump{}, fmt.Errorf("last_trade_price: %w", err)
		}
		dump.LastTradePrice = &p
	}
	return dump, nil
}

func fromOrderRecord(symbol domain.Symbol, rec OrderRecord) (*domain.Order, error) {
	id, err := domain.ParseOrderID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	side, err := domain.ParseSide(rec.Side)
	if err != nil {
		return nil, err
	}
	orderType, err := domain.ParseOrderType(rec.Type)
	if err != nil {
		return nil, err
	}
	qty, err := money.ParseQuantity(rec.Quantity)
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	filled, err := money.ParseQuantityAllowZero(rec.Filled)
	if err != nil {
		return nil, fmt.Errorf("filled: %w", err)
	}

	var limitPrice, stopPrice *money.Price
	if rec.LimitPrice != nil {
		p, err := money.ParsePrice(*rec.LimitPrice)
		if err != nil {
			return nil, fmt.Errorf("limit_price: %w", err)
		}
		limitPrice = &p
	}
	if rec.StopPrice != nil {
		p, err := money.ParsePrice(*rec.StopPrice)
		if err != nil {
			return nil, fmt.Errorf("stop_price: %w", err)
		}
		stopPrice = &p
	}

	return &domain.Order{
		ID:         id,
		Symbol:     symbol,
		Side:       side,
		Type:       orderType,
		Quantity:   qty,
		LimitPrice: limitPrice,
		StopPrice:  stopPrice,
		Sequence:   rec.Sequence,
		AcceptedAt: rec.AcceptedAt,
		Owner:      rec.Owner,
		Filled:     filled,
	}, nil
}
