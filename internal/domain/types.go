package domain

import "fmt"

// Side is a closed tagged union: an order is either buying or selling.
// Dispatch on it is always a switch, never a type hierarchy.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide parses the wire/persistence string form of a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("domain: unknown side %q", s)
	}
}

// OrderType is a closed tagged union over the seven order types the core
// understands. STOP/STOP_LIMIT/TAKE_PROFIT are inert until activated by the
// trigger table; they never rest directly in a book side.
type OrderType int

const (
	Market OrderType = iota
	Limit
	IOC
	FOK
	Stop
	StopLimit
	TakeProfit
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	case Stop:
		return "stop"
	case StopLimit:
		return "stop_limit"
	case TakeProfit:
		return "take_profit"
	default:
		return "unknown"
	}
}

// RequiresLimitPrice reports whether an order of this type must carry a
// limit price at acceptance time.
func (t OrderType) RequiresLimitPrice() bool {
	return t == Limit || t == StopLimit
}

// RequiresStopPrice reports whether an order of this type must carry a
// stop/trigger price at acceptance time.
func (t OrderType) RequiresStopPrice() bool {
	return t == Stop || t == StopLimit || t == TakeProfit
}

// IsTriggerType reports whether orders of this type are held inert in the
// trigger table instead of being matched or resting immediately.
func (t OrderType) IsTriggerType() bool {
	return t == Stop || t == StopLimit || t == TakeProfit
}

// ParseOrderType parses the wire/persistence string form of an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "market":
		return Market, nil
	case "limit":
		return Limit, nil
	case "ioc":
		return IOC, nil
	case "fok":
		return FOK, nil
	case "stop":
		return Stop, nil
	case "stop_limit":
		return StopLimit, nil
	case "take_profit":
		return TakeProfit, nil
	default:
		return 0, fmt.Errorf("domain: unknown order type %q", s)
	}
}

// Symbol identifies a tradable instrument. It is a plain string rather than
// an enum: the set of symbols is open-ended and configured at runtime.
type Symbol string
