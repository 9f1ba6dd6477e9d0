// Package config holds the tunables the matching core and its transports
// need beyond the request itself: per-symbol tick sizes, fee rates, the
// trigger cascade bound, and the listen addresses. Listen addresses and
// ports are read from environment variables with built-in fallbacks; no
// command-line flag overrides them. This follows the same plain-struct style
// the teacher codebase
// uses for its server address/port rather than reaching for a config
// framework no example in the corpus actually imports directly.
package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"venue/internal/domain"
	"venue/internal/money"
)

// Config is the fully-resolved engine configuration.
type Config struct {
	TCPAddress string
	TCPPort    int
	WSAddress  string
	WSPort     int
	MetricsAddr string

	MakerFeeRate decimal.Decimal
	TakerFeeRate decimal.Decimal

	MaxTriggerCascade int

	// TickSizes maps a symbol to its required price granularity. A symbol
	// absent from this map has tick-size enforcement disabled.
	TickSizes map[domain.Symbol]money.Price
}

// Default returns the baseline configuration, overridable via environment
// variables (VENUE_TCP_PORT, VENUE_WS_PORT, VENUE_METRICS_ADDR, ...). Fee
// rates, the cascade bound and tick sizes are fixed defaults here.
func Default() Config {
	return Config{
		TCPAddress:        envOr("VENUE_TCP_ADDRESS", "0.0.0.0"),
		TCPPort:           envOrInt("VENUE_TCP_PORT", 9001),
		WSAddress:         envOr("VENUE_WS_ADDRESS", "0.0.0.0"),
		WSPort:            envOrInt("VENUE_WS_PORT", 9002),
		MetricsAddr:       envOr("VENUE_METRICS_ADDR", ":9090"),
		MakerFeeRate:      decimal.Zero,
		TakerFeeRate:      decimal.Zero,
		MaxTriggerCascade: 64,
		TickSizes:         map[domain.Symbol]money.Price{},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
