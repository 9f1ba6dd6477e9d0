package matching

import (
	"time"

	"venue/internal/book"
	"venue/internal/domain"
)

// activateCascade repeatedly scans b.Triggers against b.LastTradePrice,
// re-injecting every order that activates as a synthetic MARKET (for
// STOP/TAKE_PROFIT) or LIMIT (for STOP_LIMIT) order, in the order
// encountered. Re-injection may itself move the last trade price and
// trigger further activations, so this iterates to a fixed point — bounded
// by cfg.MaxTriggerCascade total activations across the whole call tree via
// the shared used counter, per the resource-exhaustion policy: when the
// bound is hit, the cascade stops and any orders already popped out of the
// trigger table for this round but not yet processed are put back.
func activateCascade(b *book.Book, cfg Config, now time.Time, used *int) ([]domain.Trade, []string) {
	var trades []domain.Trade
	var warnings []string
	bound := cfg.cascadeBound()

	for {
		if b.LastTradePrice == nil {
			return trades, warnings
		}
		activated := b.Triggers.Activate(*b.LastTradePrice)
		if len(activated) == 0 {
			return trades, warnings
		}

		for i, triggered := range activated {
			if *used >= bound {
				for _, rem := range activated[i:] {
					b.Triggers.Add(rem)
				}
				warnings = append(warnings, "trigger cascade bound reached; remaining triggers preserved for a future submission")
				return trades, warnings
			}
			*used++

			synthetic := synthesize(triggered)
			result := processWithBudget(b, synthetic, cfg, now, used)
			trades = append(trades, result.Trades...)
			warnings = append(warnings, result.Warnings...)
		}
	}
}

// synthesize converts an activated trigger order into the order it becomes
// once live: STOP and TAKE_PROFIT become MARKET; STOP_LIMIT becomes LIMIT
// at its configured limit price. The order keeps its original identity.
func synthesize(o *domain.Order) *domain.Order {
	live := o.Clone()
	live.StopPrice = nil
	if o.Type == domain.StopLimit {
		live.Type = domain.Limit
	} else {
		live.Type = domain.Market
		live.LimitPrice = nil
	}
	return live
}
