package ports

import (
	"context"
	"time"

	"tradeHive/internal/domain"
)

// MarketSnapshot is the input a strategy analyzes: current market data plus
// the owning bot's state at one point in time.
type MarketSnapshot struct {
	Ticker    *Ticker
	OrderBook *OrderBook
	Bot       *domain.Bot
	Now       time.Time
}

// Strategy defines the interface for pluggable trading strategies.
// Analyze must be deterministic for a given snapshot and must not call the
// exchange; the only permitted state are strategy-internal counters such as
// the last grid level crossed.
type Strategy interface {
	// Type returns the strategy variant this instance implements.
	Type() domain.StrategyType

	// Analyze inspects the snapshot and proposes zero or more signals.
	Analyze(ctx context.Context, snap *MarketSnapshot) ([]domain.ProposedSignal, error)
}
