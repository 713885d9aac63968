package strategy

import (
	"context"
	"fmt"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// arbitrageStrategy watches the top of the order book and, when the bid/ask
// spread exceeds the configured threshold, proposes a limit buy at the best
// bid and a limit sell at the best ask to capture it.
type arbitrageStrategy struct {
	cfg    domain.BotConfig
	logger ports.Logger
}

func newArbitrageStrategy(cfg domain.BotConfig, logger ports.Logger) (*arbitrageStrategy, error) {
	if cfg.MinSpread <= 0 {
		return nil, fmt.Errorf("%w: arbitrage strategy requires minSpread > 0", ports.ErrValidation)
	}
	if cfg.Quantity <= 0 {
		return nil, fmt.Errorf("%w: arbitrage strategy requires quantity > 0", ports.ErrValidation)
	}
	return &arbitrageStrategy{cfg: cfg, logger: logger}, nil
}

func (s *arbitrageStrategy) Type() domain.StrategyType { return domain.StrategyArbitrage }

func (s *arbitrageStrategy) Analyze(ctx context.Context, snap *ports.MarketSnapshot) ([]domain.ProposedSignal, error) {
	if snap.OrderBook == nil || len(snap.OrderBook.Bids) == 0 || len(snap.OrderBook.Asks) == 0 {
		return nil, nil
	}

	bestBid := snap.OrderBook.Bids[0].Price
	bestAsk := snap.OrderBook.Asks[0].Price
	if bestBid <= 0 || bestAsk <= bestBid {
		return nil, nil
	}

	spread := (bestAsk - bestBid) / bestBid
	if spread < s.cfg.MinSpread {
		return nil, nil
	}

	reason := fmt.Sprintf("spread %.6f exceeds threshold %.6f", spread, s.cfg.MinSpread)
	return []domain.ProposedSignal{
		{
			Type:     domain.SignalBuy,
			Symbol:   snap.OrderBook.Symbol,
			Price:    floatPtr(bestBid),
			Quantity: floatPtr(s.cfg.Quantity),
			Reason:   reason,
		},
		{
			Type:     domain.SignalSell,
			Symbol:   snap.OrderBook.Symbol,
			Price:    floatPtr(bestAsk),
			Quantity: floatPtr(s.cfg.Quantity),
			Reason:   reason,
		},
	}, nil
}
