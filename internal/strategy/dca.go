package strategy

import (
	"context"
	"fmt"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// dcaStrategy buys a fixed quantity at a fixed interval regardless of price.
// The first snapshot triggers an immediate buy; subsequent buys wait out the
// configured interval.
type dcaStrategy struct {
	cfg    domain.BotConfig
	logger ports.Logger

	lastBuy time.Time
}

func newDCAStrategy(cfg domain.BotConfig, logger ports.Logger) (*dcaStrategy, error) {
	if cfg.DCAInterval <= 0 {
		return nil, fmt.Errorf("%w: dca strategy requires dcaInterval > 0", ports.ErrValidation)
	}
	if cfg.Quantity <= 0 {
		return nil, fmt.Errorf("%w: dca strategy requires quantity > 0", ports.ErrValidation)
	}
	return &dcaStrategy{cfg: cfg, logger: logger}, nil
}

func (s *dcaStrategy) Type() domain.StrategyType { return domain.StrategyDCA }

func (s *dcaStrategy) Analyze(ctx context.Context, snap *ports.MarketSnapshot) ([]domain.ProposedSignal, error) {
	if snap.Ticker == nil || snap.Ticker.Price <= 0 {
		return nil, fmt.Errorf("%w: dca analysis requires a ticker price", ports.ErrInvalidRequest)
	}
	if !s.lastBuy.IsZero() && snap.Now.Sub(s.lastBuy) < s.cfg.DCAInterval {
		return nil, nil
	}
	s.lastBuy = snap.Now

	return []domain.ProposedSignal{{
		Type:     domain.SignalBuy,
		Symbol:   snap.Ticker.Symbol,
		Quantity: floatPtr(s.cfg.Quantity),
		Reason:   fmt.Sprintf("dca interval buy at %.8g", snap.Ticker.Price),
	}}, nil
}
