package strategy

import (
	"context"
	"fmt"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// swingStrategy trades EMA crossovers over an internal price window: the
// short EMA crossing above the long one proposes a buy, crossing below
// proposes a sell.
type swingStrategy struct {
	cfg    domain.BotConfig
	logger ports.Logger

	prices        []float64
	shortAbove    bool
	crossObserved bool
}

func newSwingStrategy(cfg domain.BotConfig, logger ports.Logger) (*swingStrategy, error) {
	if cfg.EMAShort <= 0 || cfg.EMALong <= 0 {
		return nil, fmt.Errorf("%w: swing strategy requires emaShort and emaLong > 0", ports.ErrValidation)
	}
	if cfg.EMAShort >= cfg.EMALong {
		return nil, fmt.Errorf("%w: swing strategy requires emaShort < emaLong", ports.ErrValidation)
	}
	if cfg.Quantity <= 0 {
		return nil, fmt.Errorf("%w: swing strategy requires quantity > 0", ports.ErrValidation)
	}
	return &swingStrategy{cfg: cfg, logger: logger}, nil
}

func (s *swingStrategy) Type() domain.StrategyType { return domain.StrategySwing }

func (s *swingStrategy) Analyze(ctx context.Context, snap *ports.MarketSnapshot) ([]domain.ProposedSignal, error) {
	if snap.Ticker == nil || snap.Ticker.Price <= 0 {
		return nil, fmt.Errorf("%w: swing analysis requires a ticker price", ports.ErrInvalidRequest)
	}

	s.prices = append(s.prices, snap.Ticker.Price)
	if maxLen := s.cfg.EMALong * 3; len(s.prices) > maxLen {
		s.prices = s.prices[len(s.prices)-maxLen:]
	}
	if len(s.prices) < s.cfg.EMALong {
		return nil, nil
	}

	short := emaValue(s.prices, s.cfg.EMAShort)
	long := emaValue(s.prices, s.cfg.EMALong)
	above := short > long

	// The first computed relation only seeds the cross detector.
	if !s.crossObserved {
		s.shortAbove = above
		s.crossObserved = true
		return nil, nil
	}
	if above == s.shortAbove {
		return nil, nil
	}
	s.shortAbove = above

	sigType := domain.SignalSell
	if above {
		sigType = domain.SignalBuy
	}
	return []domain.ProposedSignal{{
		Type:     sigType,
		Symbol:   snap.Ticker.Symbol,
		Quantity: floatPtr(s.cfg.Quantity),
		Reason:   fmt.Sprintf("ema cross: short %.8g vs long %.8g", short, long),
	}}, nil
}
