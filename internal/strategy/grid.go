package strategy

import (
	"context"
	"fmt"
	"math"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// gridStrategy buys when the price drops a full grid level and sells when it
// rises one. The anchor price is fixed on the first snapshot; levels are
// spaced GridSpacing (fraction of the anchor) apart and capped at
// +-GridLevels around it.
type gridStrategy struct {
	cfg    domain.BotConfig
	logger ports.Logger

	anchor    float64
	lastLevel int
	hasAnchor bool
}

func newGridStrategy(cfg domain.BotConfig, logger ports.Logger) (*gridStrategy, error) {
	if cfg.GridLevels <= 0 {
		return nil, fmt.Errorf("%w: grid strategy requires gridLevels > 0", ports.ErrValidation)
	}
	if cfg.GridSpacing <= 0 {
		return nil, fmt.Errorf("%w: grid strategy requires gridSpacing > 0", ports.ErrValidation)
	}
	if cfg.Quantity <= 0 {
		return nil, fmt.Errorf("%w: grid strategy requires quantity > 0", ports.ErrValidation)
	}
	return &gridStrategy{cfg: cfg, logger: logger}, nil
}

func (s *gridStrategy) Type() domain.StrategyType { return domain.StrategyGrid }

func (s *gridStrategy) Analyze(ctx context.Context, snap *ports.MarketSnapshot) ([]domain.ProposedSignal, error) {
	if snap.Ticker == nil || snap.Ticker.Price <= 0 {
		return nil, fmt.Errorf("%w: grid analysis requires a ticker price", ports.ErrInvalidRequest)
	}
	price := snap.Ticker.Price

	if !s.hasAnchor {
		s.anchor = price
		s.lastLevel = 0
		s.hasAnchor = true
		s.logger.Debug(ctx, "Grid anchor set", map[string]interface{}{
			"symbol": snap.Ticker.Symbol,
			"anchor": price,
		})
		return nil, nil
	}

	step := s.anchor * s.cfg.GridSpacing
	level := int(math.Floor((price - s.anchor) / step))
	if level > s.cfg.GridLevels {
		level = s.cfg.GridLevels
	} else if level < -s.cfg.GridLevels {
		level = -s.cfg.GridLevels
	}
	if level == s.lastLevel {
		return nil, nil
	}

	sigType := domain.SignalBuy
	if level > s.lastLevel {
		sigType = domain.SignalSell
	}
	reason := fmt.Sprintf("grid level crossed: %d -> %d at %.8g", s.lastLevel, level, price)
	s.lastLevel = level

	return []domain.ProposedSignal{{
		Type:     sigType,
		Symbol:   snap.Ticker.Symbol,
		Price:    floatPtr(price),
		Quantity: floatPtr(s.cfg.Quantity),
		Reason:   reason,
	}}, nil
}
