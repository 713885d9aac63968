package strategy

import (
	"fmt"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// New creates the strategy implementation for the given variant. The bot's
// config bag is validated against the variant's requirements up front so a
// misconfigured bot fails at start rather than mid-trade.
func New(strategyType domain.StrategyType, cfg domain.BotConfig, logger ports.Logger) (ports.Strategy, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrValidation)
	}

	switch strategyType {
	case domain.StrategyGrid:
		return newGridStrategy(cfg, logger)
	case domain.StrategyDCA:
		return newDCAStrategy(cfg, logger)
	case domain.StrategyScalping:
		return newScalpingStrategy(cfg, logger)
	case domain.StrategySwing:
		return newSwingStrategy(cfg, logger)
	case domain.StrategyArbitrage:
		return newArbitrageStrategy(cfg, logger)
	case domain.StrategySignal, domain.StrategyCopyTrading:
		// Externally driven variants: all signals arrive via webhooks,
		// the monitor loop never generates any.
		return newPassiveStrategy(strategyType), nil
	default:
		return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedStrategy, strategyType)
	}
}

func floatPtr(v float64) *float64 { return &v }
