package strategy

import (
	"context"
	"fmt"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

const defaultRSIPeriod = 14

// scalpingStrategy trades RSI extremes over an internal price window built
// from successive snapshots: oversold proposes a buy, overbought proposes a
// sell. A signal fires only when the RSI crosses into the extreme zone, not
// on every tick spent inside it.
type scalpingStrategy struct {
	cfg    domain.BotConfig
	logger ports.Logger

	period   int
	prices   []float64
	lastZone string // "", "oversold", "overbought", "neutral"
}

func newScalpingStrategy(cfg domain.BotConfig, logger ports.Logger) (*scalpingStrategy, error) {
	period := cfg.RSIPeriod
	if period == 0 {
		period = defaultRSIPeriod
	}
	if period < 2 {
		return nil, fmt.Errorf("%w: scalping strategy requires rsiPeriod >= 2", ports.ErrValidation)
	}
	if cfg.RSIOverbought <= cfg.RSIOversold {
		return nil, fmt.Errorf("%w: scalping strategy requires rsiOverbought > rsiOversold", ports.ErrValidation)
	}
	if cfg.Quantity <= 0 {
		return nil, fmt.Errorf("%w: scalping strategy requires quantity > 0", ports.ErrValidation)
	}
	return &scalpingStrategy{cfg: cfg, logger: logger, period: period}, nil
}

func (s *scalpingStrategy) Type() domain.StrategyType { return domain.StrategyScalping }

func (s *scalpingStrategy) Analyze(ctx context.Context, snap *ports.MarketSnapshot) ([]domain.ProposedSignal, error) {
	if snap.Ticker == nil || snap.Ticker.Price <= 0 {
		return nil, fmt.Errorf("%w: scalping analysis requires a ticker price", ports.ErrInvalidRequest)
	}

	s.prices = append(s.prices, snap.Ticker.Price)
	// Keep enough history for Wilder smoothing to settle.
	if maxLen := s.period * 3; len(s.prices) > maxLen {
		s.prices = s.prices[len(s.prices)-maxLen:]
	}
	if len(s.prices) <= s.period {
		return nil, nil
	}

	rsi := rsiValue(s.prices, s.period)
	zone := "neutral"
	if rsi <= s.cfg.RSIOversold {
		zone = "oversold"
	} else if rsi >= s.cfg.RSIOverbought {
		zone = "overbought"
	}
	if zone == s.lastZone {
		return nil, nil
	}
	s.lastZone = zone

	switch zone {
	case "oversold":
		return []domain.ProposedSignal{{
			Type:     domain.SignalBuy,
			Symbol:   snap.Ticker.Symbol,
			Quantity: floatPtr(s.cfg.Quantity),
			Reason:   fmt.Sprintf("rsi oversold: %.2f <= %.2f", rsi, s.cfg.RSIOversold),
		}}, nil
	case "overbought":
		return []domain.ProposedSignal{{
			Type:     domain.SignalSell,
			Symbol:   snap.Ticker.Symbol,
			Quantity: floatPtr(s.cfg.Quantity),
			Reason:   fmt.Sprintf("rsi overbought: %.2f >= %.2f", rsi, s.cfg.RSIOverbought),
		}}, nil
	default:
		return nil, nil
	}
}
