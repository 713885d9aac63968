package strategy

import (
	"context"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// passiveStrategy covers the externally driven variants (signal and
// copy trading): every trade instruction arrives through the webhook
// boundary, so analysis never proposes anything.
type passiveStrategy struct {
	strategyType domain.StrategyType
}

func newPassiveStrategy(strategyType domain.StrategyType) *passiveStrategy {
	return &passiveStrategy{strategyType: strategyType}
}

func (s *passiveStrategy) Type() domain.StrategyType { return s.strategyType }

func (s *passiveStrategy) Analyze(ctx context.Context, snap *ports.MarketSnapshot) ([]domain.ProposedSignal, error) {
	return nil, nil
}
