package app

import (
	"context"
	"time"

	"tradeHive/internal/domain"
)

const (
	signalRetention = 30 * 24 * time.Hour
	auditRetention  = 90 * 24 * time.Hour
)

func nowUTC() time.Time { return time.Now().UTC() }

// computePerformance aggregates a bot's counters from its trade history.
// Only filled trades count; with none, every counter including the win rate
// is zero.
func computePerformance(trades []*domain.Trade) (totalTrades int, totalProfit, winRate float64) {
	winning := 0
	for _, trade := range trades {
		if trade.Status != domain.OrderFilled {
			continue
		}
		totalTrades++
		totalProfit += trade.ProfitLoss
		if trade.ProfitLoss > 0 {
			winning++
		}
	}
	if totalTrades > 0 {
		winRate = float64(winning) / float64(totalTrades) * 100
	}
	return totalTrades, totalProfit, winRate
}

// UpdateMetrics refreshes performance counters and the tracked base-currency
// balance for every registered bot. Failures are per-bot and logged.
func (s *Supervisor) UpdateMetrics(ctx context.Context) {
	for _, ab := range s.registry.Snapshot() {
		if ctx.Err() != nil {
			return
		}

		trades, err := s.trades.FindByBot(ctx, ab.Bot.ID)
		if err != nil {
			s.logger.Warn(ctx, "Metrics: trade history fetch failed", map[string]interface{}{
				"botID": ab.Bot.ID,
				"error": err.Error(),
			})
			continue
		}
		totalTrades, totalProfit, winRate := computePerformance(trades)
		if err := s.bots.UpdatePerformance(ctx, ab.Bot.ID, totalTrades, totalProfit, winRate); err != nil {
			s.logger.Warn(ctx, "Metrics: performance update failed", map[string]interface{}{
				"botID": ab.Bot.ID,
				"error": err.Error(),
			})
		}

		balances, err := ab.Client.GetBalance(ctx)
		if err != nil {
			s.logger.Warn(ctx, "Metrics: balance fetch failed", map[string]interface{}{
				"botID": ab.Bot.ID,
				"error": err.Error(),
			})
			continue
		}
		// Config fields mutate under ab.mu (update_tp/update_sl), so the
		// read takes the lock too.
		ab.mu.Lock()
		base := ab.Bot.Config.BaseCurrency
		ab.mu.Unlock()
		if base == "" {
			base = "USDT"
		}
		if err := s.bots.UpdateCurrentBalance(ctx, ab.Bot.ID, balances[base]); err != nil {
			s.logger.Warn(ctx, "Metrics: balance update failed", map[string]interface{}{
				"botID": ab.Bot.ID,
				"error": err.Error(),
			})
		}

		ab.mu.Lock()
		ab.Bot.TotalTrades = totalTrades
		ab.Bot.TotalProfit = totalProfit
		ab.Bot.WinRate = winRate
		ab.Bot.CurrentBalance = balances[base]
		ab.mu.Unlock()
	}
}

// SyncBalances aggregates each bot's account balance into the owning user's
// total. Amounts of different assets are summed as-is, without conversion;
// the total is a raw activity indicator, not a valuation.
func (s *Supervisor) SyncBalances(ctx context.Context) {
	for _, ab := range s.registry.Snapshot() {
		if ctx.Err() != nil {
			return
		}

		balances, err := ab.Client.GetBalance(ctx)
		if err != nil {
			s.logger.Warn(ctx, "Balance sync failed", map[string]interface{}{
				"botID": ab.Bot.ID,
				"error": err.Error(),
			})
			continue
		}

		total := 0.0
		for _, amount := range balances {
			total += amount
		}
		if err := s.users.UpdateTotalBalance(ctx, ab.Bot.UserID, total); err != nil {
			s.logger.Warn(ctx, "User balance update failed", map[string]interface{}{
				"userID": ab.Bot.UserID,
				"error":  err.Error(),
			})
		}
	}
}

// DailyMaintenance prunes processed signals older than 30 days and audit
// entries older than 90 days.
func (s *Supervisor) DailyMaintenance(ctx context.Context) {
	now := nowUTC()

	removedSignals, err := s.signals.DeleteProcessedBefore(ctx, now.Add(-signalRetention))
	if err != nil {
		s.logger.Error(ctx, err, "Maintenance: signal pruning failed")
	}
	removedAudit, err := s.audit.DeleteBefore(ctx, now.Add(-auditRetention))
	if err != nil {
		s.logger.Error(ctx, err, "Maintenance: audit pruning failed")
	}

	s.logger.Info(ctx, "Daily maintenance complete", map[string]interface{}{
		"signalsRemoved": removedSignals,
		"auditRemoved":   removedAudit,
	})
}
