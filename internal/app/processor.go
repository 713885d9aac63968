package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// botNotRunningMsg is the terminal error recorded on signals whose bot is
// absent from the registry or not in the running state.
const botNotRunningMsg = "Bot not running"

// Processor drains the durable signal queue. Signals are processed strictly
// oldest-first and each one reaches its terminal state exactly once, with
// either a recorded trade or an error message.
type Processor struct {
	logger   ports.Logger
	registry *Registry
	signals  ports.SignalRepository
	trades   ports.TradeRepository
	bots     ports.BotRepository
}

func NewProcessor(logger ports.Logger, registry *Registry, signals ports.SignalRepository, trades ports.TradeRepository, bots ports.BotRepository) (*Processor, error) {
	if logger == nil || registry == nil || signals == nil || trades == nil || bots == nil {
		return nil, fmt.Errorf("missing required dependencies for Processor")
	}
	return &Processor{
		logger:   logger,
		registry: registry,
		signals:  signals,
		trades:   trades,
		bots:     bots,
	}, nil
}

// Enqueue validates and persists a signal as pending. Execution happens on
// the next processing pass; the caller only learns the queue accepted it.
func (p *Processor) Enqueue(ctx context.Context, sig *domain.Signal) (int64, error) {
	if sig == nil {
		return 0, fmt.Errorf("%w: signal is nil", ports.ErrInvalidRequest)
	}
	if strings.TrimSpace(sig.BotID) == "" {
		return 0, fmt.Errorf("%w: signal requires a bot ID", ports.ErrValidation)
	}
	if sig.Type == "" {
		return 0, fmt.Errorf("%w: signal requires a type", ports.ErrValidation)
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}

	id, err := p.signals.Create(ctx, sig)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue signal: %w", err)
	}
	p.logger.Debug(ctx, "Signal enqueued", map[string]interface{}{
		"signalID": id,
		"botID":    sig.BotID,
		"type":     string(sig.Type),
	})
	return id, nil
}

// ProcessPending drains the queue in FIFO order. A failing signal is marked
// failed and the pass continues with the next one; the queue never retries.
func (p *Processor) ProcessPending(ctx context.Context) error {
	pending, err := p.signals.FindPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pending signals: %w", err)
	}
	for _, sig := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.processOne(ctx, sig)
	}
	return nil
}

// ProcessInline persists a strategy-proposed signal and runs it through the
// same path queued signals take, before control returns to the caller.
func (p *Processor) ProcessInline(ctx context.Context, ab *ActiveBot, proposed domain.ProposedSignal) {
	sig := &domain.Signal{
		BotID:      ab.Bot.ID,
		Type:       proposed.Type,
		Symbol:     proposed.Symbol,
		Price:      proposed.Price,
		Quantity:   proposed.Quantity,
		TakeProfit: proposed.TakeProfit,
		StopLoss:   proposed.StopLoss,
		Leverage:   proposed.Leverage,
		Payload:    proposed.Reason,
		CreatedAt:  time.Now().UTC(),
	}
	id, err := p.Enqueue(ctx, sig)
	if err != nil {
		p.logger.Error(ctx, err, "Failed to persist generated signal", map[string]interface{}{"botID": ab.Bot.ID})
		return
	}
	sig.ID = id
	p.processOne(ctx, sig)
}

// processOne takes a signal to its terminal state. The durable claim comes
// first: the queue-drain job and the inline path can each hold their own
// pending copy of the same row, and only the copy that wins the claim may
// touch the exchange. A failed claim leaves the row pending for the next
// pass, so nothing executes without a recorded claim.
func (p *Processor) processOne(ctx context.Context, sig *domain.Signal) {
	if sig.Processed {
		return
	}
	claimed, err := p.signals.Claim(ctx, sig.ID)
	if err != nil {
		p.logger.Error(ctx, err, "Failed to claim signal", map[string]interface{}{"signalID": sig.ID})
		return
	}
	if !claimed {
		sig.Processed = true
		return
	}
	sig.Processed = true

	ab := p.registry.Get(sig.BotID)
	if ab == nil || !ab.IsRunning() {
		p.finish(ctx, sig, botNotRunningMsg)
		return
	}

	switch sig.Type {
	case domain.SignalBuy:
		err = p.executeOrder(ctx, ab, sig, domain.Buy)
	case domain.SignalSell:
		err = p.executeOrder(ctx, ab, sig, domain.Sell)
	case domain.SignalClose:
		err = p.executeClose(ctx, ab, sig)
	case domain.SignalUpdateTP:
		err = p.updateLevel(ctx, ab, sig, true)
	case domain.SignalUpdateSL:
		err = p.updateLevel(ctx, ab, sig, false)
	default:
		err = fmt.Errorf("%w: %s", ports.ErrUnknownSignalType, sig.Type)
	}

	if err != nil {
		p.logger.Error(ctx, err, "Signal processing failed", map[string]interface{}{
			"signalID": sig.ID,
			"botID":    sig.BotID,
			"type":     string(sig.Type),
		})
		p.finish(ctx, sig, err.Error())
		return
	}
	p.finish(ctx, sig, "")
}

// finish stores the outcome of an already-claimed signal. The claim, not
// this write, is what prevents re-execution; a failure here only loses the
// message.
func (p *Processor) finish(ctx context.Context, sig *domain.Signal, errorMessage string) {
	if err := p.signals.RecordOutcome(ctx, sig.ID, errorMessage); err != nil {
		p.logger.Error(ctx, err, "Failed to record signal outcome", map[string]interface{}{"signalID": sig.ID})
	}
	sig.ErrorMessage = errorMessage
}

// executeOrder places the order a buy/sell signal describes and records the
// resulting trade. The bot's mutex is held for the whole mutation so order
// placement, position tracking, and trade recording act as one step.
func (p *Processor) executeOrder(ctx context.Context, ab *ActiveBot, sig *domain.Signal, side domain.OrderSide) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	req := p.buildOrderRequest(ab, sig, side)
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: no quantity on signal or bot config", ports.ErrValidation)
	}

	order, err := ab.Client.CreateOrder(ctx, req)
	if err != nil {
		return err
	}
	ab.trackOrder(order)

	trade := p.buildTrade(ab, order, req)
	if _, err := p.trades.CreateTrade(ctx, trade); err != nil {
		return fmt.Errorf("order placed but trade recording failed: %w", err)
	}
	ab.Bot.LastTradeAt = trade.ExecutedAt

	if err := p.refreshPerformance(ctx, ab); err != nil {
		p.logger.Warn(ctx, "Performance refresh failed after trade", map[string]interface{}{
			"botID": ab.Bot.ID,
			"error": err.Error(),
		})
	}

	p.logger.Info(ctx, "Order executed", map[string]interface{}{
		"botID":    ab.Bot.ID,
		"orderID":  order.ID,
		"symbol":   req.Symbol,
		"side":     string(side),
		"quantity": req.Quantity,
	})
	return nil
}

// executeClose liquidates the tracked position with a market sell. Without a
// tracked position it falls back to the signal/config quantity.
func (p *Processor) executeClose(ctx context.Context, ab *ActiveBot, sig *domain.Signal) error {
	ab.mu.Lock()
	qty := ab.positionQty
	ab.mu.Unlock()

	if qty > 0 {
		sig.Quantity = &qty
	}
	sig.Price = nil // Close is always a market order.
	return p.executeOrder(ctx, ab, sig, domain.Sell)
}

// updateLevel adjusts the bot's tracked take-profit or stop-loss level. No
// exchange order is placed; the level only annotates bot state.
func (p *Processor) updateLevel(ctx context.Context, ab *ActiveBot, sig *domain.Signal, takeProfit bool) error {
	var level *float64
	if takeProfit {
		level = sig.TakeProfit
	} else {
		level = sig.StopLoss
	}
	if level == nil {
		level = sig.Price
	}
	if level == nil || *level <= 0 {
		return fmt.Errorf("%w: level update requires a positive value", ports.ErrValidation)
	}

	ab.mu.Lock()
	if takeProfit {
		ab.Bot.Config.TakeProfit = *level
	} else {
		ab.Bot.Config.StopLoss = *level
	}
	cfg := ab.Bot.Config
	ab.mu.Unlock()

	if err := p.bots.UpdateConfig(ctx, ab.Bot.ID, cfg); err != nil {
		return fmt.Errorf("failed to persist level update: %w", err)
	}
	return nil
}

// buildOrderRequest resolves order parameters: explicit signal fields win,
// bot config fills the gaps. A signal price makes the order a limit order.
func (p *Processor) buildOrderRequest(ab *ActiveBot, sig *domain.Signal, side domain.OrderSide) ports.OrderRequest {
	req := ports.OrderRequest{
		Symbol: ab.Bot.TradingPair,
		Side:   side,
		Type:   domain.Market,
	}
	if sig.Symbol != "" {
		req.Symbol = sig.Symbol
	}
	if sig.Price != nil && *sig.Price > 0 {
		req.Type = domain.Limit
		req.Price = *sig.Price
	}
	if sig.Quantity != nil && *sig.Quantity > 0 {
		req.Quantity = *sig.Quantity
	} else {
		req.Quantity = ab.Bot.Config.Quantity
	}
	if sig.Leverage != nil && *sig.Leverage > 0 {
		req.Leverage = *sig.Leverage
	} else {
		req.Leverage = ab.Bot.Config.Leverage
	}
	return req
}

// buildTrade converts an executed order into an immutable trade record and
// advances the bot's position tracking. Called with ab.mu held.
func (p *Processor) buildTrade(ab *ActiveBot, order *ports.Order, req ports.OrderRequest) *domain.Trade {
	executedAt := order.Timestamp
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}
	fillPrice := order.ExecutedPrice
	if fillPrice == 0 {
		fillPrice = order.Price
	}
	fillQty := order.ExecutedQuantity
	if fillQty == 0 {
		fillQty = order.Quantity
	}

	var profitLoss float64
	if req.Side == domain.Buy {
		// Weighted average entry across accumulated buys.
		total := ab.positionQty + fillQty
		if total > 0 {
			ab.avgEntryPrice = (ab.avgEntryPrice*ab.positionQty + fillPrice*fillQty) / total
		}
		ab.positionQty = total
	} else {
		if ab.positionQty > 0 && ab.avgEntryPrice > 0 {
			closed := fillQty
			if closed > ab.positionQty {
				closed = ab.positionQty
			}
			profitLoss = (fillPrice - ab.avgEntryPrice) * closed
			ab.positionQty -= closed
			if ab.positionQty == 0 {
				ab.avgEntryPrice = 0
			}
		}
	}

	return &domain.Trade{
		UserID:           ab.Bot.UserID,
		BotID:            ab.Bot.ID,
		Exchange:         ab.Bot.Exchange,
		ExchangeOrderID:  order.ID,
		Symbol:           order.Symbol,
		Side:             req.Side,
		Type:             req.Type,
		Quantity:         order.Quantity,
		Price:            order.Price,
		ExecutedPrice:    fillPrice,
		ExecutedQuantity: fillQty,
		Fee:              order.Fee,
		FeeCurrency:      order.FeeCurrency,
		Status:           order.Status,
		IsFutures:        req.Leverage > 1,
		Leverage:         req.Leverage,
		ProfitLoss:       profitLoss,
		ExecutedAt:       executedAt,
	}
}

// refreshPerformance recomputes the bot's counters from its full trade
// history and persists them. Called with ab.mu held.
func (p *Processor) refreshPerformance(ctx context.Context, ab *ActiveBot) error {
	trades, err := p.trades.FindByBot(ctx, ab.Bot.ID)
	if err != nil {
		return err
	}
	totalTrades, totalProfit, winRate := computePerformance(trades)
	ab.Bot.TotalTrades = totalTrades
	ab.Bot.TotalProfit = totalProfit
	ab.Bot.WinRate = winRate
	return p.bots.UpdatePerformance(ctx, ab.Bot.ID, totalTrades, totalProfit, winRate)
}
