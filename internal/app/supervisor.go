package app

import (
	"context"
	"fmt"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
	"tradeHive/internal/strategy"
)

// ControlResult is the outcome of a bot lifecycle operation.
type ControlResult struct {
	Success bool
	Error   string
}

func controlOK() ControlResult { return ControlResult{Success: true} }

func controlErr(msg string) ControlResult { return ControlResult{Error: msg} }

// Supervisor owns the bot lifecycle: loading on startup, start/stop/pause
// control operations, and the periodic monitor tick that drives strategies.
type Supervisor struct {
	logger    ports.Logger
	registry  *Registry
	processor *Processor
	connector ports.Connector
	bots      ports.BotRepository
	trades    ports.TradeRepository
	users     ports.UserRepository
	audit     ports.AuditRepository
	signals   ports.SignalRepository
}

// SupervisorConfig collects the supervisor's dependencies.
type SupervisorConfig struct {
	Logger    ports.Logger
	Registry  *Registry
	Processor *Processor
	Connector ports.Connector
	Bots      ports.BotRepository
	Trades    ports.TradeRepository
	Users     ports.UserRepository
	Audit     ports.AuditRepository
	Signals   ports.SignalRepository
}

func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if cfg.Logger == nil || cfg.Registry == nil || cfg.Processor == nil || cfg.Connector == nil ||
		cfg.Bots == nil || cfg.Trades == nil || cfg.Users == nil || cfg.Audit == nil || cfg.Signals == nil {
		return nil, fmt.Errorf("missing required dependencies for Supervisor")
	}
	return &Supervisor{
		logger:    cfg.Logger,
		registry:  cfg.Registry,
		processor: cfg.Processor,
		connector: cfg.Connector,
		bots:      cfg.Bots,
		trades:    cfg.Trades,
		users:     cfg.Users,
		audit:     cfg.Audit,
		signals:   cfg.Signals,
	}, nil
}

// LoadActiveBots restores every bot persisted as running into the registry.
// A bot whose initialization fails is persisted as errored and skipped; one
// broken credential must not keep the rest of the fleet down.
func (s *Supervisor) LoadActiveBots(ctx context.Context) error {
	running, err := s.bots.FindByStatus(ctx, domain.BotRunning)
	if err != nil {
		return fmt.Errorf("failed to load running bots: %w", err)
	}

	loaded := 0
	for _, bot := range running {
		if err := s.initBot(ctx, bot); err != nil {
			s.logger.Error(ctx, err, "Bot initialization failed", map[string]interface{}{"botID": bot.ID})
			s.markBotError(ctx, bot.ID, err.Error())
			continue
		}
		loaded++
	}

	s.logger.Info(ctx, "Active bots loaded", map[string]interface{}{
		"loaded": loaded,
		"total":  len(running),
	})
	return nil
}

// initBot connects to the exchange, builds the strategy, and registers the
// bot. The connector's auth check makes a bad credential fail here.
func (s *Supervisor) initBot(ctx context.Context, bot *domain.Bot) error {
	client, err := s.connector.Connect(ctx, bot.Exchange, bot.APIKey, bot.APISecret, bot.Passphrase)
	if err != nil {
		return fmt.Errorf("exchange connection failed: %w", err)
	}

	strat, err := strategy.New(bot.StrategyType, bot.Config, s.logger)
	if err != nil {
		return fmt.Errorf("strategy setup failed: %w", err)
	}

	bot.Status = domain.BotRunning
	s.registry.Put(bot.ID, newActiveBot(bot, client, strat))
	return nil
}

// StartBot transitions a stored bot to running and loads it.
func (s *Supervisor) StartBot(ctx context.Context, id string) ControlResult {
	if ab := s.registry.Get(id); ab != nil && ab.IsRunning() {
		return controlErr("Bot already running")
	}

	bot, err := s.bots.FindByID(ctx, id)
	if err != nil {
		return controlErr(fmt.Sprintf("failed to load bot: %v", err))
	}
	if bot == nil {
		return controlErr("Bot not found")
	}

	if err := s.initBot(ctx, bot); err != nil {
		s.markBotError(ctx, id, err.Error())
		return controlErr(err.Error())
	}

	if err := s.bots.UpdateStatus(ctx, id, domain.BotRunning, ""); err != nil {
		s.registry.Remove(id)
		return controlErr(fmt.Sprintf("failed to persist running status: %v", err))
	}

	s.auditEvent(ctx, bot.UserID, "bot_started", fmt.Sprintf("bot %s (%s on %s)", bot.Name, bot.TradingPair, bot.Exchange))
	s.logger.Info(ctx, "Bot started", map[string]interface{}{"botID": id})
	return controlOK()
}

// StopBot cancels the bot's tracked open orders, persists the stop, and
// removes it from the registry. Cancellation is best-effort: a failing
// cancel is logged and the stop proceeds so the bot never gets stuck.
func (s *Supervisor) StopBot(ctx context.Context, id string) ControlResult {
	ab := s.registry.Get(id)
	if ab == nil {
		return controlErr("Bot not running")
	}

	for _, order := range ab.openOrdersSnapshot() {
		ab.mu.Lock()
		err := ab.Client.CancelOrder(ctx, order.ID, order.Symbol)
		if err == nil {
			delete(ab.openOrders, order.ID)
		}
		ab.mu.Unlock()
		if err != nil {
			s.logger.Warn(ctx, "Order cancel failed during stop", map[string]interface{}{
				"botID":   id,
				"orderID": order.ID,
				"error":   err.Error(),
			})
		}
	}

	// Persist before evicting: if the store still said running after a
	// removal, a restart would resurrect a bot the operator stopped.
	if err := s.bots.UpdateStatus(ctx, id, domain.BotStopped, ""); err != nil {
		return controlErr(fmt.Sprintf("failed to persist stopped status: %v", err))
	}
	s.registry.Remove(id)
	ab.setStatus(domain.BotStopped)

	s.auditEvent(ctx, ab.Bot.UserID, "bot_stopped", fmt.Sprintf("bot %s", ab.Bot.Name))
	s.logger.Info(ctx, "Bot stopped", map[string]interface{}{"botID": id})
	return controlOK()
}

// PauseBot keeps the bot registered with its live exchange client but marks
// it paused: the monitor skips it and queued signals terminate unexecuted.
func (s *Supervisor) PauseBot(ctx context.Context, id string) ControlResult {
	ab := s.registry.Get(id)
	if ab == nil {
		return controlErr("Bot not running")
	}

	ab.setStatus(domain.BotPaused)
	if err := s.bots.UpdateStatus(ctx, id, domain.BotPaused, ""); err != nil {
		return controlErr(fmt.Sprintf("failed to persist paused status: %v", err))
	}

	s.auditEvent(ctx, ab.Bot.UserID, "bot_paused", fmt.Sprintf("bot %s", ab.Bot.Name))
	s.logger.Info(ctx, "Bot paused", map[string]interface{}{"botID": id})
	return controlOK()
}

// MonitorTick runs one strategy pass over every running bot. Bots are
// isolated from each other: an erroring bot is marked, evicted, and the
// iteration moves on.
func (s *Supervisor) MonitorTick(ctx context.Context) {
	for _, ab := range s.registry.Snapshot() {
		if ctx.Err() != nil {
			return
		}
		if !ab.IsRunning() {
			continue
		}
		if err := s.monitorBot(ctx, ab); err != nil {
			s.logger.Error(ctx, err, "Monitor pass failed, evicting bot", map[string]interface{}{"botID": ab.Bot.ID})
			s.registry.Remove(ab.Bot.ID)
			ab.setStatus(domain.BotError)
			s.markBotError(ctx, ab.Bot.ID, err.Error())
		}
	}
}

func (s *Supervisor) monitorBot(ctx context.Context, ab *ActiveBot) error {
	ticker, err := ab.Client.GetTicker(ctx, ab.Bot.TradingPair)
	if err != nil {
		return fmt.Errorf("ticker fetch failed: %w", err)
	}
	book, err := ab.Client.GetOrderbook(ctx, ab.Bot.TradingPair, 20)
	if err != nil {
		return fmt.Errorf("orderbook fetch failed: %w", err)
	}

	snap := &ports.MarketSnapshot{
		Ticker:    ticker,
		OrderBook: book,
		Bot:       ab.Bot,
		Now:       nowUTC(),
	}
	proposals, err := ab.Strategy.Analyze(ctx, snap)
	if err != nil {
		return fmt.Errorf("strategy analysis failed: %w", err)
	}

	// Generated signals are persisted and executed before the loop advances,
	// through the same path webhook signals take.
	for _, proposed := range proposals {
		s.processor.ProcessInline(ctx, ab, proposed)
	}
	return nil
}

func (s *Supervisor) markBotError(ctx context.Context, id, message string) {
	if err := s.bots.UpdateStatus(ctx, id, domain.BotError, message); err != nil {
		s.logger.Error(ctx, err, "Failed to persist bot error state", map[string]interface{}{"botID": id})
	}
}

func (s *Supervisor) auditEvent(ctx context.Context, userID, action, detail string) {
	if err := s.audit.CreateEntry(ctx, userID, action, detail); err != nil {
		s.logger.Warn(ctx, "Audit entry failed", map[string]interface{}{"action": action, "error": err.Error()})
	}
}
