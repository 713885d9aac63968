package app

import (
	"context"
	"errors"
	"testing"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type supervisorFixture struct {
	supervisor *Supervisor
	registry   *Registry
	connector  *mockConnector
	bots       *mockBotRepo
	signals    *mockSignalRepo
	trades     *mockTradeRepo
	users      *mockUserRepo
	audit      *mockAuditRepo
}

func newSupervisorFixture(t *testing.T, bots ...*domain.Bot) *supervisorFixture {
	t.Helper()

	registry := NewRegistry()
	botRepo := newMockBotRepo(bots...)
	signalRepo := newMockSignalRepo()
	tradeRepo := &mockTradeRepo{}
	userRepo := newMockUserRepo()
	auditRepo := &mockAuditRepo{}
	connector := newMockConnector()

	processor, err := NewProcessor(&mockLogger{}, registry, signalRepo, tradeRepo, botRepo)
	require.NoError(t, err)

	supervisor, err := NewSupervisor(SupervisorConfig{
		Logger:    &mockLogger{},
		Registry:  registry,
		Processor: processor,
		Connector: connector,
		Bots:      botRepo,
		Trades:    tradeRepo,
		Users:     userRepo,
		Audit:     auditRepo,
		Signals:   signalRepo,
	})
	require.NoError(t, err)

	return &supervisorFixture{
		supervisor: supervisor,
		registry:   registry,
		connector:  connector,
		bots:       botRepo,
		signals:    signalRepo,
		trades:     tradeRepo,
		users:      userRepo,
		audit:      auditRepo,
	}
}

func testBot(id string, status domain.BotStatus) *domain.Bot {
	return &domain.Bot{
		ID:           id,
		UserID:       "user-" + id,
		Name:         "bot " + id,
		Exchange:     "binance",
		APIKey:       "key-" + id,
		APISecret:    "secret-" + id,
		StrategyType: domain.StrategySignal,
		TradingPair:  "BTCUSDT",
		Config:       domain.BotConfig{BaseCurrency: "USDT", Quantity: 0.5},
		Status:       status,
	}
}

func TestSupervisor_LoadActiveBots(t *testing.T) {
	t.Run("loads all running bots", func(t *testing.T) {
		f := newSupervisorFixture(t,
			testBot("a", domain.BotRunning),
			testBot("b", domain.BotRunning),
			testBot("c", domain.BotStopped),
		)

		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))
		assert.Equal(t, 2, f.registry.Len())
		assert.NotNil(t, f.registry.Get("a"))
		assert.NotNil(t, f.registry.Get("b"))
		assert.Nil(t, f.registry.Get("c"))
	})

	t.Run("one broken bot does not block the rest", func(t *testing.T) {
		f := newSupervisorFixture(t,
			testBot("a", domain.BotRunning),
			testBot("b", domain.BotRunning),
		)
		f.connector.errs["key-a"] = errors.New("invalid credentials")

		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))

		assert.Nil(t, f.registry.Get("a"))
		assert.NotNil(t, f.registry.Get("b"))
		assert.Equal(t, domain.BotError, f.bots.status("a"))
		assert.Contains(t, f.bots.errorsByID["a"], "invalid credentials")
	})

	t.Run("bad strategy config errors the bot", func(t *testing.T) {
		bad := testBot("a", domain.BotRunning)
		bad.StrategyType = domain.StrategyGrid // Missing grid parameters.
		f := newSupervisorFixture(t, bad)

		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))
		assert.Nil(t, f.registry.Get("a"))
		assert.Equal(t, domain.BotError, f.bots.status("a"))
	})
}

func TestSupervisor_StartBot(t *testing.T) {
	t.Run("starts a stored bot", func(t *testing.T) {
		f := newSupervisorFixture(t, testBot("a", domain.BotStopped))

		res := f.supervisor.StartBot(context.Background(), "a")
		assert.True(t, res.Success)
		assert.NotNil(t, f.registry.Get("a"))
		assert.Equal(t, domain.BotRunning, f.bots.status("a"))
		assert.Contains(t, f.audit.actions, "bot_started")
	})

	t.Run("unknown bot", func(t *testing.T) {
		f := newSupervisorFixture(t)
		res := f.supervisor.StartBot(context.Background(), "ghost")
		assert.False(t, res.Success)
		assert.Equal(t, "Bot not found", res.Error)
	})

	t.Run("already running", func(t *testing.T) {
		f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))

		res := f.supervisor.StartBot(context.Background(), "a")
		assert.False(t, res.Success)
		assert.Equal(t, "Bot already running", res.Error)
	})

	t.Run("connection failure marks the bot errored", func(t *testing.T) {
		f := newSupervisorFixture(t, testBot("a", domain.BotStopped))
		f.connector.errs["key-a"] = errors.New("bad key")

		res := f.supervisor.StartBot(context.Background(), "a")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "bad key")
		assert.Equal(t, domain.BotError, f.bots.status("a"))
	})
}

func TestSupervisor_StopBot(t *testing.T) {
	t.Run("cancels open orders and persists the stop", func(t *testing.T) {
		f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))

		ab := f.registry.Get("a")
		client := ab.Client.(*mockExchangeClient)
		ab.openOrders["1"] = &ports.Order{ID: "1", Symbol: "BTCUSDT", Status: domain.OrderNew}
		ab.openOrders["2"] = &ports.Order{ID: "2", Symbol: "BTCUSDT", Status: domain.OrderNew}

		res := f.supervisor.StopBot(context.Background(), "a")
		assert.True(t, res.Success)
		assert.Nil(t, f.registry.Get("a"))
		assert.Equal(t, domain.BotStopped, f.bots.status("a"))
		assert.ElementsMatch(t, []string{"1", "2"}, client.canceled)
		assert.Contains(t, f.audit.actions, "bot_stopped")
	})

	t.Run("a failing cancel does not abort the stop", func(t *testing.T) {
		f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))

		ab := f.registry.Get("a")
		client := ab.Client.(*mockExchangeClient)
		client.cancelErrs["1"] = errors.New("order already gone")
		ab.openOrders["1"] = &ports.Order{ID: "1", Symbol: "BTCUSDT", Status: domain.OrderNew}
		ab.openOrders["2"] = &ports.Order{ID: "2", Symbol: "BTCUSDT", Status: domain.OrderNew}

		res := f.supervisor.StopBot(context.Background(), "a")
		assert.True(t, res.Success)
		assert.Nil(t, f.registry.Get("a"))
		// The second order was still attempted and canceled.
		assert.Contains(t, client.canceled, "2")
		assert.Equal(t, domain.BotStopped, f.bots.status("a"))
	})

	t.Run("not running", func(t *testing.T) {
		f := newSupervisorFixture(t)
		res := f.supervisor.StopBot(context.Background(), "ghost")
		assert.False(t, res.Success)
		assert.Equal(t, "Bot not running", res.Error)
	})

	t.Run("persist failure keeps the bot registered", func(t *testing.T) {
		f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
		require.NoError(t, f.supervisor.LoadActiveBots(context.Background()))
		f.bots.statusErrs["a"] = errors.New("disk full")

		res := f.supervisor.StopBot(context.Background(), "a")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "disk full")

		// The bot stays live until memory and store can converge; a restart
		// must not see a stopped bot recorded as running, nor the reverse.
		ab := f.registry.Get("a")
		require.NotNil(t, ab)
		assert.True(t, ab.IsRunning())
		assert.Equal(t, domain.BotRunning, f.bots.status("a"))
	})
}

func TestSupervisor_PauseBot(t *testing.T) {
	f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
	ctx := context.Background()
	require.NoError(t, f.supervisor.LoadActiveBots(ctx))

	res := f.supervisor.PauseBot(ctx, "a")
	assert.True(t, res.Success)
	assert.Equal(t, domain.BotPaused, f.bots.status("a"))

	// Paused bots stay registered but refuse signals.
	ab := f.registry.Get("a")
	require.NotNil(t, ab)
	assert.False(t, ab.IsRunning())
}

func TestSupervisor_MonitorTickIsolation(t *testing.T) {
	f := newSupervisorFixture(t,
		testBot("a", domain.BotRunning),
		testBot("b", domain.BotRunning),
	)
	ctx := context.Background()
	require.NoError(t, f.supervisor.LoadActiveBots(ctx))

	// Bot a's market data breaks; bot b must survive the tick untouched.
	f.registry.Get("a").Client.(*mockExchangeClient).tickerErr = errors.New("exchange down")

	f.supervisor.MonitorTick(ctx)

	assert.Nil(t, f.registry.Get("a"))
	assert.Equal(t, domain.BotError, f.bots.status("a"))
	assert.NotNil(t, f.registry.Get("b"))
	assert.Equal(t, domain.BotRunning, f.bots.status("b"))
}

func TestSupervisor_UpdateMetrics(t *testing.T) {
	f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
	ctx := context.Background()
	require.NoError(t, f.supervisor.LoadActiveBots(ctx))

	_, err := f.trades.CreateTrade(ctx, &domain.Trade{BotID: "a", Status: domain.OrderFilled, ProfitLoss: 5})
	require.NoError(t, err)
	_, err = f.trades.CreateTrade(ctx, &domain.Trade{BotID: "a", Status: domain.OrderFilled, ProfitLoss: -2})
	require.NoError(t, err)

	f.supervisor.UpdateMetrics(ctx)

	bot, err := f.bots.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, bot.TotalTrades)
	assert.Equal(t, 3.0, bot.TotalProfit)
	assert.Equal(t, 50.0, bot.WinRate)
	assert.Equal(t, 1000.0, bot.CurrentBalance)
}

func TestSupervisor_SyncBalances(t *testing.T) {
	f := newSupervisorFixture(t, testBot("a", domain.BotRunning))
	ctx := context.Background()
	require.NoError(t, f.supervisor.LoadActiveBots(ctx))

	client := f.registry.Get("a").Client.(*mockExchangeClient)
	client.balances = map[string]float64{"USDT": 500, "BTC": 0.5}

	f.supervisor.SyncBalances(ctx)

	// Amounts are summed across assets without conversion.
	assert.Equal(t, 500.5, f.users.totals["user-a"])
}

func TestComputePerformance(t *testing.T) {
	t.Run("no trades", func(t *testing.T) {
		total, profit, winRate := computePerformance(nil)
		assert.Zero(t, total)
		assert.Zero(t, profit)
		assert.Zero(t, winRate)
	})

	t.Run("only unfilled trades", func(t *testing.T) {
		total, profit, winRate := computePerformance([]*domain.Trade{
			{Status: domain.OrderCanceled, ProfitLoss: 10},
			{Status: domain.OrderRejected, ProfitLoss: 20},
		})
		assert.Zero(t, total)
		assert.Zero(t, profit)
		assert.Zero(t, winRate)
	})

	t.Run("mixed trades", func(t *testing.T) {
		total, profit, winRate := computePerformance([]*domain.Trade{
			{Status: domain.OrderFilled, ProfitLoss: 10},
			{Status: domain.OrderFilled, ProfitLoss: -4},
			{Status: domain.OrderFilled, ProfitLoss: 6},
			{Status: domain.OrderCanceled, ProfitLoss: 99},
		})
		assert.Equal(t, 3, total)
		assert.Equal(t, 12.0, profit)
		assert.InDelta(t, 66.67, winRate, 0.01)
	})
}
