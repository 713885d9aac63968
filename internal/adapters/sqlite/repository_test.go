package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradeHive/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}
func (m *mockLogger) Fatal(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "tradehive-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func testBot(id string) *domain.Bot {
	return &domain.Bot{
		ID:            id,
		UserID:        "user-1",
		Name:          "Test Bot",
		Exchange:      "binance",
		APIKey:        "key",
		APISecret:     "secret",
		WebhookSecret: "whsec",
		StrategyType:  domain.StrategySignal,
		TradingPair:   "BTCUSDT",
		Config: domain.BotConfig{
			BaseCurrency: "USDT",
			Quantity:     0.5,
			TakeProfit:   44000,
			Leverage:     1,
		},
		Status: domain.BotStopped,
	}
}

func floatp(v float64) *float64 { return &v }

func TestRepository_CreateAndFindBot(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	bot := testBot("bot-1")
	require.NoError(t, repo.CreateBot(ctx, bot))

	found, err := repo.FindByID(ctx, "bot-1")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, bot.UserID, found.UserID)
	assert.Equal(t, bot.Name, found.Name)
	assert.Equal(t, bot.Exchange, found.Exchange)
	assert.Equal(t, bot.WebhookSecret, found.WebhookSecret)
	assert.Equal(t, bot.StrategyType, found.StrategyType)
	assert.Equal(t, bot.TradingPair, found.TradingPair)
	assert.Equal(t, bot.Status, found.Status)
	assert.Equal(t, bot.Config.Quantity, found.Config.Quantity)
	assert.Equal(t, bot.Config.TakeProfit, found.Config.TakeProfit)
	assert.True(t, found.StartedAt.IsZero())
	assert.True(t, found.LastTradeAt.IsZero())
}

func TestRepository_FindBotNotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	found, err := repo.FindByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_FindByStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a := testBot("bot-a")
	a.Status = domain.BotRunning
	b := testBot("bot-b")
	b.Status = domain.BotStopped
	c := testBot("bot-c")
	c.Status = domain.BotRunning
	for _, bot := range []*domain.Bot{a, b, c} {
		require.NoError(t, repo.CreateBot(ctx, bot))
	}

	running, err := repo.FindByStatus(ctx, domain.BotRunning)
	require.NoError(t, err)
	require.Len(t, running, 2)
	assert.Equal(t, "bot-a", running[0].ID)
	assert.Equal(t, "bot-c", running[1].ID)

	paused, err := repo.FindByStatus(ctx, domain.BotPaused)
	require.NoError(t, err)
	assert.Empty(t, paused)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBot(ctx, testBot("bot-1")))

	// Running sets started_at.
	require.NoError(t, repo.UpdateStatus(ctx, "bot-1", domain.BotRunning, ""))
	found, err := repo.FindByID(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BotRunning, found.Status)
	assert.False(t, found.StartedAt.IsZero())
	assert.True(t, found.StoppedAt.IsZero())

	// Stopped sets stopped_at.
	require.NoError(t, repo.UpdateStatus(ctx, "bot-1", domain.BotStopped, ""))
	found, err = repo.FindByID(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BotStopped, found.Status)
	assert.False(t, found.StoppedAt.IsZero())

	// Error carries the message.
	require.NoError(t, repo.UpdateStatus(ctx, "bot-1", domain.BotError, "connect failed"))
	found, err = repo.FindByID(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BotError, found.Status)
	assert.Equal(t, "connect failed", found.ErrorMessage)

	// Unknown bot is an error.
	err = repo.UpdateStatus(ctx, "ghost", domain.BotRunning, "")
	assert.Error(t, err)
}

func TestRepository_UpdatePerformanceAndBalance(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBot(ctx, testBot("bot-1")))

	require.NoError(t, repo.UpdatePerformance(ctx, "bot-1", 12, 34.5, 58.3))
	require.NoError(t, repo.UpdateCurrentBalance(ctx, "bot-1", 1234.56))

	found, err := repo.FindByID(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, 12, found.TotalTrades)
	assert.Equal(t, 34.5, found.TotalProfit)
	assert.Equal(t, 58.3, found.WinRate)
	assert.Equal(t, 1234.56, found.CurrentBalance)
	assert.False(t, found.LastTradeAt.IsZero())
}

func TestRepository_UpdateConfig(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBot(ctx, testBot("bot-1")))

	cfg := domain.BotConfig{
		BaseCurrency: "USDT",
		Quantity:     1.5,
		TakeProfit:   45000,
		StopLoss:     41000,
	}
	require.NoError(t, repo.UpdateConfig(ctx, "bot-1", cfg))

	found, err := repo.FindByID(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, found.Config.Quantity)
	assert.Equal(t, 45000.0, found.Config.TakeProfit)
	assert.Equal(t, 41000.0, found.Config.StopLoss)
}

func TestRepository_CreateAndFindSignal(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	lev := 3
	sig := &domain.Signal{
		BotID:    "bot-1",
		Type:     domain.SignalBuy,
		Symbol:   "BTCUSDT",
		Price:    floatp(43250.5),
		Quantity: floatp(0.1),
		Leverage: &lev,
		Payload:  `{"action":"buy"}`,
		SourceIP: "10.0.0.1",
	}
	id, err := repo.Create(ctx, sig)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, sig.ID)

	found, err := repo.FindSignalByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.SignalBuy, found.Type)
	require.NotNil(t, found.Price)
	assert.Equal(t, 43250.5, *found.Price)
	require.NotNil(t, found.Quantity)
	assert.Equal(t, 0.1, *found.Quantity)
	require.NotNil(t, found.Leverage)
	assert.Equal(t, 3, *found.Leverage)
	assert.Nil(t, found.TakeProfit)
	assert.Nil(t, found.StopLoss)
	assert.False(t, found.Processed)
	assert.Equal(t, "10.0.0.1", found.SourceIP)

	missing, err := repo.FindSignalByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_FindPendingOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	// Insert newest first to prove ordering comes from created_at, not
	// insertion order.
	newer := &domain.Signal{BotID: "bot-1", Type: domain.SignalSell, Symbol: "BTCUSDT", CreatedAt: base}
	older := &domain.Signal{BotID: "bot-1", Type: domain.SignalBuy, Symbol: "BTCUSDT", CreatedAt: base.Add(-time.Minute)}
	_, err := repo.Create(ctx, newer)
	require.NoError(t, err)
	_, err = repo.Create(ctx, older)
	require.NoError(t, err)

	pending, err := repo.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.SignalBuy, pending[0].Type)
	assert.Equal(t, domain.SignalSell, pending[1].Type)

	// Processed signals drop out of the pending set.
	claimed, err := repo.Claim(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.True(t, claimed)
	pending, err = repo.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.SignalSell, pending[0].Type)
}

func TestRepository_ClaimOnce(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sig := &domain.Signal{BotID: "bot-1", Type: domain.SignalBuy, Symbol: "BTCUSDT"}
	id, err := repo.Create(ctx, sig)
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, id)
	require.NoError(t, err)
	assert.True(t, claimed)

	found, err := repo.FindSignalByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, found.Processed)
	assert.False(t, found.ProcessedAt.IsZero())
	assert.Empty(t, found.ErrorMessage)

	// Only one caller can win the claim; a second attempt on the same row
	// loses even when it holds a stale pending copy.
	claimed, err = repo.Claim(ctx, id)
	require.NoError(t, err)
	assert.False(t, claimed)

	// Missing signals are never claimed.
	claimed, err = repo.Claim(ctx, 999)
	require.NoError(t, err)
	assert.False(t, claimed)

	// The outcome lands on the claimed row.
	require.NoError(t, repo.RecordOutcome(ctx, id, "insufficient funds"))
	found, err = repo.FindSignalByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "insufficient funds", found.ErrorMessage)
}

func TestRepository_DeleteProcessedBefore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	old := &domain.Signal{BotID: "bot-1", Type: domain.SignalBuy, Symbol: "BTCUSDT", CreatedAt: now.Add(-48 * time.Hour)}
	oldPending := &domain.Signal{BotID: "bot-1", Type: domain.SignalBuy, Symbol: "BTCUSDT", CreatedAt: now.Add(-48 * time.Hour)}
	fresh := &domain.Signal{BotID: "bot-1", Type: domain.SignalSell, Symbol: "BTCUSDT", CreatedAt: now}

	oldID, err := repo.Create(ctx, old)
	require.NoError(t, err)
	_, err = repo.Create(ctx, oldPending)
	require.NoError(t, err)
	freshID, err := repo.Create(ctx, fresh)
	require.NoError(t, err)

	for _, id := range []int64{oldID, freshID} {
		claimed, err := repo.Claim(ctx, id)
		require.NoError(t, err)
		require.True(t, claimed)
	}

	deleted, err := repo.DeleteProcessedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	// Only the old processed signal goes; the old pending one is retained.
	assert.Equal(t, int64(1), deleted)

	gone, err := repo.FindSignalByID(ctx, oldID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	pending, err := repo.FindPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRepository_CreateAndFindTrades(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	first := &domain.Trade{
		UserID:           "user-1",
		BotID:            "bot-1",
		Exchange:         "binance",
		ExchangeOrderID:  "ord-1",
		Symbol:           "BTCUSDT",
		Side:             domain.Buy,
		Type:             domain.Limit,
		Quantity:         0.1,
		Price:            43000,
		ExecutedPrice:    43000,
		ExecutedQuantity: 0.1,
		Status:           domain.OrderFilled,
		Leverage:         1,
		ExecutedAt:       now.Add(-time.Hour),
	}
	second := &domain.Trade{
		UserID:           "user-1",
		BotID:            "bot-1",
		Exchange:         "binance",
		ExchangeOrderID:  "ord-2",
		Symbol:           "BTCUSDT",
		Side:             domain.Sell,
		Type:             domain.Market,
		Quantity:         0.1,
		ExecutedPrice:    44000,
		ExecutedQuantity: 0.1,
		Status:           domain.OrderFilled,
		IsFutures:        true,
		Leverage:         3,
		ProfitLoss:       100,
		ExecutedAt:       now,
	}
	otherBot := &domain.Trade{
		UserID:     "user-1",
		BotID:      "bot-2",
		Exchange:   "okx",
		Symbol:     "ETHUSDT",
		Side:       domain.Buy,
		Type:       domain.Market,
		Quantity:   1,
		Status:     domain.OrderFilled,
		Leverage:   1,
		ExecutedAt: now,
	}

	// Insert out of execution order.
	for _, tr := range []*domain.Trade{second, first, otherBot} {
		id, err := repo.CreateTrade(ctx, tr)
		require.NoError(t, err)
		assert.Greater(t, id, int64(0))
	}

	trades, err := repo.FindByBot(ctx, "bot-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "ord-1", trades[0].ExchangeOrderID)
	assert.Equal(t, "ord-2", trades[1].ExchangeOrderID)
	assert.Equal(t, domain.Sell, trades[1].Side)
	assert.True(t, trades[1].IsFutures)
	assert.Equal(t, 3, trades[1].Leverage)
	assert.Equal(t, 100.0, trades[1].ProfitLoss)
}

func TestRepository_UpdateTotalBalance(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// First sync inserts, second updates.
	require.NoError(t, repo.UpdateTotalBalance(ctx, "user-1", 1000))
	require.NoError(t, repo.UpdateTotalBalance(ctx, "user-1", 1500.5))

	var total float64
	err := repo.db.QueryRowContext(ctx, `SELECT total_balance FROM users WHERE id = ?`, "user-1").Scan(&total)
	require.NoError(t, err)
	assert.Equal(t, 1500.5, total)

	var count int
	err = repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_AuditEntries(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateEntry(ctx, "user-1", "bot_started", "bot-1"))
	require.NoError(t, repo.CreateEntry(ctx, "user-1", "bot_stopped", "bot-1"))

	var count int
	err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Nothing is old enough to prune yet.
	deleted, err := repo.DeleteBefore(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	// Everything goes with a future cutoff.
	deleted, err = repo.DeleteBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
