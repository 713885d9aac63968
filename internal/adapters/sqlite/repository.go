package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the bot, signal, trade, user and audit repository
// ports using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradehive.db" // Default path
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
	}

	// WAL mode for better concurrency between the processor and the jobs.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trading_bots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		exchange TEXT NOT NULL,
		api_key TEXT NOT NULL,
		api_secret TEXT NOT NULL,
		passphrase TEXT NOT NULL DEFAULT '',
		webhook_secret TEXT NOT NULL DEFAULT '',
		strategy_type TEXT NOT NULL,
		trading_pair TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'stopped',
		error_message TEXT NOT NULL DEFAULT '',
		total_trades INTEGER NOT NULL DEFAULT 0,
		total_profit REAL NOT NULL DEFAULT 0,
		win_rate REAL NOT NULL DEFAULT 0,
		current_balance REAL NOT NULL DEFAULT 0,
		started_at TIMESTAMP DEFAULT NULL,
		stopped_at TIMESTAMP DEFAULT NULL,
		last_trade_at TIMESTAMP DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bot_signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bot_id TEXT NOT NULL,
		signal_type TEXT NOT NULL,
		symbol TEXT NOT NULL,
		price REAL DEFAULT NULL,
		quantity REAL DEFAULT NULL,
		take_profit REAL DEFAULT NULL,
		stop_loss REAL DEFAULT NULL,
		leverage INTEGER DEFAULT NULL,
		payload TEXT NOT NULL DEFAULT '',
		processed INTEGER NOT NULL DEFAULT 0,
		processed_at TIMESTAMP DEFAULT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		source_ip TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		bot_id TEXT NOT NULL,
		exchange TEXT NOT NULL,
		exchange_order_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		executed_price REAL NOT NULL DEFAULT 0,
		executed_quantity REAL NOT NULL DEFAULT 0,
		fee REAL NOT NULL DEFAULT 0,
		fee_currency TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		is_futures INTEGER NOT NULL DEFAULT 0,
		leverage INTEGER NOT NULL DEFAULT 1,
		profit_loss REAL NOT NULL DEFAULT 0,
		executed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		total_balance REAL NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trading_bots_status ON trading_bots (status);
	CREATE INDEX IF NOT EXISTS idx_bot_signals_processed_created ON bot_signals (processed, created_at);
	CREATE INDEX IF NOT EXISTS idx_trades_bot_executed ON trades (bot_id, executed_at);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs (created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- BotRepository Implementation ---

const botColumns = `
	id, user_id, name, exchange, api_key, api_secret, passphrase, webhook_secret,
	strategy_type, trading_pair, config, status, error_message,
	total_trades, total_profit, win_rate, current_balance,
	started_at, stopped_at, last_trade_at, created_at, updated_at`

// CreateBot saves a new bot. Bot creation itself belongs to the (external)
// management flow; this exists for tests and tooling.
func (r *Repository) CreateBot(ctx context.Context, bot *domain.Bot) error {
	cfgJSON, err := json.Marshal(bot.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config for bot %s: %w", bot.ID, err)
	}
	const query = `
	INSERT INTO trading_bots (id, user_id, name, exchange, api_key, api_secret, passphrase, webhook_secret,
	                          strategy_type, trading_pair, config, status, error_message,
	                          total_trades, total_profit, win_rate, current_balance, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if bot.CreatedAt.IsZero() {
		bot.CreatedAt = now
	}
	_, err = r.db.ExecContext(ctx, query,
		bot.ID, bot.UserID, bot.Name, bot.Exchange, bot.APIKey, bot.APISecret, bot.Passphrase, bot.WebhookSecret,
		bot.StrategyType, bot.TradingPair, string(cfgJSON), bot.Status, bot.ErrorMessage,
		bot.TotalTrades, bot.TotalProfit, bot.WinRate, bot.CurrentBalance, bot.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to insert bot %s: %w", bot.ID, err)
	}
	r.logger.Debug(ctx, "Bot created", map[string]interface{}{"botID": bot.ID, "strategy": bot.StrategyType})
	return nil
}

// FindByID retrieves a bot by its unique ID. Returns nil, nil if not found.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM trading_bots WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	bot, err := scanBot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query bot by ID %s: %w", id, err)
	}
	return bot, nil
}

// FindByStatus retrieves all bots with the given status.
func (r *Repository) FindByStatus(ctx context.Context, status domain.BotStatus) ([]*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM trading_bots WHERE status = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query bots by status %s: %w", status, err)
	}
	defer rows.Close()

	bots := make([]*domain.Bot, 0)
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot during FindByStatus: %w", err)
		}
		bots = append(bots, bot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bot rows: %w", err)
	}
	return bots, nil
}

// UpdateStatus persists a status transition and its error message. The
// started_at/stopped_at timestamps follow the transition.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.BotStatus, errorMessage string) error {
	now := time.Now().UTC()
	var query string
	args := []interface{}{status, errorMessage, now}
	switch status {
	case domain.BotRunning:
		query = `UPDATE trading_bots SET status = ?, error_message = ?, started_at = ?, updated_at = ? WHERE id = ?`
		args = append(args, now)
	case domain.BotStopped:
		query = `UPDATE trading_bots SET status = ?, error_message = ?, stopped_at = ?, updated_at = ? WHERE id = ?`
		args = append(args, now)
	default:
		query = `UPDATE trading_bots SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`
	}
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update status for bot %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for bot %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("bot %s not found for status update: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Bot status updated", map[string]interface{}{"botID": id, "status": status})
	return nil
}

// UpdatePerformance persists recomputed performance counters.
func (r *Repository) UpdatePerformance(ctx context.Context, id string, totalTrades int, totalProfit, winRate float64) error {
	const query = `
	UPDATE trading_bots
	SET total_trades = ?, total_profit = ?, win_rate = ?, last_trade_at = ?, updated_at = ?
	WHERE id = ?`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, totalTrades, totalProfit, winRate, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to update performance for bot %s: %w", id, err)
	}
	return nil
}

// UpdateCurrentBalance persists the bot's last observed balance.
func (r *Repository) UpdateCurrentBalance(ctx context.Context, id string, balance float64) error {
	const query = `UPDATE trading_bots SET current_balance = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, balance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance for bot %s: %w", id, err)
	}
	return nil
}

// UpdateConfig persists the bot's strategy configuration.
func (r *Repository) UpdateConfig(ctx context.Context, id string, cfg domain.BotConfig) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config for bot %s: %w", id, err)
	}
	const query = `UPDATE trading_bots SET config = ?, updated_at = ? WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query, string(cfgJSON), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update config for bot %s: %w", id, err)
	}
	return nil
}

// --- SignalRepository Implementation ---

// Create persists a new pending signal and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, sig *domain.Signal) (int64, error) {
	const query = `
	INSERT INTO bot_signals (bot_id, signal_type, symbol, price, quantity, take_profit, stop_loss,
	                         leverage, payload, processed, source_ip, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx, query,
		sig.BotID, sig.Type, sig.Symbol,
		nullFloat(sig.Price), nullFloat(sig.Quantity), nullFloat(sig.TakeProfit), nullFloat(sig.StopLoss),
		nullInt(sig.Leverage), sig.Payload, sig.SourceIP, sig.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal for bot %s: %w", sig.BotID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for signal (bot %s): %w", sig.BotID, err)
	}
	sig.ID = id
	r.logger.Debug(ctx, "Signal created", map[string]interface{}{"signalID": id, "botID": sig.BotID, "type": sig.Type})
	return id, nil
}

const signalColumns = `
	id, bot_id, signal_type, symbol, price, quantity, take_profit, stop_loss,
	leverage, payload, processed, processed_at, error_message, source_ip, created_at`

// FindPending retrieves all unprocessed signals, oldest first.
func (r *Repository) FindPending(ctx context.Context) ([]*domain.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM bot_signals WHERE processed = 0 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending signals: %w", err)
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal during FindPending: %w", err)
		}
		signals = append(signals, sig)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}
	return signals, nil
}

// FindSignalByID retrieves a signal by ID. Returns nil, nil if not found.
func (r *Repository) FindSignalByID(ctx context.Context, id int64) (*domain.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM bot_signals WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	sig, err := scanSignal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query signal by ID %d: %w", id, err)
	}
	return sig, nil
}

// Claim transitions a signal from pending to processed at most once. The
// processed = 0 guard makes the UPDATE the arbiter when two processing
// paths hold the same pending row; only one caller sees a claimed row.
func (r *Repository) Claim(ctx context.Context, id int64) (bool, error) {
	const query = `
	UPDATE bot_signals SET processed = 1, processed_at = ?
	WHERE id = ? AND processed = 0`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to claim signal %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for signal %d: %w", id, err)
	}
	if rowsAffected == 0 {
		r.logger.Debug(ctx, "Signal already processed or missing", map[string]interface{}{"signalID": id})
		return false, nil
	}
	return true, nil
}

// RecordOutcome stores the execution outcome on a claimed signal.
func (r *Repository) RecordOutcome(ctx context.Context, id int64, errorMessage string) error {
	const query = `UPDATE bot_signals SET error_message = ? WHERE id = ? AND processed = 1`
	_, err := r.db.ExecContext(ctx, query, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to record outcome for signal %d: %w", id, err)
	}
	return nil
}

// DeleteProcessedBefore removes processed signals created before the cutoff.
func (r *Repository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM bot_signals WHERE processed = 1 AND created_at < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old signals: %w", err)
	}
	return result.RowsAffected()
}

// --- TradeRepository Implementation ---

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (user_id, bot_id, exchange, exchange_order_id, symbol, side, type,
	                    quantity, price, executed_price, executed_quantity, fee, fee_currency,
	                    status, is_futures, leverage, profit_loss, executed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		trade.UserID, trade.BotID, trade.Exchange, trade.ExchangeOrderID, trade.Symbol, trade.Side, trade.Type,
		trade.Quantity, trade.Price, trade.ExecutedPrice, trade.ExecutedQuantity, trade.Fee, trade.FeeCurrency,
		trade.Status, trade.IsFutures, trade.Leverage, trade.ProfitLoss, trade.ExecutedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for bot %s: %w", trade.BotID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade (bot %s): %w", trade.BotID, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Trade recorded", map[string]interface{}{"tradeID": id, "botID": trade.BotID, "symbol": trade.Symbol})
	return id, nil
}

// FindByBot retrieves all trades for a bot, ordered by execution time ascending.
func (r *Repository) FindByBot(ctx context.Context, botID string) ([]*domain.Trade, error) {
	const query = `
	SELECT id, user_id, bot_id, exchange, exchange_order_id, symbol, side, type,
	       quantity, price, executed_price, executed_quantity, fee, fee_currency,
	       status, is_futures, leverage, profit_loss, executed_at
	FROM trades WHERE bot_id = ? ORDER BY executed_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for bot %s: %w", botID, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindByBot: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// --- UserRepository Implementation ---

// UpdateTotalBalance persists the aggregated balance for a user, creating the
// row on first sync.
func (r *Repository) UpdateTotalBalance(ctx context.Context, userID string, total float64) error {
	const query = `
	INSERT INTO users (id, total_balance, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET total_balance = excluded.total_balance, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, userID, total, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update total balance for user %s: %w", userID, err)
	}
	return nil
}

// --- AuditRepository Implementation ---

// CreateEntry records an audit event.
func (r *Repository) CreateEntry(ctx context.Context, userID, action, detail string) error {
	const query = `INSERT INTO audit_logs (user_id, action, detail, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, userID, action, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry for user %s: %w", userID, err)
	}
	return nil
}

// DeleteBefore removes audit entries created before the cutoff.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM audit_logs WHERE created_at < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}
	return result.RowsAffected()
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBot scans a row into a domain.Bot struct.
func scanBot(s scanner) (*domain.Bot, error) {
	b := &domain.Bot{}
	var cfgJSON string
	var strategyType, status string
	var startedAt, stoppedAt, lastTradeAt sql.NullTime
	err := s.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Exchange, &b.APIKey, &b.APISecret, &b.Passphrase, &b.WebhookSecret,
		&strategyType, &b.TradingPair, &cfgJSON, &status, &b.ErrorMessage,
		&b.TotalTrades, &b.TotalProfit, &b.WinRate, &b.CurrentBalance,
		&startedAt, &stoppedAt, &lastTradeAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	b.StrategyType = domain.StrategyType(strategyType)
	b.Status = domain.BotStatus(status)
	if startedAt.Valid {
		b.StartedAt = startedAt.Time
	}
	if stoppedAt.Valid {
		b.StoppedAt = stoppedAt.Time
	}
	if lastTradeAt.Valid {
		b.LastTradeAt = lastTradeAt.Time
	}
	if err := json.Unmarshal([]byte(cfgJSON), &b.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config for bot %s: %w", b.ID, err)
	}
	return b, nil
}

// scanSignal scans a row into a domain.Signal struct.
func scanSignal(s scanner) (*domain.Signal, error) {
	sig := &domain.Signal{}
	var sigType string
	var price, quantity, takeProfit, stopLoss sql.NullFloat64
	var leverage sql.NullInt64
	var processedAt sql.NullTime
	err := s.Scan(
		&sig.ID, &sig.BotID, &sigType, &sig.Symbol, &price, &quantity, &takeProfit, &stopLoss,
		&leverage, &sig.Payload, &sig.Processed, &processedAt, &sig.ErrorMessage, &sig.SourceIP, &sig.CreatedAt)
	if err != nil {
		return nil, err
	}
	sig.Type = domain.SignalType(sigType)
	sig.Price = floatPtr(price)
	sig.Quantity = floatPtr(quantity)
	sig.TakeProfit = floatPtr(takeProfit)
	sig.StopLoss = floatPtr(stopLoss)
	if leverage.Valid {
		lv := int(leverage.Int64)
		sig.Leverage = &lv
	}
	if processedAt.Valid {
		sig.ProcessedAt = processedAt.Time
	}
	return sig, nil
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var side, orderType, status string
	err := s.Scan(
		&t.ID, &t.UserID, &t.BotID, &t.Exchange, &t.ExchangeOrderID, &t.Symbol, &side, &orderType,
		&t.Quantity, &t.Price, &t.ExecutedPrice, &t.ExecutedQuantity, &t.Fee, &t.FeeCurrency,
		&status, &t.IsFutures, &t.Leverage, &t.ProfitLoss, &t.ExecutedAt)
	if err != nil {
		return nil, err
	}
	t.Side = domain.OrderSide(side)
	t.Type = domain.OrderType(orderType)
	t.Status = domain.OrderStatus(status)
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
