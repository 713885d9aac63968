package ports

import (
	"context"
	"time"

	"tradeHive/internal/domain"
)

// BotRepository defines the interface for storing and retrieving trading bots.
// The durable store is the source of truth for a bot when it is not loaded
// into the supervisor.
type BotRepository interface {
	// FindByID retrieves a bot by its unique ID. Returns nil, nil if not found.
	FindByID(ctx context.Context, id string) (*domain.Bot, error)
	// FindByStatus retrieves all bots with the given status.
	FindByStatus(ctx context.Context, status domain.BotStatus) ([]*domain.Bot, error)
	// UpdateStatus persists a status transition together with its error
	// message (empty when clearing) and the relevant lifecycle timestamp.
	UpdateStatus(ctx context.Context, id string, status domain.BotStatus, errorMessage string) error
	// UpdatePerformance persists recomputed performance counters.
	UpdatePerformance(ctx context.Context, id string, totalTrades int, totalProfit, winRate float64) error
	// UpdateCurrentBalance persists the bot's last observed balance.
	UpdateCurrentBalance(ctx context.Context, id string, balance float64) error
	// UpdateConfig persists the bot's strategy configuration.
	UpdateConfig(ctx context.Context, id string, cfg domain.BotConfig) error
}

// SignalRepository defines the interface for the durable signal queue.
type SignalRepository interface {
	// Create persists a new pending signal and returns its assigned ID.
	Create(ctx context.Context, sig *domain.Signal) (int64, error)
	// FindPending retrieves all unprocessed signals ordered by creation time
	// ascending (oldest first).
	FindPending(ctx context.Context) ([]*domain.Signal, error)
	// Claim atomically transitions a signal from pending to processed and
	// reports whether this caller won the transition. A signal that is
	// already processed, or missing, is not claimed. Execution must only
	// happen after a successful claim.
	Claim(ctx context.Context, id int64) (bool, error)
	// RecordOutcome stores the execution outcome on a claimed signal.
	// errorMessage is empty on success.
	RecordOutcome(ctx context.Context, id int64, errorMessage string) error
	// DeleteProcessedBefore removes processed signals created before the cutoff.
	// Returns the number of rows removed.
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TradeRepository defines the interface for storing and retrieving immutable
// trade records.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindByBot retrieves all trades for a bot, ordered by execution time ascending.
	FindByBot(ctx context.Context, botID string) ([]*domain.Trade, error)
}

// UserRepository covers the single user-level field the engine maintains.
type UserRepository interface {
	// UpdateTotalBalance persists the aggregated balance for a user.
	UpdateTotalBalance(ctx context.Context, userID string, total float64) error
}

// AuditRepository defines the interface for audit log housekeeping.
type AuditRepository interface {
	// CreateEntry records an audit event.
	CreateEntry(ctx context.Context, userID, action, detail string) error
	// DeleteBefore removes audit entries created before the cutoff.
	// Returns the number of rows removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
