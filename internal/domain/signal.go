package domain

import "time"

// Signal is a discrete instruction to be executed on behalf of a bot.
// A signal transitions processed=false -> processed=true exactly once;
// every signal ends processed with either a recorded trade or an error message.
type Signal struct {
	ID           int64      // Unique identifier (assigned by the store)
	BotID        string     // Owning bot
	Type         SignalType // buy, sell, close, update_tp, update_sl
	Symbol       string     // Trading symbol
	Price        *float64   // Optional limit/reference price
	Quantity     *float64   // Optional order quantity (falls back to bot config)
	TakeProfit   *float64   // Optional take-profit level
	StopLoss     *float64   // Optional stop-loss level
	Leverage     *int       // Optional leverage override
	Payload      string     // Free-form origin payload (raw JSON)
	Processed    bool       // Terminal flag, set exactly once
	ProcessedAt  time.Time  // When processing completed (zero while pending)
	ErrorMessage string     // Failure message, empty on success
	SourceIP     string     // Origin address for audit
	CreatedAt    time.Time
}

// ProposedSignal is a signal produced by a strategy before it has identity.
// It carries the same shape as a persisted Signal minus identity fields.
type ProposedSignal struct {
	Type       SignalType
	Symbol     string
	Price      *float64
	Quantity   *float64
	TakeProfit *float64
	StopLoss   *float64
	Leverage   *int
	Reason     string // Strategy-supplied annotation, stored in the payload
}
