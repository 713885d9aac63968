package domain

import "time"

// Bot represents a configured automated trading unit bound to one exchange
// credential and one trading pair.
type Bot struct {
	ID            string       // Unique identifier (assigned by the creation flow)
	UserID        string       // Owning user
	Name          string       // Display name
	Exchange      string       // Exchange name (e.g., "binance", "okx", "bybit")
	APIKey        string       // Exchange API key
	APISecret     string       // Exchange API secret
	Passphrase    string       // Exchange passphrase (OKX only, empty otherwise)
	WebhookSecret string       // Shared secret for webhook signature checks (optional)
	StrategyType  StrategyType // Which strategy variant the bot runs
	TradingPair   string       // Trading symbol (e.g., "BTCUSDT")
	Config        BotConfig    // Strategy configuration
	Status        BotStatus    // Current lifecycle state
	ErrorMessage  string       // Last error, set when Status == BotError

	// Running performance counters, recomputed from trade history.
	TotalTrades    int
	TotalProfit    float64
	WinRate        float64
	CurrentBalance float64

	StartedAt   time.Time
	StoppedAt   time.Time
	LastTradeAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BotConfig holds the common strategy parameters plus an opaque bag for
// variant-specific extensions. The typed fields cover the closed set of
// parameters the engine itself interprets; Extras carries everything else
// through the store untouched.
type BotConfig struct {
	BaseCurrency string  // Asset used for balance reporting (e.g., "USDT")
	Quantity     float64 // Default order quantity
	TakeProfit   float64 // Tracked take-profit level (mutable via update_tp)
	StopLoss     float64 // Tracked stop-loss level (mutable via update_sl)
	Leverage     int     // Leverage for futures orders (1 = spot)

	// Grid parameters
	GridLevels  int
	GridSpacing float64 // Spacing between levels as a fraction (e.g., 0.01 for 1%)

	// DCA parameters
	DCAInterval time.Duration

	// Momentum parameters (scalping/swing)
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
	EMAShort      int
	EMALong       int

	// Arbitrage parameters
	MinSpread float64 // Minimum bid/ask spread fraction to act on

	Extras map[string]interface{} // Exchange/strategy-specific extensions
}

// IsRunning checks whether the bot status is running.
func (b *Bot) IsRunning() bool {
	return b.Status == BotRunning
}
