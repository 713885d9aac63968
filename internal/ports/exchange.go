package ports

import (
	"context"
	"time"

	"tradeHive/internal/domain"
)

// Ticker is a normalized 24h market snapshot for one symbol.
type Ticker struct {
	Symbol string
	Price  float64 // Last traded price
	Change float64 // 24h change percent
	Volume float64 // 24h base volume
}

// PriceLevel is one (price, quantity) entry of an order book side.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// OrderBook holds normalized depth for one symbol, best levels first.
type OrderBook struct {
	Symbol string
	Bids   []PriceLevel
	Asks   []PriceLevel
}

// OrderRequest describes an order to be placed on an exchange.
type OrderRequest struct {
	Symbol   string
	Side     domain.OrderSide
	Type     domain.OrderType
	Quantity float64
	Price    float64 // Required for limit orders, ignored for market
	Leverage int     // Futures leverage, 0/1 for spot
}

// Order is the normalized result of placing an order.
type Order struct {
	ID               string // Exchange-assigned order ID
	ClientOrderID    string // Our idempotency key for the submission
	Symbol           string
	Side             domain.OrderSide
	Type             domain.OrderType
	Quantity         float64
	Price            float64
	ExecutedPrice    float64
	ExecutedQuantity float64
	Status           domain.OrderStatus
	Fee              float64
	FeeCurrency      string
	Timestamp        time.Time
}

// ExchangeClient defines the uniform interface for interacting with a
// cryptocurrency exchange. Read operations are safe for concurrent use;
// order placement and cancellation for a given bot must be serialized by
// the caller.
type ExchangeClient interface {
	// GetBalance retrieves all non-zero asset balances for the account.
	GetBalance(ctx context.Context) (map[string]float64, error)

	// GetTicker retrieves the normalized 24h ticker for a symbol.
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)

	// GetOrderbook retrieves order book depth for a symbol, up to the given
	// number of levels per side.
	GetOrderbook(ctx context.Context, symbol string, depth int) (*OrderBook, error)

	// CreateOrder places an order and returns its normalized result.
	// Failures are returned as typed errors and never retried internally.
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// CancelOrder cancels an open order by its exchange-assigned ID.
	CancelOrder(ctx context.Context, orderID, symbol string) error
}

// Connector creates and caches authenticated exchange clients. Connections
// are cached by (exchange name, API key) so repeated bot initializations
// reuse one authenticated session.
type Connector interface {
	// Connect returns an authenticated client for the given exchange and
	// credentials, performing an authentication check on first use.
	// Fails with ErrConnectionFailed when the check does not pass and with
	// ErrUnsupportedExchange for unknown exchange names.
	Connect(ctx context.Context, exchange, apiKey, apiSecret, passphrase string) (ExchangeClient, error)
}
