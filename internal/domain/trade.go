package domain

import "time"

// Trade is an immutable record of an order submission and its execution
// outcome. Trades are write-once: status corrections happen on the exchange,
// not here.
type Trade struct {
	ID               int64       // Unique identifier (assigned by the store)
	UserID           string      // Owning user
	BotID            string      // Bot that submitted the order
	Exchange         string      // Exchange the order went to
	ExchangeOrderID  string      // Order ID assigned by the exchange
	Symbol           string      // Trading symbol
	Side             OrderSide   // buy or sell
	Type             OrderType   // market or limit
	Quantity         float64     // Requested quantity
	Price            float64     // Requested price (0 for market orders)
	ExecutedPrice    float64     // Average fill price
	ExecutedQuantity float64     // Filled quantity
	Fee              float64     // Total fee charged
	FeeCurrency      string      // Currency the fee was charged in
	Status           OrderStatus // Normalized exchange order state
	IsFutures        bool        // Whether this was a futures order
	Leverage         int         // Leverage used (1 = spot)
	ProfitLoss       float64     // Realized PnL attributed to this trade
	ExecutedAt       time.Time
}
