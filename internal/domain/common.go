package domain

// BotStatus represents the lifecycle state of a trading bot.
type BotStatus string

const (
	BotRunning BotStatus = "running"
	BotStopped BotStatus = "stopped"
	BotPaused  BotStatus = "paused"
	BotError   BotStatus = "error"
)

// StrategyType identifies the decision logic a bot runs.
type StrategyType string

const (
	StrategyGrid        StrategyType = "grid"
	StrategyDCA         StrategyType = "dca"
	StrategyScalping    StrategyType = "scalping"
	StrategySwing       StrategyType = "swing"
	StrategyArbitrage   StrategyType = "arbitrage"
	StrategySignal      StrategyType = "signal"
	StrategyCopyTrading StrategyType = "copy_trading"
)

// SignalType represents the instruction carried by a signal.
type SignalType string

const (
	SignalBuy      SignalType = "buy"
	SignalSell     SignalType = "sell"
	SignalClose    SignalType = "close"
	SignalUpdateTP SignalType = "update_tp"
	SignalUpdateSL SignalType = "update_sl"
)

// OrderSide represents the side of an order (buy or sell).
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// OrderType represents how an order is priced.
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// OrderStatus mirrors the normalized exchange order states.
type OrderStatus string

const (
	OrderNew             OrderStatus = "new"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCanceled        OrderStatus = "canceled"
	OrderRejected        OrderStatus = "rejected"
)
