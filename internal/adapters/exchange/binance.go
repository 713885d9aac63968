package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/google/uuid"
)

// binanceClient implements ports.ExchangeClient using the go-binance library.
// Request signing (query-string HMAC-SHA256-hex) is handled by the library.
type binanceClient struct {
	client *binance.Client
	logger ports.Logger
}

func newBinanceClient(apiKey, apiSecret string, logger ports.Logger) *binanceClient {
	return &binanceClient{
		client: binance.NewClient(apiKey, apiSecret),
		logger: logger,
	}
}

// handleError translates common Binance API errors into standardized ports errors.
func (b *binanceClient) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2011: // Cancel order rejected
			mappedErr = ports.ErrOrderCancelFailed
		case -2013: // Order does not exist
			mappedErr = ports.ErrOrderNotFound
		case -2014, -2015: // API key format/permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -3005: // Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		default:
			mappedErr = ports.ErrExchangeAPI
		}
		b.logger.Error(ctx, err, fmt.Sprintf("%s failed with Binance API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	}
	b.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrExchangeAPI, err)
}

// GetBalance retrieves all non-zero asset balances for the account.
func (b *binanceClient) GetBalance(ctx context.Context) (map[string]float64, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, b.handleError(ctx, err, "GetBalance")
	}

	balances := make(map[string]float64)
	for _, bal := range account.Balances {
		free, _ := strconv.ParseFloat(bal.Free, 64)
		locked, _ := strconv.ParseFloat(bal.Locked, 64)
		if free > 0 || locked > 0 {
			balances[bal.Asset] = free + locked
		}
	}
	return balances, nil
}

// GetTicker retrieves the normalized 24h ticker for a symbol.
func (b *binanceClient) GetTicker(ctx context.Context, symbol string) (*ports.Ticker, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, b.handleError(ctx, err, "GetTicker")
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("GetTicker: no data for symbol %s: %w", symbol, ports.ErrExchangeAPI)
	}

	s := stats[0]
	price, _ := strconv.ParseFloat(s.LastPrice, 64)
	change, _ := strconv.ParseFloat(s.PriceChangePercent, 64)
	volume, _ := strconv.ParseFloat(s.Volume, 64)
	return &ports.Ticker{Symbol: s.Symbol, Price: price, Change: change, Volume: volume}, nil
}

// GetOrderbook retrieves order book depth for a symbol.
func (b *binanceClient) GetOrderbook(ctx context.Context, symbol string, depth int) (*ports.OrderBook, error) {
	if depth <= 0 {
		depth = 100
	}
	res, err := b.client.NewDepthService().Symbol(symbol).Limit(depth).Do(ctx)
	if err != nil {
		return nil, b.handleError(ctx, err, "GetOrderbook")
	}

	book := &ports.OrderBook{Symbol: symbol}
	for _, bid := range res.Bids {
		p, _ := strconv.ParseFloat(bid.Price, 64)
		q, _ := strconv.ParseFloat(bid.Quantity, 64)
		book.Bids = append(book.Bids, ports.PriceLevel{Price: p, Quantity: q})
	}
	for _, ask := range res.Asks {
		p, _ := strconv.ParseFloat(ask.Price, 64)
		q, _ := strconv.ParseFloat(ask.Quantity, 64)
		book.Asks = append(book.Asks, ports.PriceLevel{Price: p, Quantity: q})
	}
	return book, nil
}

// CreateOrder places an order and returns its normalized result.
func (b *binanceClient) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.Order, error) {
	clientOrderID := uuid.NewString()
	svc := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(binanceSide(req.Side)).
		Quantity(formatFloat(req.Quantity)).
		NewClientOrderID(clientOrderID)

	if req.Type == domain.Limit {
		svc = svc.Type(binance.OrderTypeLimit).
			TimeInForce(binance.TimeInForceTypeGTC).
			Price(formatFloat(req.Price))
	} else {
		svc = svc.Type(binance.OrderTypeMarket)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.handleError(ctx, err, "CreateOrder")
	}

	price, _ := strconv.ParseFloat(res.Price, 64)
	origQty, _ := strconv.ParseFloat(res.OrigQuantity, 64)
	execQty, _ := strconv.ParseFloat(res.ExecutedQuantity, 64)

	order := &ports.Order{
		ID:               strconv.FormatInt(res.OrderID, 10),
		ClientOrderID:    res.ClientOrderID,
		Symbol:           res.Symbol,
		Side:             req.Side,
		Type:             req.Type,
		Quantity:         origQty,
		Price:            price,
		ExecutedQuantity: execQty,
		Status:           normalizeOrderStatus(string(res.Status)),
		Timestamp:        time.Now().UTC(),
	}

	// Average fill price and commission come from the fills of a market order.
	var quoteSum, feeSum float64
	for _, fill := range res.Fills {
		fp, _ := strconv.ParseFloat(fill.Price, 64)
		fq, _ := strconv.ParseFloat(fill.Quantity, 64)
		fc, _ := strconv.ParseFloat(fill.Commission, 64)
		quoteSum += fp * fq
		feeSum += fc
		order.FeeCurrency = fill.CommissionAsset
	}
	if execQty > 0 && quoteSum > 0 {
		order.ExecutedPrice = quoteSum / execQty
	} else {
		order.ExecutedPrice = price
	}
	order.Fee = feeSum

	return order, nil
}

// CancelOrder cancels an open order by its exchange-assigned ID.
func (b *binanceClient) CancelOrder(ctx context.Context, orderID, symbol string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("CancelOrder: invalid order ID %q: %w", orderID, ports.ErrInvalidRequest)
	}
	_, err = b.client.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx)
	if err != nil {
		return b.handleError(ctx, err, "CancelOrder")
	}
	return nil
}

func binanceSide(side domain.OrderSide) binance.SideType {
	if side == domain.Sell {
		return binance.SideTypeSell
	}
	return binance.SideTypeBuy
}
